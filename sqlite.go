/*
Copyright © 2020 the lvisgrid authors.
This file is part of lvisgrid.

lvisgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

lvisgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with lvisgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package lvisgrid

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ctessum/geom/encoding/wkb"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteTable is the name of the table written by WriteSQLite.
const SQLiteTable = "grid_points"

// WriteSQLite writes one row per aggregate to table grid_points of a new
// SQLite database at path. The cell center is stored in the x and y
// columns and as little-endian WKB in the geom column. Null values are
// stored as NULL.
func WriteSQLite(path string, vars []Variable, aggs []CellAggregate) error {
	cols := Columns(vars)
	os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("lvisgrid: opening sqlite output: %w", err)
	}
	defer db.Close()

	defs := []string{"fid INTEGER PRIMARY KEY", "geom BLOB", "x REAL", "y REAL"}
	names := []string{"geom", "x", "y"}
	for _, c := range cols {
		t := "REAL"
		if c.Int {
			t = "INTEGER"
		}
		defs = append(defs, fmt.Sprintf("%q %s", c.Name, t))
		names = append(names, fmt.Sprintf("%q", c.Name))
	}
	if _, err = db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", SQLiteTable, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("lvisgrid: creating sqlite table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("lvisgrid: starting sqlite transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", SQLiteTable,
		strings.Join(names, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")))
	if err != nil {
		return fmt.Errorf("lvisgrid: preparing sqlite insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(names))
	for i := range aggs {
		a := &aggs[i]
		b, err := wkb.Encode(a.Center, binary.LittleEndian)
		if err != nil {
			return err
		}
		args[0], args[1], args[2] = b, a.Center.X, a.Center.Y
		for j, v := range a.Attributes(vars) {
			switch {
			case math.IsNaN(v):
				args[j+3] = nil
			case cols[j].Int:
				args[j+3] = int64(v)
			default:
				args[j+3] = v
			}
		}
		if _, err = stmt.Exec(args...); err != nil {
			return fmt.Errorf("lvisgrid: inserting cell %d: %w", a.CellID, err)
		}
	}
	return tx.Commit()
}

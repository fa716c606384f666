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

// Package lvis reads LVIS L2 ASCII products and converts laser shots
// into footprint polygons for gridding.
package lvis

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// HeaderKey is the first column name of an LVIS L2 header line.
const HeaderKey = "LFID"

// L2 holds the records of an LVIS L2 ASCII file.
type L2 struct {
	// Columns are the column names, in file order.
	Columns []string

	// Rows holds one slice of values per shot, ordered as Columns.
	// Values that are not numbers are stored as NaN.
	Rows [][]float64

	// NonNumeric counts, per column, the values that are not numbers.
	NonNumeric []int

	index map[string]int
}

// ReadL2 reads an LVIS L2 ASCII file. The column names are taken from
// the comment line that starts with "# LFID"; other comment lines are
// skipped. Every data line must have one value per column; values that
// are not numbers, such as those of text columns, are read as NaN and
// counted in NonNumeric.
func ReadL2(r io.Reader) (*L2, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	l := new(L2)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			f := strings.Fields(strings.TrimPrefix(text, "#"))
			if len(f) > 0 && strings.EqualFold(f[0], HeaderKey) {
				if l.Columns != nil {
					return nil, fmt.Errorf("lvis: line %d: duplicate header", line)
				}
				l.setColumns(f)
				l.NonNumeric = make([]int, len(f))
			}
			continue
		}
		if l.Columns == nil {
			return nil, fmt.Errorf("lvis: line %d: data before the \"# %s ...\" header", line, HeaderKey)
		}
		f := strings.Fields(text)
		if len(f) != len(l.Columns) {
			return nil, fmt.Errorf("lvis: line %d: %d values for %d columns", line, len(f), len(l.Columns))
		}
		row := make([]float64, len(f))
		for i, v := range f {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				x = math.NaN()
				l.NonNumeric[i]++
			}
			row[i] = x
		}
		l.Rows = append(l.Rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("lvis: reading L2 file: %v", err)
	}
	if l.Columns == nil {
		return nil, fmt.Errorf("lvis: no \"# %s ...\" header found", HeaderKey)
	}
	return l, nil
}

func (l *L2) setColumns(c []string) {
	l.Columns = c
	l.index = make(map[string]int, len(c))
	for i, n := range c {
		l.index[strings.ToUpper(n)] = i
	}
}

// Column returns the index of the named column, ignoring case, or -1
// if there is no such column.
func (l *L2) Column(name string) int {
	if i, ok := l.index[strings.ToUpper(name)]; ok {
		return i
	}
	return -1
}

// Text reports whether column i holds no numbers at all.
func (l *L2) Text(i int) bool {
	return len(l.Rows) > 0 && i < len(l.NonNumeric) && l.NonNumeric[i] == len(l.Rows)
}

// AddColumn appends a column. values must have one element per row.
func (l *L2) AddColumn(name string, values []float64) error {
	if len(values) != len(l.Rows) {
		return fmt.Errorf("lvis: column %s has %d values for %d rows", name, len(values), len(l.Rows))
	}
	if l.Column(name) >= 0 {
		return fmt.Errorf("lvis: column %s already exists", name)
	}
	for i, v := range values {
		l.Rows[i] = append(l.Rows[i], v)
	}
	l.setColumns(append(l.Columns, name))
	if l.NonNumeric != nil {
		l.NonNumeric = append(l.NonNumeric, 0)
	}
	return nil
}

// WriteL2 writes l in the format read by ReadL2.
func WriteL2(w io.Writer, l *L2) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "# %s\n", strings.Join(l.Columns, " "))
	for _, row := range l.Rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}

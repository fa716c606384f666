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
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadASCIIGrid reads an ESRI ASCII grid. The header keys ncols, nrows,
// cellsize and either xllcorner/yllcorner or xllcenter/yllcenter are
// required; NODATA_value is optional. The spatial reference is not
// stored in the format and must be set by the caller.
func ReadASCIIGrid(r io.Reader) (*Raster, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	s.Split(bufio.ScanWords)

	hdr := make(map[string]float64)
	var first string
	for s.Scan() {
		key := strings.ToLower(s.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key
			break
		}
		if !s.Scan() {
			return nil, fmt.Errorf("lvisgrid: ascii grid: missing value for header %q", key)
		}
		v, err := strconv.ParseFloat(s.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("lvisgrid: ascii grid: header %q: %w", key, err)
		}
		hdr[key] = v
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("lvisgrid: ascii grid: %w", err)
	}
	for _, k := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := hdr[k]; !ok {
			return nil, fmt.Errorf("lvisgrid: ascii grid: missing header %q", k)
		}
	}
	cols, rows, res := int(hdr["ncols"]), int(hdr["nrows"]), hdr["cellsize"]
	if cols <= 0 || rows <= 0 {
		return nil, configErrorf("ascii grid", "empty grid (%d x %d)", rows, cols)
	}
	if !(res > 0) {
		return nil, configErrorf("resolution", "must be positive, got %g", res)
	}
	var xll, yll float64
	if x, ok := hdr["xllcorner"]; ok {
		xll, yll = x, hdr["yllcorner"]
	} else if x, ok := hdr["xllcenter"]; ok {
		xll, yll = x-res/2, hdr["yllcenter"]-res/2
	} else {
		return nil, fmt.Errorf("lvisgrid: ascii grid: missing lower-left corner")
	}

	noData := math.NaN()
	if nd, ok := hdr["nodata_value"]; ok {
		noData = nd
	}
	out := NewRaster(rows, cols, xll, yll+float64(rows)*res, res, noData)
	if _, ok := hdr["nodata_value"]; !ok {
		out.NoData = nil
	}

	i := 0
	parse := func(tok string) error {
		if i >= len(out.Values.Elements) {
			return fmt.Errorf("lvisgrid: ascii grid: more than %d values", rows*cols)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("lvisgrid: ascii grid: value %d: %w", i, err)
		}
		out.Values.Elements[i] = v
		i++
		return nil
	}
	if first != "" {
		if err := parse(first); err != nil {
			return nil, err
		}
	}
	for s.Scan() {
		if err := parse(s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("lvisgrid: ascii grid: %w", err)
	}
	if i != rows*cols {
		return nil, fmt.Errorf("lvisgrid: ascii grid: got %d values, want %d", i, rows*cols)
	}
	return out, nil
}

// WriteASCIIGrid writes r as an ESRI ASCII grid.
func WriteASCIIGrid(w io.Writer, r *Raster) error {
	rows, cols := r.Shape()
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "ncols %d\nnrows %d\n", cols, rows)
	fmt.Fprintf(b, "xllcorner %s\nyllcorner %s\n", fmtFloat(r.X0), fmtFloat(r.Y0-float64(rows)*r.Resolution))
	fmt.Fprintf(b, "cellsize %s\n", fmtFloat(r.Resolution))
	fmt.Fprintf(b, "NODATA_value %s\n", fmtFloat(r.Sentinel()))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(fmtFloat(r.Values.Get(row, col)))
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

const testASCIIGrid = `ncols 3
nrows 2
xllcorner 100
yllcorner 200
cellsize 10
NODATA_value -9999
1 -9999 3
4 5 -9999
`

func TestReadASCIIGrid(t *testing.T) {
	r, err := ReadASCIIGrid(strings.NewReader(testASCIIGrid))
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := r.Shape()
	if rows != 2 || cols != 3 {
		t.Fatalf("shape: have %dx%d, want 2x3", rows, cols)
	}
	if r.X0 != 100 || r.Y0 != 220 || r.Resolution != 10 || r.Sentinel() != -9999 {
		t.Errorf("header: have x0=%g y0=%g res=%g nodata=%g", r.X0, r.Y0, r.Resolution, r.Sentinel())
	}
	want := []float64{1, -9999, 3, 4, 5, -9999}
	if diff := pretty.Diff(r.Values.Elements, want); len(diff) > 0 {
		t.Error(diff)
	}
	cells, err := Polygonize(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(cells) != 4 {
		t.Errorf("cells: have %d, want 4", len(cells))
	}
	if c := cells[0].Center; c.X != 105 || c.Y != 215 {
		t.Errorf("first center: have %v, want (105, 215)", c)
	}
}

func TestReadASCIIGridCenter(t *testing.T) {
	in := "ncols 1\nnrows 1\nxllcenter 5\nyllcenter 5\ncellsize 10\n7\n"
	r, err := ReadASCIIGrid(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if r.X0 != 0 || r.Y0 != 10 {
		t.Errorf("corner: have (%g, %g), want (0, 10)", r.X0, r.Y0)
	}
	if r.NoData != nil {
		t.Errorf("no-data should be unset, have %g", *r.NoData)
	}
}

func TestReadASCIIGridErrors(t *testing.T) {
	for _, in := range []string{
		"nrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n",
		"ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 0\n1\n",
		"ncols 1\nnrows 1\ncellsize 1\n1\n",
		"ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nx\n",
	} {
		if _, err := ReadASCIIGrid(strings.NewReader(in)); err == nil {
			t.Errorf("expected an error for %q", in)
		}
	}
}

func TestASCIIGridRoundTrip(t *testing.T) {
	r, err := ReadASCIIGrid(strings.NewReader(testASCIIGrid))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := WriteASCIIGrid(&b, r); err != nil {
		t.Fatal(err)
	}
	r2, err := ReadASCIIGrid(&b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(r, r2); len(diff) > 0 {
		t.Error(diff)
	}
}

func TestNetCDFRaster(t *testing.T) {
	r := testMask(3, 2, 30)
	r.X0, r.Y0 = 500, 1000
	r.Set(0, 2, 1)
	r.Set(7, 0, 1)
	r.DataType = Byte
	r.SR = "+proj=utm +zone=11 +datum=WGS84"

	path := filepath.Join(t.TempDir(), "mask.ncf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteNetCDFRaster(f, r, "mask"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r2, err := ReadNetCDFRaster(f, "mask")
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(r, r2); len(diff) > 0 {
		t.Error(diff)
	}
	if _, err := ReadNetCDFRaster(f, "missing"); err == nil {
		t.Error("expected an error for a missing variable")
	}
}

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
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// DataType is the numeric storage type of a raster band. It only
// matters for deriving a default no-data value.
type DataType int

// Supported raster data types.
const (
	Float64 DataType = iota
	Float32
	Byte
	Int16
	UInt16
	Int32
	UInt32
)

var dataTypeNames = map[DataType]string{
	Float64: "Float64", Float32: "Float32", Byte: "Byte", Int16: "Int16",
	UInt16: "UInt16", Int32: "Int32", UInt32: "UInt32",
}

func (t DataType) String() string {
	if s, ok := dataTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// ParseDataType returns the DataType matching name, ignoring case.
func ParseDataType(name string) (DataType, error) {
	for t, s := range dataTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return Float64, configErrorf("DataType", "unknown raster data type %q", name)
}

// IsFloat reports whether t is a floating point type.
func (t DataType) IsFloat() bool { return t == Float32 || t == Float64 }

// DefaultNoData returns the invalid-cell sentinel used when a raster
// does not nominate one: the largest representable value for integer
// types and the lowest representable value for floating point types.
// Every cell holding this value is excluded from the grid, so callers
// that rely on it should be aware of it.
func DefaultNoData(t DataType) float64 {
	switch t {
	case Byte:
		return math.MaxUint8
	case Int16:
		return math.MaxInt16
	case UInt16:
		return math.MaxUint16
	case Int32:
		return math.MaxInt32
	case UInt32:
		return math.MaxUint32
	case Float32:
		return -math.MaxFloat32
	default:
		return -math.MaxFloat64
	}
}

// Raster is a single band grid with a north-up affine transform.
// Values is shaped [rows, cols]; row 0 is the northernmost row.
type Raster struct {
	Values *sparse.DenseArray

	// X0 and Y0 are the coordinates of the upper-left corner of the
	// upper-left cell.
	X0, Y0 float64

	// Resolution is the edge length of the square cells.
	Resolution float64

	// NoData is the invalid-cell sentinel. If nil, DefaultNoData(DataType)
	// is used.
	NoData *float64

	DataType DataType

	// SR is the spatial reference of the grid in Proj4 or WKT format.
	SR string
}

// NewRaster returns a raster of the given shape with every cell set to
// the no-data sentinel.
func NewRaster(rows, cols int, x0, y0, resolution float64, noData float64) *Raster {
	r := &Raster{
		Values:     sparse.ZerosDense(rows, cols),
		X0:         x0,
		Y0:         y0,
		Resolution: resolution,
		NoData:     &noData,
	}
	for i := range r.Values.Elements {
		r.Values.Elements[i] = noData
	}
	return r
}

// Shape returns the number of rows and columns in r.
func (r *Raster) Shape() (rows, cols int) {
	if r.Values == nil || len(r.Values.Shape) != 2 {
		return 0, 0
	}
	return r.Values.Shape[0], r.Values.Shape[1]
}

// Sentinel returns the value marking invalid cells.
func (r *Raster) Sentinel() float64 {
	if r.NoData != nil {
		return *r.NoData
	}
	return DefaultNoData(r.DataType)
}

// Valid reports whether v is a valid (non no-data) cell value.
func (r *Raster) Valid(v float64) bool {
	if math.IsNaN(v) {
		return !r.DataType.IsFloat()
	}
	return v != r.Sentinel()
}

// Set sets the cell at row, col to v. Unlike sparse.DenseArray.Set it
// also stores zeros.
func (r *Raster) Set(v float64, row, col int) {
	_, cols := r.Shape()
	r.Values.Elements[row*cols+col] = v
}

// CellCenter returns the center of the cell at row, col.
func (r *Raster) CellCenter(row, col int) geom.Point {
	return geom.Point{
		X: r.X0 + (float64(col)+0.5)*r.Resolution,
		Y: r.Y0 - (float64(row)+0.5)*r.Resolution,
	}
}

// Index returns the row and column of the cell containing p. The
// indices may be outside of the raster.
func (r *Raster) Index(p geom.Point) (row, col int) {
	col = int(math.Floor((p.X - r.X0) / r.Resolution))
	row = int(math.Floor((r.Y0 - p.Y) / r.Resolution))
	return
}

// Bounds returns the extent of r.
func (r *Raster) Bounds() *geom.Bounds {
	rows, cols := r.Shape()
	return &geom.Bounds{
		Min: geom.Point{X: r.X0, Y: r.Y0 - float64(rows)*r.Resolution},
		Max: geom.Point{X: r.X0 + float64(cols)*r.Resolution, Y: r.Y0},
	}
}

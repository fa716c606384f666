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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ReadNetCDFRaster reads variable name from the NetCDF file rw as a
// raster. The file must carry the global attributes x0 and y0 (the
// lower-left corner of the grid) and dx (the cell size), and may carry
// nodata, data_type and sr. The variable has dimensions [y, x] with y
// increasing northward.
func ReadNetCDFRaster(rw cdf.ReaderWriterAt, name string) (*Raster, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("lvisgrid: opening netcdf raster: %w", err)
	}
	dims := f.Header.Lengths(name)
	if len(dims) != 2 {
		return nil, configErrorf("variable", "netcdf variable %q has %d dimensions; it must have 2", name, len(dims))
	}
	x0, err := float64Attribute(f.Header, "x0")
	if err != nil {
		return nil, err
	}
	y0, err := float64Attribute(f.Header, "y0")
	if err != nil {
		return nil, err
	}
	dx, err := float64Attribute(f.Header, "dx")
	if err != nil {
		return nil, err
	}
	ny, nx := dims[0], dims[1]
	r := &Raster{
		Values:     sparse.ZerosDense(ny, nx),
		X0:         x0,
		Y0:         y0 + float64(ny)*dx,
		Resolution: dx,
	}
	if nd, err := float64Attribute(f.Header, "nodata"); err == nil {
		r.NoData = &nd
	}
	if dt, ok := f.Header.GetAttribute("", "data_type").(string); ok {
		if r.DataType, err = ParseDataType(dt); err != nil {
			return nil, err
		}
	}
	if sr, ok := f.Header.GetAttribute("", "sr").(string); ok {
		r.SR = sr
	}

	tmp := make([]float64, ny*nx)
	if _, err = f.Reader(name, nil, nil).Read(tmp); err != nil {
		return nil, fmt.Errorf("lvisgrid: reading netcdf variable %s: %w", name, err)
	}
	// Flip so that row 0 is the northernmost row.
	for j := 0; j < ny; j++ {
		copy(r.Values.Elements[(ny-1-j)*nx:(ny-j)*nx], tmp[j*nx:(j+1)*nx])
	}
	return r, nil
}

func float64Attribute(h *cdf.Header, name string) (float64, error) {
	switch v := h.GetAttribute("", name).(type) {
	case []float64:
		if len(v) > 0 {
			return v[0], nil
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	}
	return 0, fmt.Errorf("lvisgrid: netcdf raster: missing numeric attribute %q", name)
}

// WriteNetCDFRaster writes r to w as variable name, in the layout read
// by ReadNetCDFRaster.
func WriteNetCDFRaster(w *os.File, r *Raster, name string) error {
	ny, nx := r.Shape()
	h := cdf.NewHeader([]string{"x", "y"}, []int{nx, ny})
	h.AddAttribute("", "comment", "lvisgrid raster")
	h.AddAttribute("", "x0", []float64{r.X0})
	h.AddAttribute("", "y0", []float64{r.Y0 - float64(ny)*r.Resolution})
	h.AddAttribute("", "dx", []float64{r.Resolution})
	h.AddAttribute("", "nodata", []float64{r.Sentinel()})
	h.AddAttribute("", "data_type", r.DataType.String())
	if r.SR != "" {
		h.AddAttribute("", "sr", r.SR)
	}
	h.AddVariable(name, []string{"y", "x"}, []float64{0})
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("lvisgrid: creating netcdf raster: %w", err)
	}
	tmp := make([]float64, ny*nx)
	for j := 0; j < ny; j++ {
		copy(tmp[j*nx:(j+1)*nx], r.Values.Elements[(ny-1-j)*nx:(ny-j)*nx])
	}
	if _, err = f.Writer(name, []int{0, 0}, []int{ny, nx}).Write(tmp); err != nil {
		return fmt.Errorf("lvisgrid: writing netcdf variable %s: %w", name, err)
	}
	return cdf.UpdateNumRecs(w)
}

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

package lvisgridutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lvisgrid"
	"github.com/spatialmodel/lvisgrid/lvis"
	"github.com/spf13/cobra"
)

// Grid grids the shots in cfg.Input and writes the result to
// cfg.OutputFile, along with a log file and a run summary.
func Grid(cmd *cobra.Command, cfg *GridConfig) error {
	startTime := time.Now()

	logfile, err := os.Create(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("lvisgrid: problem creating log file: %v", err)
	}
	defer logfile.Close()
	log := logrus.New()
	log.SetOutput(io.MultiWriter(cmd.OutOrStdout(), logfile))
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var mask, template *lvisgrid.Raster
	if cfg.Mask != "" {
		if mask, err = readRaster(cfg.Mask, cfg.RasterVariable); err != nil {
			return err
		}
	}
	if cfg.Template != "" {
		if template, err = readRaster(cfg.Template, cfg.RasterVariable); err != nil {
			return err
		}
	}
	sr, err := gridSR(cfg.SR, log, mask, template)
	if err != nil {
		return err
	}

	log.WithField("file", cfg.Input).Info("reading shots")
	footprints, err := readFootprints(cfg, sr)
	if err != nil {
		return err
	}
	log.WithField("footprints", len(footprints)).Info("created footprints")

	if mask == nil {
		if mask, err = lvisgrid.CoverageMask(footprints, cfg.Resolution, sr, template); err != nil {
			return err
		}
		rows, cols := mask.Shape()
		log.WithFields(logrus.Fields{"rows": rows, "cols": cols}).Info("created coverage mask")
	}

	vars := lvisgrid.Variables(cfg.Variables, cfg.PassThrough)
	p := &lvisgrid.Pipeline{
		Joiner: &lvisgrid.Joiner{
			AreaTolerance: cfg.AreaTolerance,
			Workers:       cfg.Workers,
			MaxRecords:    cfg.MaxRecords,
			Log:           log,
		},
		Variables: vars,
		Workers:   cfg.Workers,
		Log:       log,
	}
	res, err := p.Run(ctx, mask, footprints, nil)
	if err != nil {
		return err
	}

	if cfg.KeepIntermediate {
		if err := writeIntermediate(cfg, footprints, mask, res.Cells, log); err != nil {
			return err
		}
	}

	if err := lvisgrid.WriteOutput(cfg.OutputFile, vars, res.Aggregates); err != nil {
		return fmt.Errorf("lvisgrid: writing output: %v", err)
	}
	sf, err := os.Create(summaryFile(cfg.OutputFile))
	if err != nil {
		return fmt.Errorf("lvisgrid: creating summary file: %v", err)
	}
	if err := res.Summary.WriteTOML(sf); err != nil {
		sf.Close()
		return fmt.Errorf("lvisgrid: writing summary file: %v", err)
	}
	if err := sf.Close(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"output":   cfg.OutputFile,
		"duration": time.Since(startTime).Round(time.Millisecond),
	}).Info("lvisgrid completed successfully")
	return nil
}

// readRaster reads an ESRI ASCII grid or NetCDF raster, chosen by the
// file extension.
func readRaster(path, variable string) (*lvisgrid.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lvisgrid: opening raster: %v", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc":
		return lvisgrid.ReadASCIIGrid(f)
	case ".ncf", ".nc":
		return lvisgrid.ReadNetCDFRaster(f, variable)
	default:
		return nil, fmt.Errorf("lvisgrid: unsupported raster file type %q; use .asc or .ncf", filepath.Ext(path))
	}
}

// writeRaster writes r as an ESRI ASCII grid or as NetCDF variable
// variable, chosen by the file extension.
func writeRaster(path string, r *lvisgrid.Raster, variable string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc":
		err = lvisgrid.WriteASCIIGrid(f, r)
	case ".ncf", ".nc":
		err = lvisgrid.WriteNetCDFRaster(f, r, variable)
	default:
		err = fmt.Errorf("lvisgrid: unsupported raster file type %q; use .asc or .ncf", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// gridSR chooses the spatial reference of the output grid. A spatial
// reference stored with a raster takes precedence over the configured
// one; rasters without one are assigned the configured one.
func gridSR(configured string, log logrus.FieldLogger, rasters ...*lvisgrid.Raster) (string, error) {
	sr := configured
	for _, r := range rasters {
		if r == nil {
			continue
		}
		if r.SR == "" {
			r.SR = configured
			continue
		}
		if configured != "" && configured != r.SR {
			log.WithField("sr", r.SR).Warn("ignoring configured SR in favor of the raster's")
		}
		sr = r.SR
	}
	if sr == "" {
		return "", fmt.Errorf("lvisgrid: a grid spatial reference (SR) is required")
	}
	if _, err := lvisgrid.ParseSR(sr); err != nil {
		return "", err
	}
	return sr, nil
}

// readFootprints reads footprint polygons from a shapefile or creates
// them from the shots in an LVIS L2 file.
func readFootprints(cfg *GridConfig, sr string) ([]*lvisgrid.Footprint, error) {
	names := append(append([]string{}, cfg.Variables...), cfg.PassThrough...)
	if strings.ToLower(filepath.Ext(cfg.Input)) == ".shp" {
		return lvisgrid.ReadFootprintShapefile(cfg.Input, sr, names)
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := lvis.ReadL2(f)
	if err != nil {
		return nil, err
	}
	if cfg.CanopyCover {
		if err := lvis.AddCanopyCover(l, cfg.RHThreshold); err != nil {
			return nil, err
		}
	}
	p, err := lvis.NewProjector(sr)
	if err != nil {
		return nil, err
	}
	p.ShotDiameter = cfg.ShotDiameter
	if cfg.QuadrantSegments > 0 {
		p.QuadrantSegments = cfg.QuadrantSegments
	}
	if cfg.LonColumn != "" {
		p.LonColumn = cfg.LonColumn
	}
	if cfg.LatColumn != "" {
		p.LatColumn = cfg.LatColumn
	}
	return p.Footprints(l, names)
}

// writeIntermediate saves the footprints, the coverage mask and the
// grid cells to cfg.IntermediateDir.
func writeIntermediate(cfg *GridConfig, footprints []*lvisgrid.Footprint, mask *lvisgrid.Raster,
	cells []*lvisgrid.GridCell, log logrus.FieldLogger) error {
	base := filepath.Base(cfg.Input)
	base = filepath.Join(cfg.IntermediateDir, strings.TrimSuffix(base, filepath.Ext(base)))

	names := append(append([]string{}, cfg.Variables...), cfg.PassThrough...)
	if err := lvisgrid.WriteFootprintsShp(base+"_shot_circles.shp", footprints, names); err != nil {
		return fmt.Errorf("lvisgrid: writing footprints: %v", err)
	}
	if err := writeRaster(base+"_shot_cover."+cfg.MaskFormat, mask, cfg.RasterVariable); err != nil {
		return fmt.Errorf("lvisgrid: writing coverage mask: %v", err)
	}
	if err := lvisgrid.WriteCellsShp(base+"_grid_cells.shp", cells); err != nil {
		return fmt.Errorf("lvisgrid: writing grid cells: %v", err)
	}
	log.WithField("dir", cfg.IntermediateDir).Info("saved intermediate files")
	return nil
}

// CanopyCover estimates the canopy cover of the shots in LVIS L2 file in
// and writes the file with the added CC_PERCENT column to out.
func CanopyCover(in, out string, threshold float64) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()
	l, err := lvis.ReadL2(f)
	if err != nil {
		return err
	}
	if err := lvis.AddCanopyCover(l, threshold); err != nil {
		return err
	}
	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := lvis.WriteL2(w, l); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

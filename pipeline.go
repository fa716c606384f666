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
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lvisgrid/internal/hash"
)

// Pipeline grids footprints onto the valid cells of a raster mask.
type Pipeline struct {
	// Joiner performs the spatial join. If nil, NewJoiner() is used.
	Joiner *Joiner

	// Variables are the footprint variables to grid.
	Variables []Variable

	// Workers is the number of concurrent aggregation workers. If < 1,
	// runtime.GOMAXPROCS(0) is used.
	Workers int

	Log logrus.FieldLogger
}

// Result holds the output of a pipeline run.
type Result struct {
	Cells      []*GridCell
	Join       *JoinResult
	Aggregates []CellAggregate
	Summary    Summary
}

// Summary reports what happened during a run, including the inputs that
// were dropped because of invalid geometry.
type Summary struct {
	Resolution        float64 `toml:"resolution"`
	Cells             int     `toml:"cells"`
	Footprints        int     `toml:"footprints"`
	Candidates        int     `toml:"candidates"`
	Records           int     `toml:"records"`
	CoveredCells      int     `toml:"covered_cells"`
	SkippedFootprints int     `toml:"skipped_footprints"`
	SkippedCells      int     `toml:"skipped_cells"`
	FailedPairs       int     `toml:"failed_pairs"`

	// Digest identifies the gridded values. Identical inputs always
	// produce identical digests.
	Digest string `toml:"digest"`
}

// WriteTOML writes s to w in TOML format.
func (s Summary) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Fields returns s as logging fields.
func (s Summary) Fields() logrus.Fields {
	return logrus.Fields{
		"cells":              s.Cells,
		"footprints":         s.Footprints,
		"records":            s.Records,
		"covered_cells":      s.CoveredCells,
		"skipped_footprints": s.SkippedFootprints,
		"skipped_cells":      s.SkippedCells,
		"failed_pairs":       s.FailedPairs,
	}
}

// Run polygonizes the valid cells of mask, joins them with footprints,
// and aggregates the requested variables. fields, if not nil, lists the
// variables that footprints carry.
func (p *Pipeline) Run(ctx context.Context, mask *Raster, footprints []*Footprint, fields []string) (*Result, error) {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	j := p.Joiner
	if j == nil {
		j = NewJoiner()
	}
	if j.Log == nil {
		j.Log = log
	}
	w := p.Workers
	if w < 1 {
		w = runtime.GOMAXPROCS(0)
	}
	if mask == nil {
		return nil, configErrorf("mask", "no mask raster supplied")
	}
	ag := &Aggregator{
		Variables: p.Variables,
		CellArea:  mask.Resolution * mask.Resolution,
		Fields:    fields,
		Workers:   w,
	}
	// Catch variable errors before doing any geometry work.
	if err := ag.check(); err != nil {
		return nil, err
	}

	cells, err := Polygonize(mask)
	if err != nil {
		return nil, err
	}
	log.WithField("cells", len(cells)).Info("polygonized grid")

	jr, err := j.Join(ctx, cells, footprints)
	if err != nil {
		return nil, fmt.Errorf("lvisgrid: joining footprints to grid: %w", err)
	}
	log.WithFields(logrus.Fields{
		"records":    len(jr.Records),
		"candidates": jr.Candidates,
	}).Info("joined footprints to grid")

	aggs, err := ag.Aggregate(ctx, jr.Records)
	if err != nil {
		return nil, fmt.Errorf("lvisgrid: aggregating: %w", err)
	}

	res := &Result{
		Cells:      cells,
		Join:       jr,
		Aggregates: aggs,
		Summary: Summary{
			Resolution:        mask.Resolution,
			Cells:             len(cells),
			Footprints:        len(footprints),
			Candidates:        jr.Candidates,
			Records:           len(jr.Records),
			CoveredCells:      len(aggs),
			SkippedFootprints: jr.SkippedFootprints,
			SkippedCells:      jr.SkippedCells,
			FailedPairs:       jr.FailedPairs,
			Digest:            hash.Digest(aggs),
		},
	}
	entry := log.WithFields(res.Summary.Fields())
	if jr.SkippedFootprints+jr.SkippedCells+jr.FailedPairs > 0 {
		entry.Warn("gridding finished with dropped geometries")
	} else {
		entry.Info("gridding finished")
	}
	return res, nil
}

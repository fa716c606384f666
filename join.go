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
	"math"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultAreaTolerance is the fraction of a cell's area below which an
// intersection is considered to be a boundary artifact.
const DefaultAreaTolerance = 1.0e-9

// cellsPerTask is the number of cells handed to a worker at a time.
const cellsPerTask = 256

// IntersectionRecord relates one grid cell to one footprint that
// overlaps it with a positive area.
type IntersectionRecord struct {
	Cell      *GridCell
	Footprint *Footprint
	Geometry  geom.Polygonal
	Area      float64
}

// JoinResult holds the output of a spatial join.
type JoinResult struct {
	// Records are ordered by cell id and then footprint id.
	Records []IntersectionRecord

	// SkippedFootprints and SkippedCells count inputs with invalid
	// geometry.
	SkippedFootprints, SkippedCells int

	// FailedPairs counts cell-footprint pairs where clipping failed.
	FailedPairs int

	// Candidates is the number of cell-footprint pairs returned by the
	// spatial index.
	Candidates int
}

// Joiner finds the overlaps between grid cells and footprints.
type Joiner struct {
	// AreaTolerance is the fraction of the cell area below which an
	// intersection is treated as empty. The default is
	// DefaultAreaTolerance.
	AreaTolerance float64

	// Workers is the number of cells processed concurrently. If < 1,
	// runtime.GOMAXPROCS(0) is used.
	Workers int

	// MaxRecords, if > 0, is the largest number of intersection
	// records a join may produce before it is aborted.
	MaxRecords int

	Log logrus.FieldLogger
}

// NewJoiner returns a Joiner with default settings.
func NewJoiner() *Joiner {
	return &Joiner{
		AreaTolerance: DefaultAreaTolerance,
		Workers:       runtime.GOMAXPROCS(0),
		Log:           logrus.StandardLogger(),
	}
}

func (j *Joiner) logger() logrus.FieldLogger {
	if j.Log == nil {
		return logrus.StandardLogger()
	}
	return j.Log
}

func (j *Joiner) workers() int {
	if j.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return j.Workers
}

// index validates footprints and inserts the valid ones into an R-tree.
func (j *Joiner) index(footprints []*Footprint) (*rtree.Rtree, int) {
	tree := rtree.NewTree(25, 50)
	var skipped int
	for _, f := range footprints {
		if err := Validate(f.Polygonal); err != nil {
			j.logger().WithError(&GeometryError{Kind: "footprint", ID: f.ID, Err: err}).
				WithField("footprint", f.ID).Warn("skipping footprint")
			skipped++
			continue
		}
		tree.Insert(f)
	}
	return tree, skipped
}

// Join computes the intersection of every cell with every footprint
// that overlaps it. Footprints and cells with invalid geometry are
// skipped and counted rather than aborting the join.
func (j *Joiner) Join(ctx context.Context, cells []*GridCell, footprints []*Footprint) (*JoinResult, error) {
	if len(cells) == 0 {
		return nil, configErrorf("cells", "no grid cells to join")
	}
	if len(footprints) == 0 {
		return nil, configErrorf("footprints", "no footprints to join")
	}
	tol := j.AreaTolerance
	if tol < 0 {
		return nil, configErrorf("AreaTolerance", "must not be negative, got %g", tol)
	}

	tree, skippedFootprints := j.index(footprints)
	result := &JoinResult{SkippedFootprints: skippedFootprints}

	valid := make([]*GridCell, 0, len(cells))
	for _, c := range cells {
		if err := Validate(c.Polygonal); err != nil {
			j.logger().WithError(&GeometryError{Kind: "cell", ID: c.ID, Err: err}).
				WithField("cell", c.ID).Warn("skipping cell")
			result.SkippedCells++
			continue
		}
		valid = append(valid, c)
	}

	ntasks := (len(valid) + cellsPerTask - 1) / cellsPerTask
	parts := make([][]IntersectionRecord, ntasks)
	var total, failed, candidates atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers())
	for t := 0; t < ntasks; t++ {
		t := t
		g.Go(func() error {
			end := (t + 1) * cellsPerTask
			if end > len(valid) {
				end = len(valid)
			}
			for _, c := range valid[t*cellsPerTask : end] {
				if err := ctx.Err(); err != nil {
					return err
				}
				recs, nc, nf := j.joinCell(c, tree, tol)
				candidates.Add(int64(nc))
				failed.Add(int64(nf))
				parts[t] = append(parts[t], recs...)
				if n := total.Add(int64(len(recs))); j.MaxRecords > 0 && n > int64(j.MaxRecords) {
					return fmt.Errorf("%w: more than %d records", ErrRecordLimit, j.MaxRecords)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Records = make([]IntersectionRecord, 0, total.Load())
	for _, p := range parts {
		result.Records = append(result.Records, p...)
	}
	sort.Slice(result.Records, func(a, b int) bool {
		ra, rb := result.Records[a], result.Records[b]
		if ra.Cell.ID != rb.Cell.ID {
			return ra.Cell.ID < rb.Cell.ID
		}
		return ra.Footprint.ID < rb.Footprint.ID
	})
	result.FailedPairs = int(failed.Load())
	result.Candidates = int(candidates.Load())
	return result, nil
}

// joinCell intersects c with the footprints in tree that may overlap it.
// It returns the records along with the number of candidates examined
// and the number of pairs where clipping failed.
func (j *Joiner) joinCell(c *GridCell, tree *rtree.Rtree, tol float64) (recs []IntersectionRecord, ncand, nfail int) {
	cb := c.Bounds()
	cellArea := c.Area()
	for _, gI := range tree.SearchIntersect(cb) {
		f := gI.(*Footprint)
		ncand++
		if !overlapsWithArea(cb, f.Bounds()) {
			continue // touching only
		}
		isect, err := clip(c, f.Polygonal)
		if err != nil {
			j.logger().WithError(err).WithFields(logrus.Fields{
				"cell": c.ID, "footprint": f.ID}).Warn("skipping pair")
			nfail++
			continue
		}
		if isect == nil {
			continue
		}
		a := isect.Area()
		if a <= tol*cellArea {
			continue
		}
		recs = append(recs, IntersectionRecord{
			Cell:      c,
			Footprint: f,
			Geometry:  isect,
			Area:      a,
		})
	}
	return recs, ncand, nfail
}

// clip returns the intersection of cell c and footprint f. Cells that
// are axis-aligned rectangles are clipped exactly with clipRect, which
// keeps footprint vertices lying on cell edges; other cells fall back to
// the general polygon intersection, with a panic in the clipping library
// converted into an error.
func clip(c *GridCell, f geom.Polygonal) (isect geom.Polygonal, err error) {
	cb := c.Bounds()
	if isRect(c.Polygonal, cb) {
		p := clipRect(f, cb)
		if len(p) == 0 {
			return nil, nil
		}
		if a := p.Area(); math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("lvisgrid: polygon clipping failed: area is %g", a)
		}
		return p, nil
	}
	defer func() {
		if r := recover(); r != nil {
			isect = nil
			err = fmt.Errorf("lvisgrid: polygon clipping failed: %v", r)
		}
	}()
	p := c.Intersection(f)
	if p == nil {
		return nil, nil
	}
	return p, nil
}

// isRect reports whether p fills its bounding box b.
func isRect(p geom.Polygonal, b *geom.Bounds) bool {
	polys := p.Polygons()
	if len(polys) != 1 || len(polys[0]) != 1 {
		return false
	}
	ba := (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y)
	return ba > 0 && math.Abs(p.Area()-ba) <= 1e-12*ba
}

// clipRect clips every ring of p against the rectangle b. Rings that
// collapse to less than a positive area are dropped. Polygons and their
// holes are flattened into one polygon, as the shapefile decoder does.
func clipRect(p geom.Polygonal, b *geom.Bounds) geom.Polygon {
	var out geom.Polygon
	for _, poly := range p.Polygons() {
		for i, ring := range poly {
			r := clipRing(ring, b)
			if r == nil {
				if i == 0 {
					break // the exterior is outside, so are the holes
				}
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// clipRing clips ring against each of the four edges of b in turn
// (Sutherland-Hodgman). Points on an edge count as inside. It returns a
// closed ring, or nil if the result has no area.
func clipRing(ring []geom.Point, b *geom.Bounds) []geom.Point {
	pts := openRing(ring)
	for edge := 0; edge < 4 && len(pts) > 0; edge++ {
		out := make([]geom.Point, 0, len(pts)+4)
		prev := pts[len(pts)-1]
		for _, cur := range pts {
			curIn, prevIn := insideEdge(edge, cur, b), insideEdge(edge, prev, b)
			if curIn {
				if !prevIn {
					out = append(out, crossEdge(edge, prev, cur, b))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, crossEdge(edge, prev, cur, b))
			}
			prev = cur
		}
		pts = out
	}
	if len(pts) < 3 || ringArea(pts) <= 0 {
		return nil
	}
	return append(pts, pts[0])
}

// Edges 0 to 3 are the left, right, bottom and top sides of b.
func insideEdge(edge int, p geom.Point, b *geom.Bounds) bool {
	switch edge {
	case 0:
		return p.X >= b.Min.X
	case 1:
		return p.X <= b.Max.X
	case 2:
		return p.Y >= b.Min.Y
	default:
		return p.Y <= b.Max.Y
	}
}

// crossEdge returns where segment ab crosses the line through side edge
// of bounds. a and b must be on opposite sides of it.
func crossEdge(edge int, a, b geom.Point, bounds *geom.Bounds) geom.Point {
	switch edge {
	case 0, 1:
		x := bounds.Min.X
		if edge == 1 {
			x = bounds.Max.X
		}
		return geom.Point{X: x, Y: a.Y + (x-a.X)/(b.X-a.X)*(b.Y-a.Y)}
	default:
		y := bounds.Min.Y
		if edge == 3 {
			y = bounds.Max.Y
		}
		return geom.Point{X: a.X + (y-a.Y)/(b.Y-a.Y)*(b.X-a.X), Y: y}
	}
}

// ringArea returns the unsigned area of the open ring r.
func ringArea(r []geom.Point) float64 {
	var a float64
	for i := range r {
		j := (i + 1) % len(r)
		a += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return math.Abs(a / 2)
}

// overlapsWithArea reports whether two bounding boxes share a region of
// positive width and height.
func overlapsWithArea(a, b *geom.Bounds) bool {
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X &&
		a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y
}

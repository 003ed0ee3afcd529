// Package geoframe attaches point geometry to a loaded measurement table.
package geoframe

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/paulmach/orb"

	"methane-leak-map/pkg/database"
	"methane-leak-map/pkg/stage"
)

// StageName labels projector results.
const StageName = "project"

// Coordinate columns of the measurement table.
const (
	LongitudeColumn = "longitude"
	LatitudeColumn  = "latitude"
)

var (
	// ErrMissingColumn is returned when a coordinate column is absent.
	ErrMissingColumn = errors.New("coordinate column missing")
	// ErrNonNumeric is returned when a coordinate cell is not a number.
	ErrNonNumeric = errors.New("coordinate is not numeric")
)

// CRS identifies a coordinate reference system by authority code.
type CRS struct {
	Authority string
	Code      int
}

// WGS84 is longitude/latitude on the WGS 84 datum.
var WGS84 = CRS{Authority: "EPSG", Code: 4326}

func (c CRS) String() string {
	if c.Authority == "" {
		return "unset"
	}
	return fmt.Sprintf("%s:%d", c.Authority, c.Code)
}

// GeoTable is a measurement table with one point per row. Points[i] is
// {longitude, latitude} of Table.Rows[i]; NULL coordinates are NaN.
type GeoTable struct {
	Table  *database.Table
	Points []orb.Point
	CRS    CRS
}

// SetCRS assigns the coordinate reference system without transforming points.
func (g *GeoTable) SetCRS(c CRS) { g.CRS = c }

// Len returns the number of rows.
func (g *GeoTable) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Points)
}

// Placeable reports whether row i has both coordinates present and finite.
func (g *GeoTable) Placeable(i int) bool {
	if i < 0 || i >= g.Len() {
		return false
	}
	return finite(g.Points[i])
}

// Placed returns the finite points in row order.
func (g *GeoTable) Placed() orb.MultiPoint {
	out := make(orb.MultiPoint, 0, g.Len())
	for _, p := range g.Points {
		if finite(p) {
			out = append(out, p)
		}
	}
	return out
}

// Bound is the extent of the finite points. ok is false when there are none.
func (g *GeoTable) Bound() (b orb.Bound, ok bool) {
	placed := g.Placed()
	if len(placed) == 0 {
		return orb.Bound{}, false
	}
	return placed.Bound(), true
}

// Center is the arithmetic mean of the finite points.
func (g *GeoTable) Center() (c orb.Point, ok bool) {
	placed := g.Placed()
	if len(placed) == 0 {
		return orb.Point{}, false
	}
	var sumLon, sumLat float64
	for _, p := range placed {
		sumLon += p.Lon()
		sumLat += p.Lat()
	}
	n := float64(len(placed))
	return orb.Point{sumLon / n, sumLat / n}, true
}

func finite(p orb.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Projector turns measurement tables into GeoTables.
type Projector struct {
	logf func(string, ...any)
}

// NewProjector returns a projector that reports through logf
// (log.Printf when nil).
func NewProjector(logf func(string, ...any)) *Projector {
	if logf == nil {
		logf = log.Printf
	}
	return &Projector{logf: logf}
}

// Project pairs every row's longitude/latitude into a point and assigns
// WGS84. A nil table is reported as NotReady. The input is not modified and
// the same input always yields the same output.
func (p *Projector) Project(t *database.Table) (*GeoTable, stage.Result) {
	if t == nil {
		const detail = "measurement table is not loaded; read it before projecting"
		p.logf("%s", detail)
		return nil, stage.Skip(StageName, detail)
	}

	points, err := pointsFromXY(t, LongitudeColumn, LatitudeColumn)
	if err != nil {
		p.logf("Error creating geometry for table %q: %v", t.Name, err)
		return nil, stage.Fail(StageName, err)
	}

	g := &GeoTable{Table: t.Clone(), Points: points}
	g.SetCRS(WGS84)
	p.logf("Projected %d rows of %q to %s (%d placeable)", g.Len(), t.Name, g.CRS, len(g.Placed()))
	return g, stage.Done(StageName)
}

func pointsFromXY(t *database.Table, xCol, yCol string) ([]orb.Point, error) {
	xi, yi := t.ColumnIndex(xCol), t.ColumnIndex(yCol)
	if xi < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, xCol)
	}
	if yi < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, yCol)
	}

	points := make([]orb.Point, len(t.Rows))
	for i, row := range t.Rows {
		x, err := database.Float64(row[xi])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d %s: %v", ErrNonNumeric, i, xCol, err)
		}
		y, err := database.Float64(row[yi])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d %s: %v", ErrNonNumeric, i, yCol, err)
		}
		points[i] = orb.Point{x, y}
	}
	return points, nil
}

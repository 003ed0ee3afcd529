// Package leakmap assembles the interactive leak map: two toggleable marker
// layers whose popups carry the reading and its photo inline.
package leakmap

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"methane-leak-map/pkg/database"
	"methane-leak-map/pkg/geoframe"
	"methane-leak-map/pkg/stage"
)

// StageName labels builder results.
const StageName = "build"

// Layer names, in the order they are attached to the map.
const (
	LayerNonZero = "Non Zero"
	LayerZeros   = "Zeros"
)

// DefaultZoom shows a city-sized area before bounds fitting takes over.
const DefaultZoom = 13

// Inline image geometry and the text used when a record has no photo.
const (
	ImageWidth  = 150
	ImageHeight = 100
	NoImageHTML = "<p>No image available</p>"
)

// Measurement columns read while rendering popups.
const (
	PhotoIDColumn        = "photo_id"
	MethaneColumn        = "methane_level"
	TimestampColumn      = "timestamp"
	InfrastructureColumn = "type_of_infrastructure"
	LeakColumn           = "leak"
)

// ErrMissingColumn is returned when the measurement table lacks a popup column.
var ErrMissingColumn = errors.New("measurement column missing")

// PhotoSource resolves a photo id to its JPEG bytes. *database.PhotoTable
// implements it.
type PhotoSource interface {
	Lookup(id any) ([]byte, bool)
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger routes diagnostics to logf.
func WithLogger(logf func(string, ...any)) Option {
	return func(b *Builder) {
		if logf != nil {
			b.logf = logf
		}
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(b *Builder) { b.title = title }
}

// WithShareURL embeds a QR code pointing at url in the document corner.
func WithShareURL(url string) Option {
	return func(b *Builder) { b.shareURL = strings.TrimSpace(url) }
}

// Builder turns a GeoTable into a Document. It only reads its photo source.
type Builder struct {
	photos   PhotoSource
	logf     func(string, ...any)
	title    string
	shareURL string
}

// NewBuilder returns a builder resolving images from photos.
func NewBuilder(photos PhotoSource, opts ...Option) *Builder {
	b := &Builder{photos: photos, logf: log.Printf, title: "Methane leak map"}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build lays out every placeable record of geo. A nil geo is reported as
// NotReady; geo itself is never modified.
//
// Markers are placed in ascending row order, so the same table always
// renders the same document.
func (b *Builder) Build(geo *geoframe.GeoTable) (*Document, stage.Result) {
	if geo == nil || geo.Table == nil {
		const detail = "geometry table is not set; project the measurements before building the map"
		b.logf("%s", detail)
		return nil, stage.Skip(StageName, detail)
	}

	work := &geoframe.GeoTable{Table: geo.Table.Clone(), Points: geo.Points, CRS: geo.CRS}
	work.SetCRS(geoframe.WGS84)
	sanitizeTemporal(work.Table)

	cols, err := lookupColumns(work.Table)
	if err != nil {
		b.logf("Error building map: %v", err)
		return nil, stage.Fail(StageName, err)
	}

	doc := &Document{
		Title:        b.title,
		CRS:          work.CRS,
		Viewport:     viewportFor(work),
		ScaleControl: true,
	}
	if b.shareURL != "" {
		badge, err := NewShareBadge(b.shareURL)
		if err != nil {
			b.logf("Error encoding share badge: %v", err)
			return nil, stage.Fail(StageName, err)
		}
		doc.Share = badge
	}

	nonZero := &Layer{Name: LayerNonZero}
	zeros := &Layer{Name: LayerZeros}

	for i, row := range work.Table.Rows {
		if !work.Placeable(i) {
			continue
		}
		marker := Marker{
			Row:        i,
			Location:   work.Points[i],
			Popup:      b.popupHTML(row, cols),
			Properties: recordProperties(work.Table, row),
		}
		if database.Bool(row[cols.leak]) {
			nonZero.Markers = append(nonZero.Markers, marker)
		} else {
			zeros.Markers = append(zeros.Markers, marker)
		}
	}

	doc.Layers = append(doc.Layers, nonZero, zeros)
	doc.LayerControl = true

	b.logf("Map assembled: %d markers in %q, %d in %q", len(nonZero.Markers), LayerNonZero, len(zeros.Markers), LayerZeros)
	return doc, stage.Done(StageName)
}

// ResolveImage returns an inline JPEG <img> for the first photo with id, or
// NoImageHTML when there is none.
func (b *Builder) ResolveImage(id any) string {
	var (
		data []byte
		ok   bool
	)
	if b.photos != nil {
		data, ok = b.photos.Lookup(id)
	}
	if !ok {
		b.logf("No matching image found for photo_id == %s", database.FormatValue(id))
		return NoImageHTML
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf(`<img src="data:image/jpeg;base64,%s" width="%d" height="%d">`, encoded, ImageWidth, ImageHeight)
}

type columnSet struct {
	photoID, methane, timestamp, infrastructure, leak int
}

func lookupColumns(t *database.Table) (columnSet, error) {
	var (
		cs      columnSet
		missing []string
	)
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{PhotoIDColumn, &cs.photoID},
		{MethaneColumn, &cs.methane},
		{TimestampColumn, &cs.timestamp},
		{InfrastructureColumn, &cs.infrastructure},
		{LeakColumn, &cs.leak},
	} {
		*c.dst = t.ColumnIndex(c.name)
		if *c.dst < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return cs, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cs, nil
}

func (b *Builder) popupHTML(row []any, cols columnSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h4>Methane reading: %s ppm </h4>\n", html.EscapeString(database.FormatValue(row[cols.methane])))
	fmt.Fprintf(&sb, "<h4>Date/time recorded: %s </h4>\n", html.EscapeString(database.FormatValue(row[cols.timestamp])))
	fmt.Fprintf(&sb, "<h4>Infrastructure type: %s </h4>\n", html.EscapeString(database.FormatValue(row[cols.infrastructure])))
	sb.WriteString("<h4>Picture:</h4>\n")
	sb.WriteString(b.ResolveImage(row[cols.photoID]))
	return sb.String()
}

// sanitizeTemporal rewrites every date-time column of t as text. A column
// counts as date-time when it is declared DATE*/TIMESTAMP* or holds
// time.Time cells.
func sanitizeTemporal(t *database.Table) {
	for ci := range t.Columns {
		if !isTemporal(t, ci) {
			continue
		}
		for _, row := range t.Rows {
			if ts, ok := row[ci].(time.Time); ok {
				row[ci] = database.FormatTime(ts)
			}
		}
		t.Columns[ci].DeclType = "TEXT"
	}
}

func isTemporal(t *database.Table, ci int) bool {
	decl := t.Columns[ci].DeclType
	if strings.HasPrefix(decl, "DATE") || strings.HasPrefix(decl, "TIMESTAMP") {
		return true
	}
	for _, row := range t.Rows {
		if _, ok := row[ci].(time.Time); ok {
			return true
		}
	}
	return false
}

// recordProperties keeps the JSON-safe cells of a row. Blobs stay out of
// the properties; their only rendering is the popup image.
func recordProperties(t *database.Table, row []any) map[string]any {
	props := make(map[string]any, len(row))
	for ci, c := range t.Columns {
		switch v := row[ci].(type) {
		case []byte:
			continue
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				props[c.Name] = nil
				continue
			}
			props[c.Name] = v
		case nil, string, bool, int64:
			props[c.Name] = v
		default:
			props[c.Name] = database.FormatValue(v)
		}
	}
	return props
}

func viewportFor(g *geoframe.GeoTable) Viewport {
	center, ok := g.Center()
	if !ok {
		return Viewport{Center: orb.Point{0, 0}, Zoom: WorldZoom}
	}
	bound, _ := g.Bound()
	return Viewport{Center: center, Zoom: DefaultZoom, Bounds: &bound}
}

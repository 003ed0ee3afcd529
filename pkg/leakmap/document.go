package leakmap

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/crypto/blake2b"

	"methane-leak-map/pkg/geoframe"
)

// WorldZoom is used when no record could be placed.
const WorldZoom = 2

// MapNameSuffix completes the output filename after the city label.
const MapNameSuffix = "_maine_map.html"

//go:embed templates/map.html
var mapHTML string

var docTemplate = template.Must(template.New("map.html").Parse(mapHTML))

// Marker is one placed record.
type Marker struct {
	Row        int            // index of the record in the measurement table
	Location   orb.Point      // {longitude, latitude}
	Popup      string         // popup body, HTML
	Properties map[string]any // the record's cells, date-times as text
}

// Layer is a named, independently toggleable marker group.
type Layer struct {
	Name    string
	Markers []Marker
}

// Viewport is the initial view. Bounds, when set, wins over Center/Zoom
// once the document loads.
type Viewport struct {
	Center orb.Point // {longitude, latitude}
	Zoom   int
	Bounds *orb.Bound
}

// FitBounds returns Bounds as [[min_lat, min_lon], [max_lat, max_lon]].
func (v Viewport) FitBounds() ([2][2]float64, bool) {
	if v.Bounds == nil {
		return [2][2]float64{}, false
	}
	return [2][2]float64{
		{v.Bounds.Min.Lat(), v.Bounds.Min.Lon()},
		{v.Bounds.Max.Lat(), v.Bounds.Max.Lon()},
	}, true
}

// Document is the composed map. Layers are in attachment order; the layer
// control, when enabled, is attached after them.
type Document struct {
	Title        string
	CRS          geoframe.CRS
	Viewport     Viewport
	Layers       []*Layer
	LayerControl bool
	ScaleControl bool
	Share        *ShareBadge
}

// Layer returns the layer called name, or nil.
func (d *Document) Layer(name string) *Layer {
	for _, l := range d.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// MarkerCount returns the number of markers across all layers.
func (d *Document) MarkerCount() int {
	n := 0
	for _, l := range d.Layers {
		n += len(l.Markers)
	}
	return n
}

// FeatureCollection renders the layer as GeoJSON; each feature carries the
// popup HTML, the row index and the record cells.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range l.Markers {
		f := geojson.NewFeature(m.Location)
		f.Properties["row"] = m.Row
		f.Properties["popup"] = m.Popup
		f.Properties["record"] = m.Properties
		fc.Append(f)
	}
	return fc
}

type layerView struct {
	Name    string
	GeoJSON template.JS
}

type documentView struct {
	Title        string
	Center       template.JS
	Zoom         template.JS
	FitBounds    template.JS
	MaxBounds    template.JS
	Layers       []layerView
	LayerControl bool
	ScaleControl bool
	Share        *ShareBadge
}

func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// Render writes the document as a standalone HTML page.
func (d *Document) Render(w io.Writer) error {
	view := documentView{
		Title:        d.Title,
		LayerControl: d.LayerControl,
		ScaleControl: d.ScaleControl,
		Share:        d.Share,
	}

	var err error
	if view.Center, err = toJSON([2]float64{d.Viewport.Center.Lat(), d.Viewport.Center.Lon()}); err != nil {
		return fmt.Errorf("encode center: %w", err)
	}
	if view.Zoom, err = toJSON(d.Viewport.Zoom); err != nil {
		return fmt.Errorf("encode zoom: %w", err)
	}
	if fit, ok := d.Viewport.FitBounds(); ok {
		if view.FitBounds, err = toJSON(fit); err != nil {
			return fmt.Errorf("encode bounds: %w", err)
		}
	}
	if view.MaxBounds, err = toJSON([2][2]float64{{-90, -180}, {90, 180}}); err != nil {
		return fmt.Errorf("encode max bounds: %w", err)
	}
	for _, l := range d.Layers {
		data, err := toJSON(l.FeatureCollection())
		if err != nil {
			return fmt.Errorf("encode layer %q: %w", l.Name, err)
		}
		view.Layers = append(view.Layers, layerView{Name: l.Name, GeoJSON: data})
	}

	return docTemplate.Execute(w, view)
}

// MapFileName returns the output filename for city.
func MapFileName(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("city label is required for the map filename")
	}
	if strings.ContainsAny(city, `/\`) || city == "." || city == ".." {
		return "", fmt.Errorf("city label %q is not a valid filename component", city)
	}
	return city + MapNameSuffix, nil
}

// SaveInfo describes a written document.
type SaveInfo struct {
	Path   string
	Size   int
	Digest string // BLAKE2b-256, hex
}

// Save renders the document into dir/<city>_maine_map.html. The file is
// written to a temporary name first and renamed once complete.
func (d *Document) Save(dir, city string) (SaveInfo, error) {
	name, err := MapFileName(city)
	if err != nil {
		return SaveInfo{}, err
	}
	if dir == "" {
		dir = "."
	}

	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return SaveInfo{}, fmt.Errorf("render map: %w", err)
	}

	dest := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".leakmap-*.html")
	if err != nil {
		return SaveInfo{}, fmt.Errorf("tmp map file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return SaveInfo{}, fmt.Errorf("write map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return SaveInfo{}, fmt.Errorf("close map: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return SaveInfo{}, fmt.Errorf("chmod map: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return SaveInfo{}, fmt.Errorf("rename map: %w", err)
	}

	sum := blake2b.Sum256(buf.Bytes())
	return SaveInfo{Path: dest, Size: buf.Len(), Digest: hex.EncodeToString(sum[:])}, nil
}

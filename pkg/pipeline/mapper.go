// Package pipeline runs one leak map build: load the measurement table,
// project it, build the map and save it.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"methane-leak-map/pkg/database"
	"methane-leak-map/pkg/geoframe"
	"methane-leak-map/pkg/leakmap"
	"methane-leak-map/pkg/stage"
)

// Stage names of the steps the mapper owns itself.
const (
	StageLoad = "load"
	StageSave = "save"
)

// TableReader reads a whole table. *database.Database implements it.
type TableReader interface {
	ReadTable(ctx context.Context, name string) (*database.Table, error)
}

// Settings are the per-run inputs of a Mapper.
type Settings struct {
	Table     string
	City      string
	OutputDir string
	ShareURL  string
}

// Mapper holds the state of one run. Stages may be called one by one; a
// stage called before its input exists reports stage.NotReady.
type Mapper struct {
	reader    TableReader
	settings  Settings
	logf      func(string, ...any)
	projector *geoframe.Projector
	builder   *leakmap.Builder

	measurements *database.Table
	geo          *geoframe.GeoTable
	doc          *leakmap.Document
}

// NewMapper wires a run. The photo table is loaded by the caller and only
// read from here on.
func NewMapper(reader TableReader, photos leakmap.PhotoSource, s Settings, logf func(string, ...any)) (*Mapper, error) {
	if reader == nil {
		return nil, fmt.Errorf("table reader is required")
	}
	if strings.TrimSpace(s.Table) == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if _, err := leakmap.MapFileName(s.City); err != nil {
		return nil, err
	}
	if logf == nil {
		logf = log.Printf
	}
	return &Mapper{
		reader:    reader,
		settings:  s,
		logf:      logf,
		projector: geoframe.NewProjector(logf),
		builder: leakmap.NewBuilder(photos,
			leakmap.WithLogger(logf),
			leakmap.WithTitle(fmt.Sprintf("%s methane leaks", s.City)),
			leakmap.WithShareURL(s.ShareURL),
		),
	}, nil
}

// Measurements returns the loaded table, nil before Load.
func (m *Mapper) Measurements() *database.Table { return m.measurements }

// Geo returns the projected table, nil before Project.
func (m *Mapper) Geo() *geoframe.GeoTable { return m.geo }

// Document returns the built map, nil before Build.
func (m *Mapper) Document() *leakmap.Document { return m.doc }

// Load reads the measurement table. Results of later stages are dropped
// first, so they never outlive the table they were built from.
func (m *Mapper) Load(ctx context.Context) stage.Result {
	m.measurements, m.geo, m.doc = nil, nil, nil
	t, err := m.reader.ReadTable(ctx, m.settings.Table)
	if err != nil {
		m.logf("Error retrieving data from database: %v", err)
		return stage.Fail(StageLoad, err)
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	m.logf("Columns of %q: %s", t.Name, strings.Join(names, ", "))
	m.measurements = t
	return stage.Done(StageLoad)
}

// Project attaches geometry to the loaded table.
func (m *Mapper) Project() stage.Result {
	m.geo, m.doc = nil, nil
	geo, res := m.projector.Project(m.measurements)
	if res.OK() {
		m.geo = geo
	}
	return res
}

// Build lays out the map document.
func (m *Mapper) Build() stage.Result {
	m.doc = nil
	doc, res := m.builder.Build(m.geo)
	if res.OK() {
		m.doc = doc
	}
	return res
}

// Save writes the document to <OutputDir>/<City>_maine_map.html.
func (m *Mapper) Save() (leakmap.SaveInfo, stage.Result) {
	if m.doc == nil {
		const detail = "map is not built; call Build before Save"
		m.logf("%s", detail)
		return leakmap.SaveInfo{}, stage.Skip(StageSave, detail)
	}
	info, err := m.doc.Save(m.settings.OutputDir, m.settings.City)
	if err != nil {
		m.logf("Error saving map: %v", err)
		return leakmap.SaveInfo{}, stage.Fail(StageSave, err)
	}
	m.logf("Map has been saved to %s (%d bytes, blake2b-256 %s)", info.Path, info.Size, info.Digest)
	return info, stage.Done(StageSave)
}

// Execute runs every stage in order and stops at the first one that does
// not succeed.
func (m *Mapper) Execute(ctx context.Context) (leakmap.SaveInfo, error) {
	for _, step := range []func() stage.Result{
		func() stage.Result { return m.Load(ctx) },
		m.Project,
		m.Build,
	} {
		if res := step(); !res.OK() {
			return leakmap.SaveInfo{}, res.AsError()
		}
	}
	info, res := m.Save()
	return info, res.AsError()
}

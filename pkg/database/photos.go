package database

import (
	"context"
	"fmt"
)

// Fixed names of the photo evidence table.
const (
	PhotosTable   = "photos"
	PhotoIDColumn = "photo_id"
	PhotoColumn   = "photo"
)

// Photo is one row of the photos table.
type Photo struct {
	ID   any
	Data []byte
}

// PhotoTable is the read-only, in-memory photo evidence set. Identifiers are
// not unique; lookups return the first row in table order.
type PhotoTable struct {
	photos []Photo
	first  map[string]int
}

// NewPhotoTable indexes a loaded photos table. The photo_id and photo
// columns are required.
func NewPhotoTable(t *Table) (*PhotoTable, error) {
	idIdx := t.ColumnIndex(PhotoIDColumn)
	dataIdx := t.ColumnIndex(PhotoColumn)
	if idIdx < 0 || dataIdx < 0 {
		return nil, fmt.Errorf("%w: table %q needs columns %q and %q", ErrSchemaMismatch, t.Name, PhotoIDColumn, PhotoColumn)
	}

	pt := &PhotoTable{
		photos: make([]Photo, 0, t.Len()),
		first:  make(map[string]int, t.Len()),
	}
	for i, row := range t.Rows {
		p := Photo{ID: row[idIdx]}
		switch data := row[dataIdx].(type) {
		case []byte:
			p.Data = data
		case string:
			p.Data = []byte(data)
		}
		pt.photos = append(pt.photos, p)
		if key, ok := Key(p.ID); ok {
			if _, seen := pt.first[key]; !seen {
				pt.first[key] = i
			}
		}
	}
	return pt, nil
}

// NewPhotoTableFrom builds a table from literal photos, mostly for tests.
func NewPhotoTableFrom(photos ...Photo) *PhotoTable {
	t := &Table{
		Name:    PhotosTable,
		Columns: []Column{{Name: PhotoIDColumn}, {Name: PhotoColumn, DeclType: "BLOB"}},
	}
	for _, p := range photos {
		t.Rows = append(t.Rows, []any{p.ID, p.Data})
	}
	pt, _ := NewPhotoTable(t)
	return pt
}

// Len returns the number of photo rows, duplicates included.
func (pt *PhotoTable) Len() int {
	if pt == nil {
		return 0
	}
	return len(pt.photos)
}

// Lookup returns the payload of the first photo whose id matches. A match
// with a NULL payload counts as no match.
func (pt *PhotoTable) Lookup(id any) ([]byte, bool) {
	if pt == nil {
		return nil, false
	}
	key, ok := Key(id)
	if !ok {
		return nil, false
	}
	idx, ok := pt.first[key]
	if !ok || pt.photos[idx].Data == nil {
		return nil, false
	}
	return pt.photos[idx].Data, true
}

// LoadPhotos reads the fixed photos table into memory.
func (db *Database) LoadPhotos(ctx context.Context) (*PhotoTable, error) {
	t, err := db.ReadTable(ctx, PhotosTable)
	if err != nil {
		return nil, err
	}
	pt, err := NewPhotoTable(t)
	if err != nil {
		db.logf("Error indexing photos: %v", err)
		return nil, err
	}
	return pt, nil
}

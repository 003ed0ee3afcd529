package leakmap

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"methane-leak-map/pkg/database"
)

func sampleDocument(t *testing.T, opts ...Option) *Document {
	t.Helper()
	photos := database.NewPhotoTableFrom(database.Photo{ID: int64(1), Data: jpegBytes})
	geo := project(t, surveyTable(
		[]any{int64(1), -70.0, 43.0, 12.5, "2023-07-12 10:00:00", "valve", int64(1)},
		[]any{int64(2), -70.5, 43.5, 0.0, "2023-07-12 10:05:00", "pipe", int64(0)},
	))
	doc, res := NewBuilder(photos, append([]Option{WithLogger(t.Logf)}, opts...)...).Build(geo)
	require.True(t, res.OK(), "%v", res.AsError())
	return doc
}

// TestRenderAttachesLayersThenControl checks the script order: bounds are
// fitted, both overlays added and the layer control attached last.
func TestRenderAttachesLayersThenControl(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t, WithTitle("Portland methane leaks"))

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "<title>Portland methane leaks</title>")
	assert.Contains(t, out, "leaflet@1.9.4")
	assert.Contains(t, out, "map.fitBounds([[43,-70.5],[43.5,-70]])")
	assert.Contains(t, out, "L.control.scale()")
	assert.Contains(t, out, "zoom: 13,")

	nonZero := strings.Index(out, `overlays["Non Zero"]`)
	zeros := strings.Index(out, `overlays["Zeros"]`)
	control := strings.Index(out, "L.control.layers(null, overlays)")
	require.Positive(t, nonZero)
	require.Positive(t, zeros)
	require.Positive(t, control)
	assert.Less(t, nonZero, zeros)
	assert.Less(t, zeros, control)

	assert.Contains(t, out, `"type":"FeatureCollection"`)
	assert.Contains(t, out, `"coordinates":[-70,43]`)
	assert.NotContains(t, out, `class="leak-share"`)
	assert.NotContains(t, out, ".leak-share")
}

// TestRenderWorldView omits fitBounds when nothing could be placed.
func TestRenderWorldView(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Title:    "empty",
		Viewport: Viewport{Center: orb.Point{0, 0}, Zoom: WorldZoom},
		Layers:   []*Layer{{Name: LayerNonZero}, {Name: LayerZeros}},
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	out := buf.String()

	assert.NotContains(t, out, "map.fitBounds")
	assert.NotContains(t, out, "L.control.layers")
	assert.Contains(t, out, "center: [0,0]")
	assert.Contains(t, out, "zoom: 2,")
}

// TestSaveWritesCityFile writes <city>_maine_map.html and reports the
// digest of exactly the bytes on disk.
func TestSaveWritesCityFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := sampleDocument(t)

	info, err := doc.Save(dir, "Portland")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Portland_maine_map.html"), info.Path)

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size, len(data))
	sum := blake2b.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), info.Digest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")

	again, err := doc.Save(dir, "Portland")
	require.NoError(t, err)
	assert.Equal(t, info.Digest, again.Digest)
}

func TestMapFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		city    string
		want    string
		wantErr bool
	}{
		{city: "Portland", want: "Portland_maine_map.html"},
		{city: " Bangor ", want: "Bangor_maine_map.html"},
		{city: "", wantErr: true},
		{city: "../etc", wantErr: true},
		{city: "..", wantErr: true},
		{city: `a\b`, wantErr: true},
	}
	for _, tc := range tests {
		got, err := MapFileName(tc.city)
		if tc.wantErr {
			assert.Error(t, err, tc.city)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

// TestShareBadge embeds a PNG QR code linking to the published map.
func TestShareBadge(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t, WithShareURL("https://maps.example.org/portland"))
	require.NotNil(t, doc.Share)
	assert.True(t, strings.HasPrefix(string(doc.Share.DataURI), "data:image/png;base64,"))

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, `class="leak-share" href="https://maps.example.org/portland"`)
	assert.Contains(t, out, `src="data:image/png;base64,`)
	assert.Contains(t, out, ".leak-share {")
}

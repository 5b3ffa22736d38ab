package fixture

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/item"
)

func TestItems(t *testing.T) {
	items := Items()
	require.Len(t, items, Size)

	for _, m := range items {
		assert.NoError(t, m.Validate())
		assert.Equal(t, m.ComputeHash(), m.Hash, "stale hash for %s", m.ItemID)
	}
}

func TestBundledAssetIsPinned(t *testing.T) {
	assert.Len(t, bundled, 18968)
	assert.Equal(t, BundledDigest, xxhash.Sum64(bundled))

	items := Items()
	assert.Equal(t, "https://udaxihhexd.com#db367f63-6f54-5c4c-b594-ecd5affe5948", items[0].ItemID)
	assert.Equal(t, "Tisch kiste", items[0].NameDe)
}

func TestItems_ReturnsCopy(t *testing.T) {
	a := Items()
	a[0].ItemID = "changed"

	assert.NotEqual(t, "changed", Items()[0].ItemID)
}

func TestRecords(t *testing.T) {
	records := Records()
	require.Len(t, records, Size)

	for _, r := range records {
		for _, attr := range []string{
			testapi.AttributeNamePK,
			testapi.AttributeNameSK,
			testapi.AttributeNamePartyID,
			testapi.AttributeNameEventID,
		} {
			assert.Contains(t, r, attr)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{
			name:  "single item",
			input: `[{"item_id":"a","source_id":"s","event_id":"e"}]`,
			want:  1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: testapi.ErrEmptyFixture,
		},
		{
			name:    "missing event id",
			input:   `[{"item_id":"a","source_id":"s"}]`,
			wantErr: testapi.ErrInvalidRecord,
		},
		{
			name:    "duplicate key",
			input:   `[{"item_id":"a","source_id":"s","event_id":"e"},{"item_id":"a","source_id":"t","event_id":"e"}]`,
			wantErr: testapi.ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Decode(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"item_id":`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`[{"item_id":"a","source_id":"s","event_id":"e","colour":"red"}]`))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestEncodeLoad(t *testing.T) {
	items := item.NewGenerator(11).GenerateMany(3)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, items))

	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, items, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	items, err := Resolve("")
	require.NoError(t, err)
	assert.Len(t, items, Size)
}

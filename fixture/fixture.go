// Package fixture provides the item records every test run starts from.
//
// The bundled fixture is compiled into the binary; Load reads an alternative
// fixture from disk in the same JSON format. The bundled asset is a curated
// baseline with German names and descriptions in the *_de fields. It is not
// the output of cmd/fixturegen and changes only by editing it by hand;
// BundledDigest pins its content.
package fixture

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/item"
)

const (
	// Size is the number of items in the bundled fixture.
	Size = 25

	// BundledDigest is the xxhash64 of the bundled asset.
	BundledDigest uint64 = 0x33ef67cbc1e7e8b7
)

//go:embed data/items.json
var bundled []byte

var (
	bundledOnce  sync.Once
	bundledItems []item.Model
	bundledErr   error
)

// Items returns a copy of the bundled fixture. It panics if the bundled asset
// cannot be decoded; that is a build defect, not a runtime condition.
func Items() []item.Model {
	bundledOnce.Do(func() {
		bundledItems, bundledErr = Decode(bytes.NewReader(bundled))
	})
	if bundledErr != nil {
		panic(fmt.Sprintf("fixture: bundled items are corrupt: %v", bundledErr))
	}
	return append([]item.Model(nil), bundledItems...)
}

// Records returns the bundled fixture marshaled into items table records.
func Records() []testapi.Record {
	records, err := item.MarshalRecords(Items())
	if err != nil {
		panic(fmt.Sprintf("fixture: bundled items are invalid: %v", err))
	}
	return records
}

// Decode reads a JSON array of items from r. Every item must be storable in the
// items table, and the array must not be empty.
func Decode(r io.Reader) ([]item.Model, error) {
	var items []item.Model
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	if len(items) == 0 {
		return nil, testapi.ErrEmptyFixture
	}

	seen := make(map[string]int, len(items))
	for i, m := range items {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("fixture item %d: %w", i, err)
		}
		key := m.PartitionKey() + "|" + m.SortKey()
		if j, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: fixture items %d and %d share a primary key", testapi.ErrInvalidRecord, j, i)
		}
		seen[key] = i
	}
	return items, nil
}

// Load reads a fixture file from disk.
func Load(path string) ([]item.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	items, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Encode writes items to w in the fixture format.
func Encode(w io.Writer, items []item.Model) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(items); err != nil {
		return fmt.Errorf("failed to encode fixture: %w", err)
	}
	return nil
}

// Resolve returns the fixture at path, or the bundled fixture when path is empty.
func Resolve(path string) ([]item.Model, error) {
	if path == "" {
		return Items(), nil
	}
	return Load(path)
}

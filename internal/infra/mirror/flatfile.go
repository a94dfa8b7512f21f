package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fintrackhq/fintrack-go/internal/port"
)

// Flatfile is the secondary mirror backend: one JSON blob per
// collection+user, used when the embedded database is unavailable.
type Flatfile struct {
	dir    string
	prefix string
}

// NewFlatfile creates a flat-file store rooted at dir. The directory is
// created lazily on first save.
func NewFlatfile(dir, prefix string) *Flatfile {
	return &Flatfile{dir: dir, prefix: prefix}
}

type flatRecord struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

func (f *Flatfile) path(collection, userID string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s_%s_%s.json", f.prefix, collection, userID))
}

// Save writes the user's rows for a collection as a single JSON blob.
// The write is atomic (temp file + rename) so a crash never leaves a
// half-written cache behind.
func (f *Flatfile) Save(ctx context.Context, collection, userID string, records []port.MirrorRecord) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}

	blob := make([]flatRecord, 0, len(records))
	for _, r := range records {
		blob = append(blob, flatRecord{ID: r.ID, Data: json.RawMessage(r.Data)})
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}

	target := f.path(collection, userID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Load reads the user's rows for a collection; a missing file is an
// empty result, not an error.
func (f *Flatfile) Load(ctx context.Context, collection, userID string) ([]port.MirrorRecord, error) {
	data, err := os.ReadFile(f.path(collection, userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var blob []flatRecord
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, err
	}

	records := make([]port.MirrorRecord, 0, len(blob))
	for _, r := range blob {
		records = append(records, port.MirrorRecord{ID: r.ID, UserID: userID, Data: r.Data})
	}
	return records, nil
}

// Clear removes every cache file written under this prefix.
func (f *Flatfile) Clear(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(f.dir, f.prefix+"_*.json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

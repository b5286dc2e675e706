package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/saffron/internal/core/model"
)

// Source provides the current controlled vocabulary from the data store.
type Source interface {
	Vocabulary(ctx context.Context) (model.Vocabulary, error)
}

// LoadCached reads a previously saved snapshot. Returns ok=false when the
// file is missing or unreadable.
func LoadCached(path string) (model.Vocabulary, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Vocabulary{}, false
	}
	var v model.Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return model.Vocabulary{}, false
	}
	return v, true
}

// Save writes the snapshot next to the process so restarts skip the store
// roundtrip.
func Save(path string, v model.Vocabulary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create vocab cache dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Ensure returns a usable snapshot: the file cache when present, otherwise
// a fresh read from the store (cached for next time).
func Ensure(ctx context.Context, src Source, cachePath string) (model.Vocabulary, error) {
	if v, ok := LoadCached(cachePath); ok && !v.Empty() {
		return v, nil
	}

	v, err := src.Vocabulary(ctx)
	if err != nil {
		return model.Vocabulary{}, fmt.Errorf("failed to load controlled vocabulary: %w", err)
	}
	if err := Save(cachePath, v); err != nil {
		// Cache write failure is not worth failing startup over.
		fmt.Fprintf(os.Stderr, "warning: could not cache vocabulary: %v\n", err)
	}
	return v, nil
}

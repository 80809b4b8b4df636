// Package seed writes the sample reference data: participants, locations,
// action categories and tags.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/starford/sislog/internal/models"
)

//go:embed sample.yaml
var sampleYAML []byte

// Setter is the part of the document store Apply writes through.
type Setter interface {
	Set(ctx context.Context, collection, id string, data map[string]any) error
}

// Data is a set of reference documents keyed by collection name. Every
// document must carry an "id".
type Data map[string][]map[string]any

// Sample returns the bundled sample data.
func Sample() (Data, error) {
	return Parse(sampleYAML)
}

// Parse decodes reference data from YAML. Unknown collections and
// documents without an id are rejected.
func Parse(raw []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	for collection, docs := range d {
		if !isReference(collection) {
			return nil, fmt.Errorf("seed: unknown collection %q", collection)
		}
		for i, doc := range docs {
			if id, _ := doc["id"].(string); id == "" {
				return nil, fmt.Errorf("seed: %s[%d] has no id", collection, i)
			}
		}
	}
	return d, nil
}

// Apply writes every document with Set under its fixed id, so applying
// the same data twice leaves one copy. It returns the number of documents
// written.
func Apply(ctx context.Context, docs Setter, d Data, logger *slog.Logger) (int, error) {
	n := 0
	for _, collection := range models.Collections {
		for _, doc := range d[collection] {
			id := doc["id"].(string)
			if err := docs.Set(ctx, collection, id, doc); err != nil {
				return n, fmt.Errorf("seed: write %s/%s: %w", collection, id, err)
			}
			n++
		}
		if len(d[collection]) > 0 {
			logger.Info("seed: collection written",
				slog.String("collection", collection),
				slog.Int("documents", len(d[collection])))
		}
	}
	return n, nil
}

func isReference(collection string) bool {
	switch collection {
	case models.CollectionParticipants, models.CollectionLocations,
		models.CollectionActionCategories, models.CollectionTags:
		return true
	}
	return false
}

// Package docstore is the shared document store that every sislog client
// reads and writes.
//
// Documents are flat JSON objects grouped into named collections and kept
// in SQLite. Readers do not poll: they subscribe to a collection and
// receive its entire current membership once on subscribe and again after
// every change. Several processes may share one database file; Watch
// picks up their writes.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Documents is the store surface used by the sync adapter and the
// mutation gateway. Consumers depend on this interface rather than *Store.
type Documents interface {
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Document, error)
	Subscribe(collection string, fn func(Snapshot)) (func(), error)
}

var _ Documents = (*Store)(nil)

// Document is one stored record. CreateTime and UpdateTime are assigned
// by the store.
type Document struct {
	ID         string         `json:"id"`
	Data       map[string]any `json:"data"`
	CreateTime time.Time      `json:"createTime"`
	UpdateTime time.Time      `json:"updateTime"`
}

// Decode unmarshals the document into v. The document id is exposed as
// "id", and "createdAt" defaults to CreateTime when the data lacks it.
func (d Document) Decode(v any) error {
	fields := make(map[string]any, len(d.Data)+2)
	maps.Copy(fields, d.Data)
	fields["id"] = d.ID
	if _, ok := fields["createdAt"]; !ok && !d.CreateTime.IsZero() {
		fields["createdAt"] = d.CreateTime.UTC().Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.ID, err)
	}
	return nil
}

// Snapshot is the full membership of one collection at ReadTime.
type Snapshot struct {
	Collection string
	Documents  []Document
	ReadTime   time.Time
}

type serverTimestamp struct{}

// ServerTimestamp, used as a field value in Add, Set or Update, is
// replaced with the store's commit time.
var ServerTimestamp = serverTimestamp{}

// resolveFields copies data, drops "id" (the id lives outside the data)
// and replaces ServerTimestamp sentinels with now.
func resolveFields(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k == "id" {
			continue
		}
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[k] = v
	}
	return out
}

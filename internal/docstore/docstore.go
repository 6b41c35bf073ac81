package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
)

// IDField is assigned by the store on create and is immutable afterwards.
const IDField = "id"

var ErrImmutableID = errors.New("docstore: id field cannot be updated")

// Record is one stored document, mapping field names to values. Values use
// the generic JSON types (string, float64, bool, []interface{},
// map[string]interface{}); the store-assigned "id" is always an int64.
type Record map[string]interface{}

func (r Record) ID() int64 {
	id, _ := r[IDField].(int64)
	return id
}

// Store persists one fixed-schema collection of records. "No match" is an
// empty slice, never an error; errors mean the underlying storage failed.
type Store interface {
	// Create builds a record from the declared schema fields (unknown input
	// fields are dropped, missing fields default to the empty string),
	// assigns a fresh id and persists it.
	Create(ctx context.Context, fields Record) (Record, error)

	// Get returns every record whose field equals value. Equality only.
	Get(ctx context.Context, field string, value interface{}) ([]Record, error)

	// GetAll returns every record in the collection.
	GetAll(ctx context.Context) ([]Record, error)

	// Update merges fields into every record matching field == value and
	// returns the post-update matches. Setting id is rejected.
	Update(ctx context.Context, fields Record, field string, value interface{}) ([]Record, error)

	// Delete removes every record matching field == value. Idempotent.
	Delete(ctx context.Context, field string, value interface{}) error
}

// withSchema keeps only declared fields, defaulting absent ones to "".
func withSchema(schema []string, fields Record) Record {
	rec := make(Record, len(schema))
	for _, name := range schema {
		if v, ok := fields[name]; ok {
			rec[name] = v
		} else {
			rec[name] = ""
		}
	}
	return rec
}

// normalizeRecord deep-copies a record through JSON so both store
// implementations hand out the same generic value types.
func normalizeRecord(rec Record) Record {
	data, err := json.Marshal(rec)
	if err != nil {
		return rec
	}
	out := Record{}
	if err := json.Unmarshal(data, &out); err != nil {
		return rec
	}
	if id, ok := rec[IDField]; ok {
		out[IDField] = id
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// equalValues compares two field values after JSON normalization, so an
// int64 id and a float64 decoded from JSON still match.
func equalValues(a, b interface{}) bool {
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

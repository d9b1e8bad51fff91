package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/modernmen/collectiongen/schema"
)

// Record is a single document keyed by field name. Dates are time.Time
// values in UTC, numbers are float64 and list fields are []any.
type Record map[string]any

// ID returns the record id.
func (r Record) ID() string {
	id, _ := r[schema.FieldID].(string)
	return id
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Page is one page of a list result.
type Page struct {
	Records    []Record `json:"docs" msgpack:"docs"`
	Total      int      `json:"totalDocs" msgpack:"totalDocs"`
	Page       int      `json:"page" msgpack:"page"`
	PageSize   int      `json:"limit" msgpack:"limit"`
	TotalPages int      `json:"totalPages" msgpack:"totalPages"`
	HasNext    bool     `json:"hasNextPage" msgpack:"hasNextPage"`
	HasPrev    bool     `json:"hasPrevPage" msgpack:"hasPrevPage"`
}

// NewPage computes the pagination fields of a page.
func NewPage(records []Record, total, page, size int) *Page {
	p := &Page{Records: records, Total: total, Page: page, PageSize: size}
	if size > 0 {
		p.TotalPages = (total + size - 1) / size
	}
	p.HasPrev = page > 1
	p.HasNext = page < p.TotalPages
	if p.Records == nil {
		p.Records = []Record{}
	}
	return p
}

// Change describes a committed write.
type Change struct {
	Collection string    `json:"collection"`
	Op         schema.Op `json:"op"`
	ID         string    `json:"id"`
	// Record is the document after create and update, and the removed
	// document after delete.
	Record Record    `json:"doc,omitempty"`
	At     time.Time `json:"at"`
}

// Decode copies a record into v, a pointer to a struct whose json tags
// name the record fields.
func Decode(r Record, v any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: decode record: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("store: decode record: %w", err)
	}
	return nil
}

// Encode converts v, a struct with json tags, to a record. Fields omitted
// by their tags are absent, which makes pointer fields with omitempty
// suitable for partial updates.
func Encode(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("store: encode record: %w", err)
	}
	return r, nil
}

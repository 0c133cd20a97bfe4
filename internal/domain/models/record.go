package models

import (
	"sort"
	"time"
)

// DefaultTitle is used when a record is created without a title
const DefaultTitle = "Untitled"

// Record is a stored note or paste
type Record struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"` // nil until the first replace
}

// Collection is the full set of records persisted at one store path.
// Records are keyed by ID; List returns them in creation order.
type Collection struct {
	records map[string]*Record
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{records: make(map[string]*Record)}
}

// Len returns the number of records
func (c *Collection) Len() int {
	return len(c.records)
}

// Has reports whether a record with the given ID exists
func (c *Collection) Has(id string) bool {
	_, ok := c.records[id]
	return ok
}

// Get returns a copy of the record with the given ID
func (c *Collection) Get(id string) (*Record, bool) {
	r, ok := c.records[id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// Put inserts or overwrites a record
func (c *Collection) Put(r *Record) {
	cp := *r
	c.records[r.ID] = &cp
}

// List returns copies of all records ordered by CreatedAt, then ID
func (c *Collection) List() []Record {
	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

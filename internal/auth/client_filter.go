package auth

import (
	"net/http"
	"strings"
)

// ClientFilter matches requests whose User-Agent contains a substring.
// It reproduces the legacy "game client only" read filter. Headers are
// trivially spoofed, so this must never guard anything sensitive.
type ClientFilter struct {
	substring string
}

// NewClientFilter creates a filter. An empty substring matches everything.
func NewClientFilter(substring string) *ClientFilter {
	return &ClientFilter{substring: substring}
}

// Enabled reports whether the filter restricts anything
func (f *ClientFilter) Enabled() bool {
	return f != nil && f.substring != ""
}

// Allows reports whether the request's User-Agent passes the filter
func (f *ClientFilter) Allows(r *http.Request) bool {
	if !f.Enabled() {
		return true
	}
	return strings.Contains(r.UserAgent(), f.substring)
}

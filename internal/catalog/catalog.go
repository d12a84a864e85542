// Package catalog holds the tool catalog: a one-time snapshot of the tools an
// external tool host offers. It is advertised to the model on every request
// and used to resolve tool calls by name.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/recrsn/mcpchat/internal/schema"
	"github.com/samber/lo"
)

var (
	// ErrUnavailable means the tool host could not be reached or returned a
	// malformed listing. A session must not start without a catalog.
	ErrUnavailable = errors.New("tool catalog unavailable")

	// ErrToolNotFound means a tool call named a tool missing from the catalog.
	ErrToolNotFound = errors.New("tool not found")
)

// Descriptor describes a single tool
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"inputSchema,omitempty"`
}

// Source lists the tools of a tool host
type Source interface {
	ListTools(ctx context.Context) ([]Descriptor, error)
}

// NotFoundError reports an unknown tool name together with close matches
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("tool not found: %s", e.Name)
	}
	return fmt.Sprintf("tool not found: %s (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrToolNotFound }

type entry struct {
	descriptor Descriptor
	schema     schema.Schema
}

// Catalog is immutable after Fetch
type Catalog struct {
	entries map[string]entry
	names   []string
}

// Fetch lists the tools of src once and builds the catalog.
func Fetch(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no tool source", ErrUnavailable)
	}
	descriptors, err := src.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return New(descriptors)
}

// New builds a catalog from descriptors, rejecting malformed listings.
func New(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]entry, len(descriptors))}
	for i, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("%w: tool %d has no name", ErrUnavailable, i)
		}
		if _, dup := c.entries[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tool name %q", ErrUnavailable, d.Name)
		}
		s, err := schema.Parse(d.Schema)
		if err != nil {
			return nil, fmt.Errorf("%w: tool %q: %w", ErrUnavailable, d.Name, err)
		}
		d.Schema = append(json.RawMessage(nil), d.Schema...)
		c.entries[d.Name] = entry{descriptor: d, schema: s}
	}
	c.names = lo.Keys(c.entries)
	sort.Strings(c.names)
	return c, nil
}

// Len returns the number of tools
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns the tool names in sorted order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Descriptors returns copies of all descriptors, sorted by name
func (c *Catalog) Descriptors() []Descriptor {
	return lo.Map(c.names, func(name string, _ int) Descriptor {
		d := c.entries[name].descriptor
		d.Schema = append(json.RawMessage(nil), d.Schema...)
		return d
	})
}

// Lookup resolves a tool by name
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	e, ok := c.entries[name]
	if !ok {
		return Descriptor{}, &NotFoundError{Name: name, Suggestions: c.suggest(name)}
	}
	d := e.descriptor
	d.Schema = append(json.RawMessage(nil), d.Schema...)
	return d, nil
}

// Validate checks raw arguments against the schema of the named tool
func (c *Catalog) Validate(name string, args json.RawMessage) error {
	e, ok := c.entries[name]
	if !ok {
		return &NotFoundError{Name: name, Suggestions: c.suggest(name)}
	}
	if err := e.schema.ValidateJSON(args); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	return nil
}

// suggest returns up to three catalog names close to name
func (c *Catalog) suggest(name string) []string {
	ranks := fuzzy.RankFindFold(name, c.names)
	if len(ranks) == 0 {
		// the model often drops or adds a word; try the other direction too
		ranks = lo.Filter(lo.Map(c.names, func(n string, _ int) fuzzy.Rank {
			return fuzzy.Rank{Source: name, Target: n, Distance: fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(n))}
		}), func(r fuzzy.Rank, _ int) bool {
			return fuzzy.MatchFold(r.Target, name) || r.Distance <= 3
		})
	}
	sort.Sort(fuzzy.Ranks(ranks))
	out := lo.Map(ranks, func(r fuzzy.Rank, _ int) string { return r.Target })
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

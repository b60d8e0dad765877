// Package registry holds the canonical document type vocabulary. All rule,
// section and classification inputs resolve against it; unregistered ids are
// rejected instead of silently accepted.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// Entry is one registered document type.
type Entry struct {
	ID       domain.DocumentTypeID
	Label    string
	Aliases  []string
	Keywords []string
}

type Registry struct {
	version string
	entries map[domain.DocumentTypeID]Entry
	aliases map[string]domain.DocumentTypeID
}

// New builds a registry from catalog entries. Duplicate ids or aliases are
// authoring mistakes and fail the load.
func New(version string, entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("registry: no document types defined")
	}
	r := &Registry{
		version: version,
		entries: make(map[domain.DocumentTypeID]Entry, len(entries)),
		aliases: make(map[string]domain.DocumentTypeID),
	}
	for _, e := range entries {
		id := domain.DocumentTypeID(foldLabel(string(e.ID)))
		if id == "" {
			return nil, errors.New("registry: empty document type id")
		}
		if _, dup := r.entries[id]; dup {
			return nil, fmt.Errorf("registry: duplicate document type %q", id)
		}
		e.ID = id
		r.entries[id] = e
		for _, alias := range e.Aliases {
			key := foldLabel(alias)
			if key == "" {
				continue
			}
			if owner, dup := r.aliases[key]; dup && owner != id {
				return nil, fmt.Errorf("registry: alias %q claimed by %q and %q", alias, owner, id)
			}
			r.aliases[key] = id
		}
	}
	return r, nil
}

func (r *Registry) Version() string { return r.version }

// Known reports whether the exact id is registered.
func (r *Registry) Known(id domain.DocumentTypeID) bool {
	_, ok := r.entries[id]
	return ok
}

// Entry returns the registered entry for an id.
func (r *Registry) Entry(id domain.DocumentTypeID) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Label returns the display label for an id, falling back to the id itself.
func (r *Registry) Label(id domain.DocumentTypeID) string {
	if e, ok := r.entries[id]; ok && e.Label != "" {
		return e.Label
	}
	return string(id)
}

// Normalize maps a free-text type label to a registered id, folding case and
// punctuation and resolving aliases.
func (r *Registry) Normalize(label string) (domain.DocumentTypeID, error) {
	key := foldLabel(label)
	if key == "" {
		return "", fmt.Errorf("document type label is empty")
	}
	if r.Known(domain.DocumentTypeID(key)) {
		return domain.DocumentTypeID(key), nil
	}
	if id, ok := r.aliases[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unregistered document type %q", label)
}

// IDs returns all registered ids in stable order.
func (r *Registry) IDs() []domain.DocumentTypeID {
	out := make([]domain.DocumentTypeID, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// foldLabel lowercases and collapses separators so that "Translator's
// Declaration" and "translator-declaration" resolve identically.
func foldLabel(label string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

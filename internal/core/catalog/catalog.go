// Package catalog loads and validates the versioned compilation rule
// catalog. A catalog is an immutable value passed into every operation;
// reloading means loading a new value, never mutating in place.
package catalog

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/core/registry"
)

type Catalog struct {
	version  *semver.Version
	registry *registry.Registry
	ruleSets map[string]domain.RuleSet
	defaults map[string]string
}

func (c *Catalog) Version() string { return c.version.String() }

func (c *Catalog) Registry() *registry.Registry { return c.registry }

// RuleSet returns the rule set for a (forum, profile) pair. An unknown pair
// is an input error: the profile selection is user-driven.
func (c *Catalog) RuleSet(forum, profile string) (domain.RuleSet, error) {
	rs, ok := c.ruleSets[forum+"/"+profile]
	if !ok {
		return domain.RuleSet{}, domain.WrapError(domain.ErrInvalidInput, "resolve rule set",
			fmt.Errorf("no rule set for forum %q profile %q", forum, profile))
	}
	return rs, nil
}

// DefaultProfile returns the default profile for a forum.
func (c *Catalog) DefaultProfile(forum string) (string, error) {
	profile, ok := c.defaults[forum]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve forum",
			fmt.Errorf("unknown forum %q", forum))
	}
	return profile, nil
}

// Forums lists the configured forums in stable order.
func (c *Catalog) Forums() []string {
	out := make([]string, 0, len(c.defaults))
	for forum := range c.defaults {
		out = append(out, forum)
	}
	sort.Strings(out)
	return out
}

package catalog

import (
	"fmt"
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/core/registry"
)

type fileCatalog struct {
	Version       string        `yaml:"version"`
	DocumentTypes []fileDocType `yaml:"document_types"`
	RuleSets      []fileRuleSet `yaml:"rule_sets"`
}

type fileDocType struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Aliases  []string `yaml:"aliases"`
	Keywords []string `yaml:"keywords"`
}

type fileRuleSet struct {
	Forum    string        `yaml:"forum"`
	Profile  string        `yaml:"profile"`
	Default  bool          `yaml:"default"`
	Deadline fileDeadline  `yaml:"deadline"`
	Sections []fileSection `yaml:"sections"`
	Rules    []fileRule    `yaml:"rules"`
}

type fileDeadline struct {
	Basis               string `yaml:"basis"`
	Days                int    `yaml:"days"`
	ApproachingLeadDays int    `yaml:"approaching_lead_days"`
	Citation            string `yaml:"citation"`
	CitationURL         string `yaml:"citation_url"`
}

type fileSection struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Instructions  string   `yaml:"instructions"`
	DocumentTypes []string `yaml:"document_types"`
}

type fileRule struct {
	ID            string       `yaml:"id"`
	Scope         string       `yaml:"scope"`
	DocumentTypes []string     `yaml:"document_types"`
	Trigger       *fileTrigger `yaml:"trigger"`
	OrderPriority int          `yaml:"order_priority"`
	Pagination    string       `yaml:"pagination"`
	Citation      string       `yaml:"citation"`
	CitationURL   string       `yaml:"citation_url"`
	Remediation   string       `yaml:"remediation"`
}

type fileTrigger struct {
	AnyPresent  []string `yaml:"any_present"`
	AllPresent  []string `yaml:"all_present"`
	NonePresent []string `yaml:"none_present"`
}

// Load reads and validates a catalog file, pinning its version against a
// semver constraint. Any authoring mistake is fatal: the engine refuses to
// serve a profile from a broken catalog.
func Load(path, versionConstraint string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "read catalog", err)
	}
	return Parse(raw, versionConstraint)
}

// Parse builds a Catalog from raw YAML.
func Parse(raw []byte, versionConstraint string) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "parse catalog", err)
	}

	version, err := semver.NewVersion(fc.Version)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "parse catalog version",
			fmt.Errorf("version %q: %w", fc.Version, err))
	}
	if versionConstraint != "" {
		constraint, err := semver.NewConstraint(versionConstraint)
		if err != nil {
			return nil, domain.WrapError(domain.ErrConfiguration, "parse version constraint", err)
		}
		if !constraint.Check(version) {
			return nil, domain.WrapError(domain.ErrConfiguration, "pin catalog version",
				fmt.Errorf("catalog version %s does not satisfy constraint %q", version, versionConstraint))
		}
	}

	entries := make([]registry.Entry, 0, len(fc.DocumentTypes))
	for _, dt := range fc.DocumentTypes {
		entries = append(entries, registry.Entry{
			ID:       domain.DocumentTypeID(dt.ID),
			Label:    dt.Label,
			Aliases:  dt.Aliases,
			Keywords: dt.Keywords,
		})
	}
	reg, err := registry.New(version.String(), entries)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "build type registry", err)
	}

	cat := &Catalog{
		version:  version,
		registry: reg,
		ruleSets: make(map[string]domain.RuleSet, len(fc.RuleSets)),
		defaults: make(map[string]string),
	}
	for _, frs := range fc.RuleSets {
		rs, err := buildRuleSet(frs, reg)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.ruleSets[rs.Key()]; dup {
			return nil, configErr("validate rule sets", "duplicate rule set %q", rs.Key())
		}
		cat.ruleSets[rs.Key()] = rs
		if rs.Default {
			if prev, dup := cat.defaults[rs.Forum]; dup {
				return nil, configErr("validate rule sets",
					"forum %q has two default profiles (%q, %q)", rs.Forum, prev, rs.Profile)
			}
			cat.defaults[rs.Forum] = rs.Profile
		}
	}
	if len(cat.ruleSets) == 0 {
		return nil, configErr("validate rule sets", "catalog defines no rule sets")
	}
	for key, rs := range cat.ruleSets {
		if _, ok := cat.defaults[rs.Forum]; !ok {
			return nil, configErr("validate rule sets", "forum of rule set %q has no default profile", key)
		}
	}
	return cat, nil
}

func buildRuleSet(frs fileRuleSet, reg *registry.Registry) (domain.RuleSet, error) {
	var zero domain.RuleSet
	if frs.Forum == "" || frs.Profile == "" {
		return zero, configErr("validate rule set", "rule set with empty forum or profile")
	}
	key := frs.Forum + "/" + frs.Profile

	deadline, err := buildDeadline(frs.Deadline, key)
	if err != nil {
		return zero, err
	}

	sections := make([]domain.SectionDefinition, 0, len(frs.Sections))
	sectionOwner := make(map[domain.DocumentTypeID]string)
	for _, fs := range frs.Sections {
		if fs.ID == "" || fs.Title == "" {
			return zero, configErr("validate sections", "%s: section with empty id or title", key)
		}
		types, err := resolveTypes(reg, fs.DocumentTypes, key, "section "+fs.ID)
		if err != nil {
			return zero, err
		}
		for _, dt := range types {
			if owner, dup := sectionOwner[dt]; dup {
				return zero, configErr("validate sections",
					"%s: document type %q mapped to sections %q and %q", key, dt, owner, fs.ID)
			}
			sectionOwner[dt] = fs.ID
		}
		sections = append(sections, domain.SectionDefinition{
			SectionID:     fs.ID,
			Title:         fs.Title,
			Instructions:  fs.Instructions,
			DocumentTypes: types,
		})
	}

	rules := make([]domain.CompilationRule, 0, len(frs.Rules))
	ruleTypes := make(map[domain.DocumentTypeID]bool)
	ruleIDs := make(map[string]bool)
	for _, fr := range frs.Rules {
		rule, err := buildRule(fr, reg, key)
		if err != nil {
			return zero, err
		}
		if ruleIDs[rule.RuleID] {
			return zero, configErr("validate rules", "%s: duplicate rule id %q", key, rule.RuleID)
		}
		ruleIDs[rule.RuleID] = true
		for _, dt := range rule.AppliesTo {
			ruleTypes[dt] = true
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return zero, configErr("validate rules", "%s: rule set defines no rules", key)
	}

	// Partition property: the sections must cover exactly the rule types.
	// A gap would silently drop a requirement from completeness tracking.
	for dt := range ruleTypes {
		if _, ok := sectionOwner[dt]; !ok {
			return zero, configErr("validate partition",
				"%s: rule document type %q is not mapped to any section", key, dt)
		}
	}
	for dt, section := range sectionOwner {
		if !ruleTypes[dt] {
			return zero, configErr("validate partition",
				"%s: section %q lists type %q that no rule references", key, section, dt)
		}
	}

	return domain.RuleSet{
		Forum:    frs.Forum,
		Profile:  frs.Profile,
		Default:  frs.Default,
		Deadline: deadline,
		Sections: sections,
		Rules:    rules,
	}, nil
}

func buildDeadline(fd fileDeadline, key string) (domain.DeadlineConfig, error) {
	var zero domain.DeadlineConfig
	basis := domain.DeadlineBasis(fd.Basis)
	switch basis {
	case domain.BasisDecision, domain.BasisHearing, domain.BasisService:
	default:
		return zero, configErr("validate deadline", "%s: unknown deadline basis %q", key, fd.Basis)
	}
	if fd.Days <= 0 {
		return zero, configErr("validate deadline", "%s: deadline days must be positive", key)
	}
	if fd.ApproachingLeadDays < 0 {
		return zero, configErr("validate deadline", "%s: approaching lead days must not be negative", key)
	}
	if fd.Citation == "" {
		return zero, configErr("validate deadline", "%s: deadline has no source citation", key)
	}
	return domain.DeadlineConfig{
		Basis:               basis,
		Days:                fd.Days,
		ApproachingLeadDays: fd.ApproachingLeadDays,
		Citation:            domain.SourceCitation{Reference: fd.Citation, URL: fd.CitationURL},
	}, nil
}

func buildRule(fr fileRule, reg *registry.Registry, key string) (domain.CompilationRule, error) {
	var zero domain.CompilationRule
	if fr.ID == "" {
		return zero, configErr("validate rules", "%s: rule with empty id", key)
	}
	scope := domain.RuleScope(fr.Scope)
	switch scope {
	case domain.ScopeRequired, domain.ScopeConditional:
	default:
		return zero, configErr("validate rules", "%s: rule %q has unknown scope %q", key, fr.ID, fr.Scope)
	}
	pagination := domain.PaginationPolicy(fr.Pagination)
	switch pagination {
	case domain.PaginationContinuous, domain.PaginationPerDocument:
	case "":
		pagination = domain.PaginationContinuous
	default:
		return zero, configErr("validate rules", "%s: rule %q has unknown pagination policy %q", key, fr.ID, fr.Pagination)
	}
	if fr.Citation == "" {
		return zero, configErr("validate rules", "%s: rule %q has no source citation", key, fr.ID)
	}
	types, err := resolveTypes(reg, fr.DocumentTypes, key, "rule "+fr.ID)
	if err != nil {
		return zero, err
	}
	if len(types) == 0 {
		return zero, configErr("validate rules", "%s: rule %q applies to no document types", key, fr.ID)
	}

	var trigger *domain.TriggerCondition
	switch {
	case scope == domain.ScopeConditional:
		if fr.Trigger == nil {
			return zero, configErr("validate rules", "%s: conditional rule %q has no trigger", key, fr.ID)
		}
		t, err := buildTrigger(*fr.Trigger, reg, key, fr.ID)
		if err != nil {
			return zero, err
		}
		trigger = &t
	case fr.Trigger != nil:
		return zero, configErr("validate rules", "%s: required rule %q must not carry a trigger", key, fr.ID)
	}

	return domain.CompilationRule{
		RuleID:        fr.ID,
		Scope:         scope,
		AppliesTo:     types,
		Trigger:       trigger,
		OrderPriority: fr.OrderPriority,
		Pagination:    pagination,
		Citation:      domain.SourceCitation{Reference: fr.Citation, URL: fr.CitationURL},
		Remediation:   fr.Remediation,
	}, nil
}

func buildTrigger(ft fileTrigger, reg *registry.Registry, key, ruleID string) (domain.TriggerCondition, error) {
	var zero domain.TriggerCondition
	any, err := resolveTypes(reg, ft.AnyPresent, key, "rule "+ruleID+" trigger")
	if err != nil {
		return zero, err
	}
	all, err := resolveTypes(reg, ft.AllPresent, key, "rule "+ruleID+" trigger")
	if err != nil {
		return zero, err
	}
	none, err := resolveTypes(reg, ft.NonePresent, key, "rule "+ruleID+" trigger")
	if err != nil {
		return zero, err
	}
	t := domain.TriggerCondition{AnyPresent: any, AllPresent: all, NonePresent: none}
	if t.Empty() {
		return zero, configErr("validate rules", "%s: rule %q trigger has no clauses", key, ruleID)
	}
	return t, nil
}

func resolveTypes(reg *registry.Registry, raw []string, key, where string) ([]domain.DocumentTypeID, error) {
	out := make([]domain.DocumentTypeID, 0, len(raw))
	seen := make(map[domain.DocumentTypeID]bool, len(raw))
	for _, label := range raw {
		id, err := reg.Normalize(label)
		if err != nil {
			return nil, configErr("resolve document types", "%s: %s: %v", key, where, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func configErr(op, format string, args ...any) error {
	return domain.WrapError(domain.ErrConfiguration, op, fmt.Errorf(format, args...))
}

// Lexicons exposes the per-type classifier keywords carried by the catalog.
func (c *Catalog) Lexicons() map[domain.DocumentTypeID][]string {
	out := make(map[domain.DocumentTypeID][]string)
	for _, id := range c.registry.IDs() {
		if e, ok := c.registry.Entry(id); ok && len(e.Keywords) > 0 {
			out[id] = e.Keywords
		}
	}
	return out
}

package schema

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// TagEntry is one tag's catalog record, spec §6's canonical tag catalog
// fields.
type TagEntry struct {
	Family       string   `yaml:"family"`
	Parent       string   `yaml:"parent,omitempty"`
	Children     []string `yaml:"children,omitempty"`
	Aliases      []string `yaml:"aliases,omitempty"`
	Deprecated   bool     `yaml:"deprecated,omitempty"`
	Detector     string   `yaml:"detector,omitempty"`
	SinceVersion string   `yaml:"since_version,omitempty"`
	Priority     int      `yaml:"priority,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Category     string   `yaml:"category,omitempty"`
}

// TagCatalog is the full canonical tag catalog: a schema version plus
// every known tag's entry, keyed by tag name.
type TagCatalog struct {
	SchemaVersion string              `yaml:"schema_version"`
	Tags          map[string]TagEntry `yaml:"tags"`
}

// LoadCatalog parses a YAML tag catalog from r.
func LoadCatalog(r io.Reader) (*TagCatalog, error) {
	var cat TagCatalog
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decoding tag catalog: %w", err)
	}
	if cat.Tags == nil {
		cat.Tags = map[string]TagEntry{}
	}
	return &cat, nil
}

// LintIssueKind classifies a catalog validation finding into the two
// families spec §6's exit-code scheme distinguishes: schema/tag-level
// problems (bit 1) and hierarchy problems (bit 2).
type LintIssueKind string

const (
	LintDuplicateAlias  LintIssueKind = "duplicate_alias"
	LintUnknownDetector LintIssueKind = "unknown_detector"
	LintOrphan          LintIssueKind = "orphan"
	LintCycle           LintIssueKind = "cycle"
)

// LintIssue is one validation finding against a TagCatalog.
type LintIssue struct {
	Kind   LintIssueKind
	Tag    string
	Detail string
}

// LintReport is the full set of issues a catalog lint pass found.
type LintReport struct {
	Issues []LintIssue
}

// ExitCode maps a LintReport onto spec §6's exact scheme: 0 ok; 1
// schema/tag-lint errors; 2 hierarchy errors; 3 both.
func (r LintReport) ExitCode() int {
	schemaErr := false
	hierarchyErr := false
	for _, iss := range r.Issues {
		switch iss.Kind {
		case LintDuplicateAlias, LintUnknownDetector:
			schemaErr = true
		case LintOrphan, LintCycle:
			hierarchyErr = true
		}
	}
	switch {
	case schemaErr && hierarchyErr:
		return 3
	case hierarchyErr:
		return 2
	case schemaErr:
		return 1
	default:
		return 0
	}
}

// LintCatalog runs the four checks spec §6 names: orphaned parents,
// parent cycles, duplicate aliases (across tags, or colliding with
// another tag's own name), and detector references outside
// knownDetectors. knownDetectors is the set of Go detector identifiers
// actually wired into the bank (see gate.Bank and the CoD/Control
// subtype names); an empty set skips the unknown-detector check.
func LintCatalog(cat *TagCatalog, knownDetectors map[string]bool) LintReport {
	var report LintReport

	report.Issues = append(report.Issues, lintOrphans(cat)...)
	report.Issues = append(report.Issues, lintCycles(cat)...)
	report.Issues = append(report.Issues, lintDuplicateAliases(cat)...)
	if len(knownDetectors) > 0 {
		report.Issues = append(report.Issues, lintUnknownDetectors(cat, knownDetectors)...)
	}
	return report
}

func lintOrphans(cat *TagCatalog) []LintIssue {
	var issues []LintIssue
	for _, name := range sortedNames(cat) {
		entry := cat.Tags[name]
		if entry.Parent == "" {
			continue
		}
		if _, ok := cat.Tags[entry.Parent]; !ok {
			issues = append(issues, LintIssue{
				Kind:   LintOrphan,
				Tag:    name,
				Detail: fmt.Sprintf("parent %q is not in the catalog", entry.Parent),
			})
		}
	}
	return issues
}

func lintCycles(cat *TagCatalog) []LintIssue {
	var issues []LintIssue
	state := map[string]int{} // 0 unvisited, 1 in-progress, 2 done
	var visit func(name string) bool
	visit = func(name string) bool {
		if state[name] == 2 {
			return false
		}
		if state[name] == 1 {
			return true
		}
		state[name] = 1
		entry, ok := cat.Tags[name]
		if ok && entry.Parent != "" {
			if _, parentExists := cat.Tags[entry.Parent]; parentExists {
				if visit(entry.Parent) {
					return true
				}
			}
		}
		state[name] = 2
		return false
	}
	for _, name := range sortedNames(cat) {
		if state[name] != 0 {
			continue
		}
		if visit(name) {
			issues = append(issues, LintIssue{
				Kind:   LintCycle,
				Tag:    name,
				Detail: "parent chain cycles back to an ancestor",
			})
		}
	}
	return issues
}

func lintDuplicateAliases(cat *TagCatalog) []LintIssue {
	var issues []LintIssue
	owner := map[string]string{}
	for _, name := range sortedNames(cat) {
		entry := cat.Tags[name]
		for _, alias := range entry.Aliases {
			if _, isTagName := cat.Tags[alias]; isTagName {
				issues = append(issues, LintIssue{
					Kind:   LintDuplicateAlias,
					Tag:    name,
					Detail: fmt.Sprintf("alias %q collides with an existing tag name", alias),
				})
				continue
			}
			if prior, taken := owner[alias]; taken && prior != name {
				issues = append(issues, LintIssue{
					Kind:   LintDuplicateAlias,
					Tag:    name,
					Detail: fmt.Sprintf("alias %q already claimed by %q", alias, prior),
				})
				continue
			}
			owner[alias] = name
		}
	}
	return issues
}

func lintUnknownDetectors(cat *TagCatalog, knownDetectors map[string]bool) []LintIssue {
	var issues []LintIssue
	for _, name := range sortedNames(cat) {
		entry := cat.Tags[name]
		if entry.Detector == "" || entry.Deprecated {
			continue
		}
		if !knownDetectors[entry.Detector] {
			issues = append(issues, LintIssue{
				Kind:   LintUnknownDetector,
				Tag:    name,
				Detail: fmt.Sprintf("detector %q is not wired into the bank", entry.Detector),
			})
		}
	}
	return issues
}

// sortedNames returns cat.Tags' keys sorted, so repeated lint runs over
// the same catalog always report issues in the same sequence (map
// iteration order isn't stable across runs).
func sortedNames(cat *TagCatalog) []string {
	names := make([]string, 0, len(cat.Tags))
	for name := range cat.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

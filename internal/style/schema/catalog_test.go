package schema

import (
	"strings"
	"testing"
)

func TestLoadDefaultCatalogParses(t *testing.T) {
	cat, err := LoadDefaultCatalog()
	if err != nil {
		t.Fatalf("LoadDefaultCatalog: %v", err)
	}
	if cat.SchemaVersion == "" {
		t.Error("expected a non-empty schema_version")
	}
	if len(cat.Tags) == 0 {
		t.Error("expected at least one tag entry")
	}
}

func TestDefaultCatalogLintsClean(t *testing.T) {
	cat, err := LoadDefaultCatalog()
	if err != nil {
		t.Fatalf("LoadDefaultCatalog: %v", err)
	}
	report := LintCatalog(cat, KnownDetectors())
	if len(report.Issues) != 0 {
		t.Errorf("expected the bundled catalog to lint clean, got %+v", report.Issues)
	}
	if code := report.ExitCode(); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestLintCatalogDetectsOrphan(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"child": {Family: "f", Parent: "missing_parent"},
	}}
	report := LintCatalog(cat, nil)
	if report.ExitCode() != 2 {
		t.Fatalf("expected exit code 2 for an orphan, got %d", report.ExitCode())
	}
	found := false
	for _, iss := range report.Issues {
		if iss.Kind == LintOrphan && iss.Tag == "child" {
			found = true
		}
	}
	if !found {
		t.Error("expected an orphan issue for child")
	}
}

func TestLintCatalogDetectsCycle(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"a": {Family: "f", Parent: "b"},
		"b": {Family: "f", Parent: "a"},
	}}
	report := LintCatalog(cat, nil)
	if report.ExitCode() != 2 {
		t.Fatalf("expected exit code 2 for a cycle, got %d", report.ExitCode())
	}
	hasCycle := false
	for _, iss := range report.Issues {
		if iss.Kind == LintCycle {
			hasCycle = true
		}
	}
	if !hasCycle {
		t.Error("expected a cycle issue")
	}
}

func TestLintCatalogDetectsDuplicateAlias(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"a": {Family: "f", Aliases: []string{"shared"}},
		"b": {Family: "f", Aliases: []string{"shared"}},
	}}
	report := LintCatalog(cat, nil)
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1 for a duplicate alias, got %d", report.ExitCode())
	}
}

func TestLintCatalogDetectsAliasCollidingWithTagName(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"a": {Family: "f"},
		"b": {Family: "f", Aliases: []string{"a"}},
	}}
	report := LintCatalog(cat, nil)
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", report.ExitCode())
	}
}

func TestLintCatalogDetectsUnknownDetector(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"a": {Family: "f", Detector: "NotARealDetector"},
	}}
	report := LintCatalog(cat, map[string]bool{"TensionCreation": true})
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1 for an unknown detector, got %d", report.ExitCode())
	}
}

func TestLintCatalogBothSchemaAndHierarchyErrors(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"a": {Family: "f", Parent: "missing", Detector: "Bogus"},
	}}
	report := LintCatalog(cat, map[string]bool{"TensionCreation": true})
	if report.ExitCode() != 3 {
		t.Fatalf("expected exit code 3 when both error families are present, got %d", report.ExitCode())
	}
}

func TestLintCatalogSkipsDeprecatedDetectorCheck(t *testing.T) {
	cat := &TagCatalog{Tags: map[string]TagEntry{
		"a": {Family: "f", Detector: "Bogus", Deprecated: true},
	}}
	report := LintCatalog(cat, map[string]bool{"TensionCreation": true})
	if report.ExitCode() != 0 {
		t.Errorf("expected a deprecated tag's detector to be skipped, got issues %+v", report.Issues)
	}
}

func TestLoadCatalogRejectsGarbage(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("not: [valid"))
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

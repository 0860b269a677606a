package schema

import (
	"bytes"
	_ "embed"

	"github.com/kestrelchess/styletagger/internal/style/config"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// LoadDefaultCatalog parses the tag catalog shipped with this module.
// It is always valid YAML and always passes LintCatalog against
// KnownDetectors; tests and the CLI linter both start from it.
func LoadDefaultCatalog() (*TagCatalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalogYAML))
}

// KnownDetectors is the set of detector identifiers the catalog's
// "detector" field may reference: every bare function in gate.Bank
// (named here rather than imported, since gate already imports this
// package) plus the parametrized "CoD:<subtype>"/"Control:<subtype>"
// pair for every registered CoD subtype.
func KnownDetectors() map[string]bool {
	known := map[string]bool{
		"TensionCreation":             true,
		"NeutralTensionCreation":      true,
		"ProphylacticMove":            true,
		"FailedProphylactic":          true,
		"StructuralIntegrity":         true,
		"StructuralCompromiseDynamic": true,
		"StructuralCompromiseStatic":  true,
		"StructuralBlockage":          true,
		"Maneuver":                    true,
		"Sacrifice":                   true,
		"OpeningCentralPawnMove":      true,
		"OpeningRookPawnMove":         true,
		"DeferredInitiative":          true,
	}
	for _, subtype := range config.CODSubtypes {
		known["CoD:"+subtype] = true
		known["Control:"+subtype] = true
	}
	return known
}

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ruleFile is the on-disk shape of a site-specific rule file. Sites with
// label formats the built-in catalog does not know can extend it without
// a rebuild.
type ruleFile struct {
	Rules []ruleEntry `json:"rules"`
}

type ruleEntry struct {
	Type        string `json:"type"`
	Pattern     string `json:"pattern"`
	Groups      []int  `json:"groups,omitempty"`
	Display     string `json:"display,omitempty"`
	Specificity int    `json:"specificity,omitempty"`
	Carrier     bool   `json:"carrier,omitempty"`
}

// ruleFileSchema constrains the rule file before we try to compile
// anything from it. A file that fails validation is a startup error,
// never silently ignored.
func ruleFileSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"rules"},
		"properties": map[string]any{
			"rules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"type", "pattern"},
					"properties": map[string]any{
						"type":        map[string]any{"type": "string", "minLength": 1},
						"pattern":     map[string]any{"type": "string", "minLength": 1},
						"groups":      map[string]any{"type": "array", "items": map[string]any{"type": "integer", "minimum": 1}},
						"display":     map[string]any{"type": "string"},
						"specificity": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
						"carrier":     map[string]any{"type": "boolean"},
					},
				},
			},
		},
	}
}

// LoadRuleFile reads, validates, and compiles extra rules from path.
func LoadRuleFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	if err := validateAgainstSchema(ruleFileSchema(), data); err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}

	var f ruleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for _, e := range f.Rules {
		re, err := regexp.Compile("(?i)" + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", e.Type, err)
		}
		rules = append(rules, Rule{
			Type:        e.Type,
			Pattern:     re,
			Groups:      e.Groups,
			Display:     e.Display,
			Specificity: e.Specificity,
			Carrier:     e.Carrier,
		})
	}
	return rules, nil
}

// validateAgainstSchema validates data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("rule file does not match schema: %w", err)
	}
	return nil
}

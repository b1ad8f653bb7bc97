package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loclocko/locomotive/pkg/models"
)

// ruleSpec is the raw shape of a rule entry in a rules file or the inline
// analysis.rules config list. Warn and fail stay untyped so that a
// non-numeric value can be reported as a configuration error instead of
// silently becoming zero.
type ruleSpec struct {
	Metric    string `yaml:"metric" json:"metric" mapstructure:"metric"`
	Mode      string `yaml:"mode" json:"mode" mapstructure:"mode"`
	Direction string `yaml:"direction" json:"direction" mapstructure:"direction"`
	Warn      any    `yaml:"warn" json:"warn" mapstructure:"warn"`
	Fail      any    `yaml:"fail" json:"fail" mapstructure:"fail"`
}

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules" json:"rules"`
}

// LoadRulesFile reads a YAML or JSON rules file (YAML being a superset,
// one parser covers both).
func LoadRulesFile(path string) ([]models.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return buildRules(file.Rules)
}

// LoadInlineRules converts the raw analysis.rules config entries.
func LoadInlineRules(entries []map[string]any) ([]models.Rule, error) {
	specs := make([]ruleSpec, 0, len(entries))
	for _, entry := range entries {
		specs = append(specs, ruleSpec{
			Metric:    stringValue(entry["metric"]),
			Mode:      stringValue(entry["mode"]),
			Direction: stringValue(entry["direction"]),
			Warn:      entry["warn"],
			Fail:      entry["fail"],
		})
	}
	return buildRules(specs)
}

func buildRules(specs []ruleSpec) ([]models.Rule, error) {
	rules := make([]models.Rule, 0, len(specs))
	for i, spec := range specs {
		warn := models.CoerceFloat(spec.Warn)
		if warn == nil {
			return nil, fmt.Errorf("rule %d (%s): warn must be a number, got %v", i, spec.Metric, spec.Warn)
		}
		fail := models.CoerceFloat(spec.Fail)
		if fail == nil {
			return nil, fmt.Errorf("rule %d (%s): fail must be a number, got %v", i, spec.Metric, spec.Fail)
		}
		rules = append(rules, models.Rule{
			Metric:    spec.Metric,
			Mode:      spec.Mode,
			Direction: spec.Direction,
			Warn:      *warn,
			Fail:      *fail,
		})
	}
	return rules, nil
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

package pricing

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRules reads recommendation rules from a YAML file. Keys missing
// from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, errors.Join(ErrLoadRules, err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules on top of DefaultRules.
func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, errors.Join(ErrLoadRules, err)
	}
	if rules.LargeFileThresholdMB < 0 {
		return Rules{}, errors.Join(ErrLoadRules, errors.New("large_file_threshold_mb must not be negative"))
	}
	return rules, nil
}

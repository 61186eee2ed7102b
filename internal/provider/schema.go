package provider

import (
	"fmt"
	"strconv"

	"github.com/orgkeys/orgkeys/internal/models"
)

// ValidationError reports a component configuration that failed
// structural or schema validation. The message is operator-facing and
// passed through to the API boundary verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Errorf builds a ValidationError from a format string.
func Errorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Option describes a single entry of a provider's config schema.
type Option struct {
	Name     string
	Required bool
	// MultiValued options accept more than one value; single-valued
	// options are truncated to their first value on normalization.
	MultiValued bool
	// Secret options are redacted in API representations.
	Secret bool
	// Default values applied when the option is omitted.
	Default []string
	// Validate checks the supplied values. Called only when the option
	// is present (or defaulted).
	Validate func(values []string) error
}

// Schema is the closed set of options a provider accepts. Unknown
// options are rejected.
type Schema []Option

// Apply validates config against the schema and returns a normalized
// copy: omitted optional options take their defaults, single-valued
// options keep only their first value. The input is not mutated.
func (s Schema) Apply(config models.ComponentConfig) (models.ComponentConfig, error) {
	byName := make(map[string]*Option, len(s))
	for i := range s {
		byName[s[i].Name] = &s[i]
	}

	for key := range config {
		if _, ok := byName[key]; !ok {
			return nil, Errorf("unknown config option %q", key)
		}
	}

	normalized := make(models.ComponentConfig, len(s))
	for i := range s {
		opt := &s[i]

		values, present := config[opt.Name]
		if !present || len(values) == 0 {
			if opt.Required {
				return nil, Errorf("config option %q is required", opt.Name)
			}
			if opt.Default != nil {
				values = opt.Default
			} else {
				continue
			}
		}

		if !opt.MultiValued && len(values) > 1 {
			values = values[:1]
		}

		if opt.Validate != nil {
			if err := opt.Validate(values); err != nil {
				return nil, Errorf("config option %q: %v", opt.Name, err)
			}
		}

		normalized[opt.Name] = append([]string(nil), values...)
	}

	return normalized, nil
}

// Option returns the schema entry with the given name, or nil.
func (s Schema) Option(name string) *Option {
	for i := range s {
		if s[i].Name == name {
			return &s[i]
		}
	}
	return nil
}

// OneOf returns an option validator accepting only the listed values.
func OneOf(allowed ...string) func(values []string) error {
	return func(values []string) error {
		for _, v := range values {
			ok := false
			for _, a := range allowed {
				if v == a {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("value %q is not one of %v", v, allowed)
			}
		}
		return nil
	}
}

// IsInt returns an option validator requiring integer values.
func IsInt() func(values []string) error {
	return func(values []string) error {
		for _, v := range values {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return fmt.Errorf("value %q is not an integer", v)
			}
		}
		return nil
	}
}

// IsBool returns an option validator requiring boolean values.
func IsBool() func(values []string) error {
	return func(values []string) error {
		for _, v := range values {
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("value %q is not a boolean", v)
			}
		}
		return nil
	}
}

package keys

import (
	"strconv"

	"github.com/orgkeys/orgkeys/internal/models"
)

// statusOf derives the key status from the enabled/active options.
// Missing options default to true, matching the provider schemas.
func statusOf(config models.ComponentConfig) KeyStatus {
	if !boolOption(config, OptionEnabled) {
		return StatusDisabled
	}
	if !boolOption(config, OptionActive) {
		return StatusPassive
	}
	return StatusActive
}

func boolOption(config models.ComponentConfig, name string) bool {
	raw := config.First(name)
	if raw == "" {
		return true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return value
}

func priorityOf(config models.ComponentConfig) int64 {
	priority, err := strconv.ParseInt(config.First(OptionPriority), 10, 64)
	if err != nil {
		return 0
	}
	return priority
}

func intOption(config models.ComponentConfig, name string, fallback int) int {
	value, err := strconv.Atoi(config.First(name))
	if err != nil {
		return fallback
	}
	return value
}

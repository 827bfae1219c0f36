package calculator

import "strconv"

// SystemConfigKey is the gateway system configuration key holding the
// calculator scales.
const SystemConfigKey = "org.efaps.pos.Calculator.Config"

// Config holds the decimal-place counts applied at each computation stage.
type Config struct {
	NetPriceScale   int32
	ItemTaxScale    int32
	CrossPriceScale int32
}

// DefaultConfig returns the stage scales used when no system configuration is
// available.
func DefaultConfig() Config {
	return Config{
		NetPriceScale:   4,
		ItemTaxScale:    4,
		CrossPriceScale: 4,
	}
}

// parseScale parses a scale value from the system config, falling back to the
// previous value when the field is missing or unparseable. It reports whether
// the raw value was present but invalid.
func parseScale(values map[string]string, key string, previous int32) (int32, bool) {
	raw, ok := values[key]
	if !ok || raw == "" {
		return previous, false
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return previous, true
	}
	return int32(parsed), false
}

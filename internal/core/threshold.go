package core

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// LoadThreshold reads the decision threshold from a {threshold: x} record
func LoadThreshold(path string) (float64, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return 0, fmt.Errorf("failed to read threshold %s: %w", path, err)
	}

	if !v.IsSet("threshold") {
		return 0, fmt.Errorf("%w: %s has no threshold field", ErrInvalidThreshold, path)
	}

	threshold, err := cast.ToFloat64E(v.Get("threshold"))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidThreshold, path, err)
	}
	if err := validateThreshold(threshold); err != nil {
		return 0, err
	}
	return threshold, nil
}

func validateThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("%w: %v is outside [0,1]", ErrInvalidThreshold, t)
	}
	return nil
}

package preprocess

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// ErrInvalidScaler is returned when scaler statistics cannot be used
var ErrInvalidScaler = errors.New("invalid scaler parameters")

// ScalerParams is the on-disk record of the standardization statistics
type ScalerParams struct {
	Mean  []float64 `mapstructure:"mean"`
	Scale []float64 `mapstructure:"scale"`
}

// Scaler standardizes feature vectors with fixed statistics
type Scaler struct {
	mean  FeatureVector
	scale FeatureVector
}

// NewScaler validates the statistics and builds a scaler
func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) != FeatureCount || len(scale) != FeatureCount {
		return nil, fmt.Errorf("%w: want %d means and scales, got %d and %d",
			ErrInvalidScaler, FeatureCount, len(mean), len(scale))
	}

	s := &Scaler{}
	for i := 0; i < FeatureCount; i++ {
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("%w: mean[%d] is not finite", ErrInvalidScaler, i)
		}
		if scale[i] == 0 || math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) {
			return nil, fmt.Errorf("%w: scale[%d] must be finite and non-zero, got %v", ErrInvalidScaler, i, scale[i])
		}
		s.mean[i] = mean[i]
		s.scale[i] = scale[i]
	}
	return s, nil
}

// LoadScaler reads a {mean, scale} record from a JSON or YAML file
func LoadScaler(path string) (*Scaler, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read scaler parameters %s: %w", path, err)
	}

	var params ScalerParams
	if err := v.Unmarshal(&params); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScaler, path, err)
	}

	return NewScaler(params.Mean, params.Scale)
}

// Transform applies (x - mean) / scale to every feature
func (s *Scaler) Transform(features FeatureVector) FeatureVector {
	var out FeatureVector
	for i := range features {
		out[i] = (features[i] - s.mean[i]) / s.scale[i]
	}
	return out
}

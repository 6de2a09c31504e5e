package health

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"
)

// Metric names, also used as recommendation keys.
const (
	MetricActivityRecency  = "activityRecency"
	MetricDiversification  = "diversification"
	MetricGasEfficiency    = "gasEfficiency"
	MetricSecurityHygiene  = "securityHygiene"
	MetricNetworkDiversity = "networkDiversity"
)

// weightSumTolerance allows for float noise in hand-edited config files.
const weightSumTolerance = 1e-9

// Weights is the fixed weight vector over the health metric set. It must
// sum to 1; a misconfigured vector is a fatal startup error, never a
// per-request one.
type Weights struct {
	ActivityRecency  float64 `yaml:"activity_recency"`
	Diversification  float64 `yaml:"diversification"`
	GasEfficiency    float64 `yaml:"gas_efficiency"`
	SecurityHygiene  float64 `yaml:"security_hygiene"`
	NetworkDiversity float64 `yaml:"network_diversity"`
}

// DefaultWeights returns the built-in weight vector.
func DefaultWeights() Weights {
	return Weights{
		ActivityRecency:  0.25,
		Diversification:  0.20,
		GasEfficiency:    0.15,
		SecurityHygiene:  0.25,
		NetworkDiversity: 0.15,
	}
}

// Validate checks that every weight is non-negative and the vector sums
// to 1 within tolerance.
func (w Weights) Validate() error {
	for name, v := range w.byName() {
		if v < 0 {
			return fmt.Errorf("health weight %s is negative: %v", name, v)
		}
	}
	sum := w.ActivityRecency + w.Diversification + w.GasEfficiency +
		w.SecurityHygiene + w.NetworkDiversity
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("health weights must sum to 1.0, got %v", sum)
	}
	return nil
}

func (w Weights) byName() map[string]float64 {
	return map[string]float64{
		MetricActivityRecency:  w.ActivityRecency,
		MetricDiversification:  w.Diversification,
		MetricGasEfficiency:    w.GasEfficiency,
		MetricSecurityHygiene:  w.SecurityHygiene,
		MetricNetworkDiversity: w.NetworkDiversity,
	}
}

// LoadWeights reads and validates a weight vector from a YAML file.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read health weights %s: %w", path, err)
	}
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse health weights %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

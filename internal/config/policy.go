package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// IntakePolicy is the optional collection policy file (TOML, YAML or JSON,
// picked by extension). Empty sections keep the built-in defaults.
type IntakePolicy struct {
	Species             []string    `mapstructure:"species"`
	Fence               FenceConfig `mapstructure:"geo_fence"`
	AllowTestCoordinate *bool       `mapstructure:"allow_test_coordinate"`
}

type FenceConfig struct {
	MinLat float64 `mapstructure:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLon float64 `mapstructure:"max_lon"`
}

func (f FenceConfig) IsZero() bool {
	return f == FenceConfig{}
}

// LoadIntakePolicy reads and checks the policy file at path.
func LoadIntakePolicy(path string) (*IntakePolicy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read intake policy %s: %w", path, err)
	}

	var policy IntakePolicy
	if err := v.Unmarshal(&policy); err != nil {
		return nil, fmt.Errorf("decode intake policy %s: %w", path, err)
	}
	if err := policy.validate(); err != nil {
		return nil, fmt.Errorf("intake policy %s: %w", path, err)
	}
	return &policy, nil
}

func (p *IntakePolicy) validate() error {
	for i, species := range p.Species {
		if strings.TrimSpace(species) == "" {
			return fmt.Errorf("species[%d] is empty", i)
		}
	}
	if p.Fence.IsZero() {
		return nil
	}
	if p.Fence.MinLat > p.Fence.MaxLat || p.Fence.MinLon > p.Fence.MaxLon {
		return fmt.Errorf("geo_fence minimum exceeds maximum")
	}
	if p.Fence.MinLat < -90 || p.Fence.MaxLat > 90 || p.Fence.MinLon < -180 || p.Fence.MaxLon > 180 {
		return fmt.Errorf("geo_fence out of range")
	}
	return nil
}

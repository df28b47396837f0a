package pconic

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigEnv is the environment variable holding the directory of conf.toml.
	ConfigEnv = "PCONIC_CONFIG"
	envPrefix = "PCONIC"
)

// Config defines the tunable constants of the simulation.
type Config struct {
	Physics    PhysicsConfig    `mapstructure:"physics"`
	Prediction PredictionConfig `mapstructure:"prediction"`
}

// PhysicsConfig holds the gravity settings.
type PhysicsConfig struct {
	GravitationalConstant    float64 `mapstructure:"gravitational_constant"`
	SOIMultiplier            float64 `mapstructure:"soi_multiplier"`
	ParentGravityAttenuation float64 `mapstructure:"parent_gravity_attenuation"`
	GravityMode              string  `mapstructure:"gravity_mode"`
}

// PredictionConfig holds the trajectory prediction settings.
type PredictionConfig struct {
	MaxTime  float64 `mapstructure:"max_time"`
	Points   int     `mapstructure:"points"`
	Interval float64 `mapstructure:"interval"` // simulated time between two throttled predictions
	Method   string  `mapstructure:"method"`
}

var defaults = map[string]interface{}{
	"physics.gravitational_constant":     DefaultGravitationalConstant,
	"physics.soi_multiplier":             DefaultSOIMultiplier,
	"physics.parent_gravity_attenuation": 0.05,
	"physics.gravity_mode":               PatchedConicsMode.String(),
	"prediction.max_time":                30.0,
	"prediction.points":                  300,
	"prediction.interval":                0.5,
	"prediction.method":                  EulerMethod.String(),
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	conf, err := FromViper(NewViper())
	if err != nil {
		panic(fmt.Errorf("default configuration is invalid: %s", err))
	}
	return conf
}

// NewViper returns a viper instance with all defaults set and PCONIC_* environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper reads and validates the configuration from the provided viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return conf, fmt.Errorf("could not decode configuration: %w", err)
	}
	return conf, conf.Validate()
}

// LoadConfig reads the configuration from the provided file.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return FromViper(v)
}

// ConfigFromEnv reads $PCONIC_CONFIG/conf.toml.
func ConfigFromEnv() (Config, error) {
	confPath := os.Getenv(ConfigEnv)
	if confPath == "" {
		return Config{}, fmt.Errorf("environment variable `%s` is missing or empty", ConfigEnv)
	}
	v := NewViper()
	v.SetConfigName("conf")
	v.SetConfigType("toml")
	v.AddConfigPath(confPath)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/conf.toml not found: %w", confPath, err)
	}
	return FromViper(v)
}

// Validate returns an error if any setting is unusable.
func (c Config) Validate() error {
	if c.Physics.GravitationalConstant <= 0 {
		return errors.New("gravitational constant must be positive")
	}
	if c.Physics.SOIMultiplier <= 0 {
		return errors.New("SOI multiplier must be positive")
	}
	if c.Physics.ParentGravityAttenuation < 0 {
		return errors.New("parent gravity attenuation cannot be negative")
	}
	if _, err := GravityModeFromString(c.Physics.GravityMode); err != nil {
		return err
	}
	if c.Prediction.MaxTime <= 0 || c.Prediction.Points <= 0 {
		return errors.New("prediction time and points must be positive")
	}
	if c.Prediction.Interval < 0 {
		return errors.New("prediction interval cannot be negative")
	}
	if _, err := IntegrationMethodFromString(c.Prediction.Method); err != nil {
		return err
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"energy_simulator/internal/util"
)

// EnvPrefix is prepended to environment variables overriding config keys.
const EnvPrefix = "ENERGYSIM"

// Config is the complete application configuration.
type Config struct {
	Interval  time.Duration `mapstructure:"interval"`
	Seed      uint64        `mapstructure:"seed"`
	Location  Location      `mapstructure:"location"`
	Log       Log           `mapstructure:"log"`
	HTTP      HTTP          `mapstructure:"http"`
	Discovery Discovery     `mapstructure:"discovery"`
	MQTT      MQTT          `mapstructure:"mqtt"`
	Influx    Influx        `mapstructure:"influx"`
	Devices   []Device      `mapstructure:"devices"`
}

// Location is the household position used for the sun calculation.
type Location struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Timezone  string  `mapstructure:"timezone"`
}

// TimeLocation resolves Timezone. Empty and "Local" select the system zone.
func (l Location) TimeLocation() (*time.Location, error) {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(l.Timezone)
}

type Log struct {
	Level  string            `mapstructure:"level"`
	Levels map[string]string `mapstructure:"levels"`
}

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Discovery struct {
	ResultCount int `mapstructure:"resultCount"`
}

type MQTT struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"clientID"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type Influx struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("interval", "5s")
	v.SetDefault("seed", 0)
	v.SetDefault("location.latitude", 48.0)
	v.SetDefault("location.longitude", 10.0)
	v.SetDefault("location.timezone", "Local")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("discovery.resultCount", 2)
	v.SetDefault("mqtt.topic", "energysim")
	v.SetDefault("mqtt.clientID", "energysim")
}

// New creates a viper instance with defaults and environment overrides. When
// file is empty, energysim.yaml is searched in the working directory and
// a missing file is not an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("energysim")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values the decoder cannot.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive: %v", c.Interval)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %g", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %g", c.Location.Longitude)
	}
	if _, err := c.Location.TimeLocation(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if c.Discovery.ResultCount < 0 {
		return fmt.Errorf("discovery result count must not be negative: %d", c.Discovery.ResultCount)
	}

	levels := []string{c.Log.Level}
	for _, l := range c.Log.Levels {
		levels = append(levels, l)
	}
	for _, l := range levels {
		if err := validLevel(l); err != nil {
			return err
		}
	}

	return nil
}

func validLevel(level string) (err error) {
	defer func() {
		if recover() != nil {
			err = fmt.Errorf("invalid log level %q", level)
		}
	}()
	util.LogLevelToThreshold(level)
	return nil
}

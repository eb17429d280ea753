package readiness

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultTopic is the probe topic created by AwaitExpectedBrokerCountViaTopic
const DefaultTopic = "__xwait_consistency_test"

// Config holds the parameters of a readiness probe
type Config struct {
	Bootstrap       string        `mapstructure:"bootstrap-servers"`
	ExpectedBrokers int           `mapstructure:"expected"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PollInterval    time.Duration `mapstructure:"interval"`
	MetadataTimeout time.Duration `mapstructure:"metadata-timeout"`
	Topic           string        `mapstructure:"topic"`
}

// SetDefaults registers the default values of every Config key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("expected", 1)
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("interval", 500*time.Millisecond)
	v.SetDefault("metadata-timeout", 10*time.Second)
	v.SetDefault("topic", DefaultTopic)
}

// LoadConfig decodes and validates a Config from v
func LoadConfig(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the Config can drive a probe
func (c Config) Validate() error {
	switch {
	case len(SplitBootstrap(c.Bootstrap)) == 0:
		return fmt.Errorf("%w: no bootstrap servers", ErrInvalidConfig)
	case c.ExpectedBrokers < 1:
		return fmt.Errorf("%w: expected broker count must be at least 1, got %d", ErrInvalidConfig, c.ExpectedBrokers)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	return nil
}

func (c Config) metadataTimeout() time.Duration {
	if c.MetadataTimeout <= 0 {
		return c.Timeout
	}
	return c.MetadataTimeout
}

func (c Config) topic() string {
	if c.Topic == "" {
		return DefaultTopic
	}
	return c.Topic
}

// SplitBootstrap converts a comma-separated address list into its trimmed,
// non-empty entries.
func SplitBootstrap(bootstrap string) []string {
	parts := strings.Split(bootstrap, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

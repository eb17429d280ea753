package readiness

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("bootstrap-servers", "a:9092,b:9092")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Config{
		Bootstrap:       "a:9092,b:9092",
		ExpectedBrokers: 1,
		Timeout:         60 * time.Second,
		PollInterval:    500 * time.Millisecond,
		MetadataTimeout: 10 * time.Second,
		Topic:           DefaultTopic,
	}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfig_ParsesDurationStrings(t *testing.T) {
	v := viper.New()
	v.Set("bootstrap-servers", "a:9092")
	v.Set("expected", "3")
	v.Set("timeout", "2m")
	v.Set("interval", "1s")
	v.Set("metadata-timeout", "250ms")
	v.Set("topic", "readiness")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExpectedBrokers != 3 {
		t.Errorf("expected = %d, want 3", cfg.ExpectedBrokers)
	}
	if cfg.Timeout != 2*time.Minute || cfg.PollInterval != time.Second || cfg.MetadataTimeout != 250*time.Millisecond {
		t.Errorf("durations = %s/%s/%s", cfg.Timeout, cfg.PollInterval, cfg.MetadataTimeout)
	}
	if cfg.Topic != "readiness" {
		t.Errorf("topic = %q, want %q", cfg.Topic, "readiness")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"no bootstrap":      {"bootstrap-servers": " , "},
		"zero brokers":      {"bootstrap-servers": "a:9092", "expected": 0},
		"negative timeout":  {"bootstrap-servers": "a:9092", "timeout": "-1s"},
		"zero interval":     {"bootstrap-servers": "a:9092", "interval": "0s"},
		"unparsable number": {"bootstrap-servers": "a:9092", "expected": "three"},
	}
	for name, settings := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range settings {
				v.Set(k, val)
			}
			if _, err := LoadConfig(v); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSplitBootstrap(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a:9092", []string{"a:9092"}},
		{" a:9092 , b:9092 ", []string{"a:9092", "b:9092"}},
		{",,a:9092, ,b:9092,", []string{"a:9092", "b:9092"}},
	}
	for _, c := range cases {
		if got := SplitBootstrap(c.in); !slices.Equal(got, c.want) {
			t.Errorf("SplitBootstrap(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestConfig_MetadataTimeoutFallsBackToTimeout(t *testing.T) {
	cfg := Config{Timeout: 3 * time.Second}
	if got := cfg.metadataTimeout(); got != 3*time.Second {
		t.Errorf("metadataTimeout() = %s, want 3s", got)
	}
}

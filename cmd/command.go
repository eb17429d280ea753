package cmd

import (
	"fmt"
	"strings"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/readiness"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFlag is the persistent flag naming an optional config file
const ConfigFlag = "config"

const envPrefix = "XWAIT"

// ClusterTarget resolves the bootstrap endpoints and the admin factory from
// the current command context. It is called when the command runs, after the
// connection flags have been parsed.
type ClusterTarget func() (bootstrap string, factory backends.AdminFactory, err error)

// newSettings layers the command's flags over XWAIT_* environment variables,
// the optional config file and the readiness defaults.
func newSettings(c *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	readiness.SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(c.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if path, _ := c.Flags().GetString(ConfigFlag); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	return v, nil
}

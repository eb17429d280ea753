package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/log"
	"github.com/makibytes/xwait/readiness"
	"github.com/spf13/cobra"
)

type awaitFunc func(context.Context, readiness.Config, backends.AdminFactory) error

func NewAwaitCommand(target ClusterTarget) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "await",
		Short: "Wait until the cluster shows the expected number of brokers",
		Long: `Wait until the cluster shows the expected number of brokers.

By default every broker reachable from the bootstrap servers must report the
expected cluster size. With --via-topic a probe topic replicated to every
broker is created instead and deleted once its replicas are in place.

Settings resolve from flags, XWAIT_* environment variables (XWAIT_EXPECTED,
XWAIT_METADATA_TIMEOUT, ...), the --config file and the defaults, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			bootstrap, factory, err := target()
			if err != nil {
				return err
			}

			v, err := newSettings(c)
			if err != nil {
				return err
			}
			v.Set("bootstrap-servers", bootstrap)

			cfg, err := readiness.LoadConfig(v)
			if err != nil {
				return err
			}

			var await awaitFunc = readiness.AwaitExpectedBrokerCount
			if v.GetBool("via-topic") {
				await = readiness.AwaitExpectedBrokerCountViaTopic
				log.Verbose("awaiting %d broker(s) via topic %s", cfg.ExpectedBrokers, cfg.Topic)
			} else {
				log.Verbose("awaiting %d broker(s) from %s", cfg.ExpectedBrokers, cfg.Bootstrap)
			}

			if err := await(c.Context(), cfg, factory); err != nil {
				return err
			}

			fmt.Fprintf(c.OutOrStdout(), "cluster ready: %d broker(s)\n", cfg.ExpectedBrokers)
			return nil
		},
	}

	cmd.Flags().IntP("expected", "n", 1, "Number of brokers the cluster must show")
	cmd.Flags().DurationP("timeout", "t", 60*time.Second, "Overall time limit per check")
	cmd.Flags().Duration("interval", 500*time.Millisecond, "Delay between attempts")
	cmd.Flags().Duration("metadata-timeout", 10*time.Second, "Time limit of a single cluster query")
	cmd.Flags().Bool("via-topic", false, "Check replica placement of a probe topic instead of cluster metadata")
	cmd.Flags().String("topic", readiness.DefaultTopic, "Name of the probe topic (with --via-topic)")

	return cmd
}

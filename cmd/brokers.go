package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/makibytes/xwait/log"
	"github.com/spf13/cobra"
)

func NewBrokersCommand(target ClusterTarget) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "brokers",
		Short: "List the brokers seen through the bootstrap servers",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			bootstrap, factory, err := target()
			if err != nil {
				return err
			}

			admin, err := factory(bootstrap)
			if err != nil {
				return err
			}
			defer admin.Close()

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			desc, err := admin.DescribeCluster(ctx)
			if err != nil {
				return fmt.Errorf("describing cluster via %s: %w", bootstrap, err)
			}

			out := c.OutOrStdout()
			for _, n := range desc.Nodes {
				if n.IsEmpty() {
					log.Verbose("skipping node %q without address", n.ID)
					continue
				}
				marker := ""
				if n.ID == desc.ControllerID {
					marker = "  (controller)"
				}
				fmt.Fprintf(out, "%-24s  %s%s\n", n.ID, n.Addr(), marker)
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Time limit of the cluster query")

	return cmd
}

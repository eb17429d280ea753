package broker

import (
	"github.com/makibytes/xwait/cmd"
	"github.com/makibytes/xwait/log"
	"github.com/spf13/cobra"
)

// GetRootCommand returns the xwait root command with one subcommand per
// supported broker
func GetRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xwait",
		Short: "Broker cluster readiness check",
		Long:  "Waits until a Kafka or NATS cluster shows the expected number of ready brokers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				log.IsVerbose = true
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print verbose output")
	rootCmd.PersistentFlags().String(cmd.ConfigFlag, "", "Config file with readiness settings (yaml, json or toml)")

	rootCmd.AddCommand(newKafkaCommand())
	rootCmd.AddCommand(newNATSCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())

	return rootCmd
}

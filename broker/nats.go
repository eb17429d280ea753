package broker

import (
	"os"
	"time"

	"github.com/makibytes/xwait/broker/backends"
	natspkg "github.com/makibytes/xwait/broker/nats"
	"github.com/makibytes/xwait/cmd"
	"github.com/spf13/cobra"
)

func newNATSCommand() *cobra.Command {
	natsCmd := &cobra.Command{
		Use:   "nats",
		Short: "NATS cluster checks",
		Long: `NATS cluster checks.

Brokers are the servers a client learns about from the connected server, so
every server must advertise the client address the probe can dial. The
--via-topic check creates a replicated JetStream stream and needs JetStream
enabled on every server.`,
	}

	defaultServer := os.Getenv("XWAIT_NATS_SERVER")
	if defaultServer == "" {
		defaultServer = "nats://localhost:4222"
	}
	defaultUser := os.Getenv("XWAIT_NATS_USER")
	defaultPassword := os.Getenv("XWAIT_NATS_PASSWORD")

	var connArgs natspkg.ConnArguments

	natsCmd.PersistentFlags().StringVarP(&connArgs.Server, "server", "s", defaultServer, "Server URL (nats://host1:4222 or nats://host1:4222,nats://host2:4222)")
	natsCmd.PersistentFlags().StringVarP(&connArgs.User, "user", "u", defaultUser, "Username for authentication")
	natsCmd.PersistentFlags().StringVarP(&connArgs.Password, "password", "p", defaultPassword, "Password for authentication")
	natsCmd.PersistentFlags().DurationVar(&connArgs.Timeout, "dial-timeout", 5*time.Second, "Connection timeout per server")

	// TLS flags
	natsCmd.PersistentFlags().BoolVar(&connArgs.TLS.Enabled, "tls", false, "Enable TLS connection")
	natsCmd.PersistentFlags().StringVar(&connArgs.TLS.CACert, "ca-cert", "", "Path to CA certificate file")
	natsCmd.PersistentFlags().StringVar(&connArgs.TLS.ClientCert, "cert", "", "Path to client certificate file")
	natsCmd.PersistentFlags().StringVar(&connArgs.TLS.ClientKey, "key-file", "", "Path to client private key file")
	natsCmd.PersistentFlags().BoolVar(&connArgs.TLS.Insecure, "insecure", false, "Skip TLS certificate verification")

	target := cmd.ClusterTarget(func() (string, backends.AdminFactory, error) {
		bootstrap, err := natspkg.Bootstrap(connArgs)
		if err != nil {
			return "", nil, err
		}
		return bootstrap, natspkg.AdminFactory(connArgs), nil
	})
	natsCmd.AddCommand(cmd.NewAwaitCommand(target))
	natsCmd.AddCommand(cmd.NewBrokersCommand(target))

	return natsCmd
}

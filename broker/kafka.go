package broker

import (
	"os"
	"time"

	"github.com/makibytes/xwait/broker/backends"
	"github.com/makibytes/xwait/broker/kafka"
	"github.com/makibytes/xwait/cmd"
	"github.com/spf13/cobra"
)

func newKafkaCommand() *cobra.Command {
	kafkaCmd := &cobra.Command{
		Use:   "kafka",
		Short: "Apache Kafka cluster checks",
	}

	// Connection flags
	var defaultServer = os.Getenv("XWAIT_KAFKA_SERVER")
	if defaultServer == "" {
		defaultServer = "kafka://localhost:9092"
	}
	var defaultUser = os.Getenv("XWAIT_KAFKA_USER")
	var defaultPassword = os.Getenv("XWAIT_KAFKA_PASSWORD")

	var connArgs kafka.ConnArguments

	kafkaCmd.PersistentFlags().StringVarP(&connArgs.Server, "server", "s", defaultServer, "Bootstrap servers (kafka://broker1:9092 or kafka://broker1:9092,broker2:9092)")
	kafkaCmd.PersistentFlags().StringVarP(&connArgs.User, "user", "u", defaultUser, "Username for SASL authentication")
	kafkaCmd.PersistentFlags().StringVarP(&connArgs.Password, "password", "p", defaultPassword, "Password for SASL authentication")
	kafkaCmd.PersistentFlags().DurationVar(&connArgs.Timeout, "dial-timeout", 5*time.Second, "Connection timeout per broker")

	// TLS flags
	kafkaCmd.PersistentFlags().BoolVar(&connArgs.TLS.Enabled, "tls", false, "Enable TLS connection")
	kafkaCmd.PersistentFlags().StringVar(&connArgs.TLS.CACert, "ca-cert", "", "Path to CA certificate file")
	kafkaCmd.PersistentFlags().StringVar(&connArgs.TLS.ClientCert, "cert", "", "Path to client certificate file")
	kafkaCmd.PersistentFlags().StringVar(&connArgs.TLS.ClientKey, "key-file", "", "Path to client private key file")
	kafkaCmd.PersistentFlags().BoolVar(&connArgs.TLS.Insecure, "insecure", false, "Skip TLS certificate verification")

	target := cmd.ClusterTarget(func() (string, backends.AdminFactory, error) {
		bootstrap, err := kafka.Bootstrap(connArgs)
		if err != nil {
			return "", nil, err
		}
		return bootstrap, kafka.AdminFactory(connArgs), nil
	})
	kafkaCmd.AddCommand(cmd.NewAwaitCommand(target))
	kafkaCmd.AddCommand(cmd.NewBrokersCommand(target))

	return kafkaCmd
}

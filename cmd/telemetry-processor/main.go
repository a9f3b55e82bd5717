// Command telemetry-processor ingests ROV telemetry snapshots, smooths and
// aggregates them, and republishes the result to a message broker.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/hydrobotics/rov-relay/internal/config"
	"github.com/hydrobotics/rov-relay/internal/hooks"
	"github.com/hydrobotics/rov-relay/internal/logger"
	"github.com/hydrobotics/rov-relay/internal/telemetry/receiver"
	"github.com/hydrobotics/rov-relay/internal/telemetry/schema"
	"github.com/hydrobotics/rov-relay/internal/telemetry/service"
)

var (
	configPath     string
	logLevel       string
	hookFormat     string
	connectTimeout time.Duration
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry-processor",
		Short: "Smooth, aggregate, and republish ROV telemetry",
		RunE:  runProcessor,
	}

	cmd.Flags().StringVar(&configPath, "config", "telemetry_config.json", "path to the telemetry configuration file")
	cmd.Flags().StringVar(&logLevel, "log.level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().DurationVar(&connectTimeout, "broker-connect-timeout", 10*time.Second, "time allowed for the initial broker connect")
	cmd.Flags().StringVar(&hookFormat, "hooks.stdio-format", "", "emit telemetry publish lifecycle events to stderr as \"json\" or \"env\" lines")

	return cmd
}

func runProcessor(cmd *cobra.Command, _ []string) error {
	logger.Init()
	if err := logger.SetLevel(logLevel); err != nil {
		fmt.Printf("warning: invalid log level %q, using default\n", logLevel)
	}
	log := logger.Logger().With("component", "telemetry-processor")

	telCfg, err := config.LoadTelemetryConfig(configPath)
	if err != nil {
		log.Error("failed to load telemetry config", "error", err)
		return err
	}

	creds, err := config.LoadBrokerCredentials()
	if err != nil {
		log.Error("failed to load broker credentials", "error", err)
		return err
	}

	registry, err := schema.Load(telCfg.SchemaDir)
	if err != nil {
		log.Error("failed to load schema registry", "error", err)
		return err
	}

	outputSchema, err := registry.Get(telCfg.PublishTopic)
	if err != nil {
		log.Error("no schema registered for publish topic", "topic", telCfg.PublishTopic, "error", err)
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(creds.URL).
		SetClientID("telemetry-processor").
		SetUsername(creds.Username).
		SetPassword(creds.Password).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)

	receiverAddr := net.JoinHostPort(telCfg.ReceiverHost, fmt.Sprintf("%d", telCfg.ReceiverPort))
	dial := func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", receiverAddr)
	}

	hookCfg := hooks.DefaultConfig()
	hookCfg.StdioFormat = hookFormat
	hm := hooks.NewManager(hookCfg, log)
	defer hm.Close()

	svc := service.New(service.Config{
		Dial:               receiver.Dialer(dial),
		OutputSchema:       outputSchema,
		KalmanTunings:      telCfg.KalmanTunings(),
		HighFrequency:      telCfg.HighFrequencySet(),
		AggregatorWindowMS: telCfg.AggregatorWindowMS,
		PublishTopic:       telCfg.PublishTopic,
		BrokerClient:       client,
		Log:                log,
		Hooks:              hm,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("telemetry processor started", "receiver_addr", receiverAddr, "topic", telCfg.PublishTopic)

	if err := svc.Run(ctx, connectTimeout); err != nil {
		log.Error("telemetry processor exited with error", "error", err)
		return err
	}

	log.Info("telemetry processor stopped cleanly", "publish_count", svc.PublishCount())
	return nil
}

// strap-simulator 通过 MQTT 发布合成的 ECG/IMU 数据，按静息、跑步、恢复剧本驱动整条监测链路
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/common/config"
	"wisefido-cardiac/internal/common/logger"
	mqttcommon "wisefido-cardiac/internal/common/mqtt"
	"wisefido-cardiac/internal/simulator"
)

var version = "dev"

type options struct {
	broker   string
	devices  []string
	rest     time.Duration
	run      time.Duration
	recovery time.Duration
	speed    float64
	noise    float64
	qos      int
	logLevel string
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "strap-simulator",
		Short: "Publish synthetic ECG and IMU strap data over MQTT",
		Long: `strap-simulator publishes a 100 Hz ECG (P-QRS-T gaussians) and 50 Hz
accelerometer stream to strap/{device_id}/{kind} following a rest, run,
recovery script, then reports the strap as disconnected.

Timestamps follow the script clock; with --speed above 1 the service's
cooldown timer still runs on wall time.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.broker, "broker", envOr("MQTT_BROKER", "tcp://localhost:1883"), "MQTT broker URL")
	flags.StringSliceVar(&opts.devices, "device", []string{"sim-01"}, "strap device id (repeatable)")
	flags.DurationVar(&opts.rest, "rest", time.Minute, "rest phase duration")
	flags.DurationVar(&opts.run, "run", 2*time.Minute, "run phase duration")
	flags.DurationVar(&opts.recovery, "recovery", 3*time.Minute, "recovery phase duration")
	flags.Float64Var(&opts.speed, "speed", 1, "playback speed multiplier")
	flags.Float64Var(&opts.noise, "noise", 0.01, "ECG noise amplitude (mV)")
	flags.IntVar(&opts.qos, "qos", 0, "MQTT QoS")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, cmd); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	log, err := logger.NewLogger(opts.logLevel, "console", "strap-simulator")
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	client, err := mqttcommon.NewClient(&config.MQTTConfig{
		Broker:   opts.broker,
		ClientID: fmt.Sprintf("strap-simulator-%d", os.Getpid()),
	}, log)
	if err != nil {
		return err
	}
	defer client.Disconnect()

	profile := simulator.RestRunRest(opts.rest, opts.run, opts.recovery)
	log.Info("Simulator started",
		zap.Strings("devices", opts.devices),
		zap.Duration("script", profile.Total()),
		zap.Float64("speed", opts.speed),
	)

	var wg sync.WaitGroup
	errs := make(chan error, len(opts.devices))
	for _, deviceID := range opts.devices {
		cfg := simulator.DefaultStrapConfig(deviceID)
		cfg.Speed = opts.speed
		cfg.Noise = opts.noise
		cfg.QoS = byte(opts.qos)
		strap := simulator.NewStrap(cfg, profile, client, log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := strap.Run(ctx); err != nil {
				errs <- fmt.Errorf("strap %s: %w", deviceID, err)
			}
		}()
	}
	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return err
	}
	log.Info("Simulator finished")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// wisefido-cardiac-report 读取结果流，导出单个设备的心率决策和节律分析时间线
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/common/database"
	"wisefido-cardiac/internal/common/logger"
	rediscommon "wisefido-cardiac/internal/common/redis"
	"wisefido-cardiac/internal/config"
	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/report"
	"wisefido-cardiac/internal/repository"
)

var version = "dev"

type options struct {
	deviceID   string
	out        string
	group      string
	timezone   string
	withAlarms bool
	alarmLimit int
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "wisefido-cardiac-report",
		Short: "Export a device's cardiac result timeline to xlsx",
		Long: `wisefido-cardiac-report reads the result stream through a consumer
group and writes a workbook with Decisions and Analyses sheets for one
device. Each consumer group only sees messages it has not read before;
pass a new --group to export the full history again.

Connection settings come from the same environment as the service
(REDIS_ADDR, DB_HOST, CARDIAC_RESULT_STREAM, ...).`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.deviceID, "device", "", "strap device id")
	flags.StringVar(&opts.out, "out", "", "output file (default <device>.xlsx)")
	flags.StringVar(&opts.group, "group", "", "consumer group (default cardiac-report:<device>)")
	flags.StringVar(&opts.timezone, "tz", "UTC", "timezone for timestamps")
	flags.BoolVar(&opts.withAlarms, "with-alarms", false, "add an Alarms sheet from PostgreSQL")
	flags.IntVar(&opts.alarmLimit, "alarm-limit", 500, "maximum alarm events to export")
	_ = cmd.MarkFlagRequired("device")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, "console", "wisefido-cardiac-report")
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", opts.timezone, err)
	}
	if opts.out == "" {
		opts.out = opts.deviceID + ".xlsx"
	}
	if opts.group == "" {
		opts.group = "cardiac-report:" + opts.deviceID
	}

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	defer rediscommon.Close(redisClient)
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	hostname, _ := os.Hostname()
	reader := report.NewStreamReader(redisClient, cfg.Cardiac.Stream.Name, opts.group, hostname, log)
	timeline, err := reader.ReadTimeline(ctx, opts.deviceID)
	if err != nil {
		return err
	}

	var alarms []*models.AlarmEvent
	if opts.withAlarms {
		alarms, err = loadAlarms(ctx, cfg, opts, log)
		if err != nil {
			return err
		}
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	defer f.Close()

	if err := report.NewExporter(loc).Export(f, timeline, alarms); err != nil {
		return err
	}

	log.Info("Report written",
		zap.String("device_id", opts.deviceID),
		zap.String("out", opts.out),
		zap.Int("decisions", len(timeline.Decisions)),
		zap.Int("analyses", len(timeline.Analyses)),
		zap.Int("alarms", len(alarms)),
	)
	return f.Close()
}

func loadAlarms(ctx context.Context, cfg *config.Config, opts *options, log *zap.Logger) ([]*models.AlarmEvent, error) {
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := repository.NewAlarmEventsRepository(db, log)
	return repo.ListAlarmEventsByDevice(ctx, cfg.Cardiac.TenantID, opts.deviceID, opts.alarmLimit)
}

// Command assistantd runs the proactivity engine: the Context Manager,
// User-State Machine, Delivery Coordinator, Insight Queue, and Scheduler
// described in the specification, fronted by the Sensor/Settings/WS HTTP
// surface. Wiring follows the teacher's cmd/server/main.go shape (load
// config, construct collaborators, start background loops, serve HTTP,
// wait for a signal) generalized from a single monitor+broadcaster pair
// to this runtime's full dependency graph.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assistantd/assistantd/internal/broadcast"
	"github.com/assistantd/assistantd/internal/collabstub"
	"github.com/assistantd/assistantd/internal/config"
	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/contextsource"
	"github.com/assistantd/assistantd/internal/delivery"
	"github.com/assistantd/assistantd/internal/httpserver"
	"github.com/assistantd/assistantd/internal/jobs"
	"github.com/assistantd/assistantd/internal/llm"
	"github.com/assistantd/assistantd/internal/profile"
	"github.com/assistantd/assistantd/internal/queue"
	"github.com/assistantd/assistantd/internal/scheduler"
	"github.com/assistantd/assistantd/internal/screenlog"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var port int

	rootCmd := &cobra.Command{
		Use:     "assistantd",
		Short:   "Proactive personal-assistant runtime",
		Version: Version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, port)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to config file (defaults to the XDG config path)")
	serveCmd.Flags().IntVar(&port, "port", 0, "override the configured server port")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the assistantd version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func serve(ctx context.Context, configPath string, portOverride int) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}

	loc := loadLocation(cfg.Schedule.UserTimezone, logger)

	if err := os.MkdirAll(parentDir(cfg.Screen.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	q, err := queue.Open(parentJoin(cfg.Screen.DatabasePath, "insights.db"))
	if err != nil {
		return fmt.Errorf("open insight queue: %w", err)
	}
	defer q.Close()

	screen, err := screenlog.Open(cfg.Screen.DatabasePath)
	if err != nil {
		return fmt.Errorf("open screen log: %w", err)
	}
	defer screen.Close()

	profileStore := profile.NewStore("")
	savedProfile, err := profileStore.Load()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	sources := []contextsource.Source{
		contextsource.NewTimeSource(loc, cfg.Schedule.WorkingHoursStart, cfg.Schedule.WorkingHoursEnd),
		contextsource.NewCalendarSource(collabstub.Calendar{}, logger),
		contextsource.NewVCSActivitySource(".", logger),
		contextsource.NewGoalSource(collabstub.Goals{Logger: logger}, logger),
	}

	ctxMgr := contextmanager.New(sources, cfg.Schedule.MorningBriefingHour, logger)
	ctxMgr.SetInterruptionMode(savedProfile.InterruptionMode)
	ctxMgr.SetCaptureMode(savedProfile.CaptureMode)
	ctxMgr.Refresh(ctx)

	bcast := broadcast.New(cfg.Server.MaxConnections, logger)
	coordinator := delivery.New(ctxMgr, q, bcast, logger)
	ctxMgr.SetTransitionHook(func(hookCtx context.Context, epoch int64) {
		coordinator.DeliverQueuedBundle(hookCtx, func() bool { return ctxMgr.EpochCurrent(epoch) })
	})

	llmClient := llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, logger)

	var liveCfg atomic.Pointer[config.Config]
	liveCfg.Store(cfg)

	sched := scheduler.New(cfg.Schedule.UserTimezone, logger)
	registerJobs(sched, cfg, &liveCfg, ctxMgr, coordinator, bcast, screen, llmClient, logger)

	srv := httpserver.New(ctxMgr, bcast, screen, profileStore, cfg.Server.AllowedOrigins, cfg.Server.AuthToken, logger)
	srv.RegisterMetrics(delivery.Metrics()...)

	watcher := config.NewWatcher(path, logger, func(next *config.Config) {
		prev := liveCfg.Load()
		changes := config.Diff(prev, next)
		if len(changes) == 0 {
			return
		}
		for _, change := range changes {
			logger.Info("config changed", "change", change)
		}
		liveCfg.Store(next)
		for name, trigger := range jobTriggers(next) {
			sched.UpdateTrigger(name, trigger)
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- httpserver.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux)
	}()

	logger.Info("assistantd serving", "host", cfg.Server.Host, "port", cfg.Server.Port)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-httpErrCh:
		if err != nil {
			logger.Error("http server error", "error", err)
		}
	}

	wg.Wait()
	return nil
}

// jobTriggers builds the trigger for each of the nine scheduler jobs from
// cfg. registerJobs uses it at startup and the config watcher re-applies
// it on hot-reload, so the two can never disagree about a job's schedule.
func jobTriggers(cfg *config.Config) map[string]scheduler.Trigger {
	sunday := timeSunday()
	return map[string]scheduler.Trigger{
		"memory_consolidation":   scheduler.IntervalTrigger{Period: durationMinutes(cfg.Schedule.MemoryConsolidationIntervalMin)},
		"goal_check":             scheduler.IntervalTrigger{Period: durationHours(cfg.Schedule.GoalCheckIntervalHours)},
		"calendar_scan":          scheduler.IntervalTrigger{Period: durationMinutes(cfg.Schedule.CalendarScanIntervalMin)},
		"strategist_tick":        scheduler.IntervalTrigger{Period: durationMinutes(cfg.Schedule.StrategistIntervalMin)},
		"daily_briefing":         scheduler.CronTrigger{Hour: cfg.Schedule.MorningBriefingHour, Minute: 0},
		"evening_review":         scheduler.CronTrigger{Hour: cfg.Schedule.EveningReviewHour, Minute: 0},
		"activity_digest":        scheduler.CronTrigger{Hour: cfg.Schedule.ActivityDigestHour, Minute: 0},
		"weekly_activity_review": scheduler.CronTrigger{Weekday: &sunday, Hour: cfg.Schedule.WeeklyReviewHour, Minute: 0},
		"screen_cleanup":         scheduler.CronTrigger{Hour: 3, Minute: 0},
	}
}

// registerJobs wires the nine scheduler jobs named in spec.md §4.6, each a
// small struct carrying exactly the collaborators its interface needs.
// Hot-reloadable tunables (proactivity level, retention days) are read
// through liveCfg on every run rather than copied at registration.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, liveCfg *atomic.Pointer[config.Config], ctxMgr *contextmanager.Manager, coordinator *delivery.Coordinator, bcast *broadcast.Broadcaster, screen *screenlog.Log, llmClient llm.Client, logger *slog.Logger) {
	memory := collabstub.Memory{Logger: logger}
	goals := collabstub.Goals{Logger: logger}
	sessions := collabstub.Sessions{Logger: logger}
	soul := collabstub.SoulFile{Logger: logger}

	triggers := jobTriggers(cfg)

	sched.Register(&jobs.MemoryConsolidation{
		Sessions: sessions,
		Memory:   memory,
		Soul:     soul,
		LLM:      llmClient,
		Now:      timeNow,
		Logger:   logger,
	}, triggers["memory_consolidation"], cfg.Timeouts.ConsolidationLLMTimeout)

	sched.Register(&jobs.GoalCheck{
		Goals:     goals,
		Broadcast: bcast,
		Logger:    logger,
	}, triggers["goal_check"], cfg.Timeouts.AgentChatTimeout)

	sched.Register(&jobs.CalendarScan{
		Context:  ctxMgr,
		Delivery: coordinator,
		Now:      timeNow,
		Logger:   logger,
	}, triggers["calendar_scan"], cfg.Timeouts.AgentChatTimeout)

	sched.Register(&jobs.StrategistTick{
		Context:          ctxMgr,
		LLM:              llmClient,
		Delivery:         coordinator,
		ProactivityLevel: func() int { return liveCfg.Load().Proactivity },
		Now:              timeNow,
		Logger:           logger,
	}, triggers["strategist_tick"], cfg.Timeouts.AgentStrategistTimeout)

	sched.Register(&jobs.DailyBriefing{
		Context:  ctxMgr,
		Memory:   memory,
		LLM:      llmClient,
		Delivery: coordinator,
		Now:      timeNow,
		Logger:   logger,
	}, triggers["daily_briefing"], cfg.Timeouts.AgentBriefingTimeout)

	sched.Register(&jobs.EveningReview{
		Context:  ctxMgr,
		Memory:   memory,
		LLM:      llmClient,
		Delivery: coordinator,
		Now:      timeNow,
		Logger:   logger,
	}, triggers["evening_review"], cfg.Timeouts.AgentBriefingTimeout)

	sched.Register(&jobs.ActivityDigest{
		Screen:   screen,
		LLM:      llmClient,
		Delivery: coordinator,
		Now:      timeNow,
		Logger:   logger,
	}, triggers["activity_digest"], cfg.Timeouts.AgentBriefingTimeout)

	sched.Register(&jobs.WeeklyActivityReview{
		Screen:   screen,
		LLM:      llmClient,
		Delivery: coordinator,
		Now:      timeNow,
		Logger:   logger,
	}, triggers["weekly_activity_review"], cfg.Timeouts.AgentBriefingTimeout)

	sched.Register(&jobs.ScreenCleanup{
		Log:           screen,
		RetentionDays: func() int { return liveCfg.Load().Screen.RetentionDays },
		Logger:        logger,
	}, triggers["screen_cleanup"], cfg.Timeouts.AgentChatTimeout)
}

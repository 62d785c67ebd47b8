package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/app"
	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/lock"
	"fintrack/internal/logger"
	"fintrack/internal/notify"
)

// env is the wired application shared by every subcommand. It is built in
// PersistentPreRunE and torn down in PersistentPostRunE.
var env struct {
	app     *app.App
	closers []func() error
}

func init() {
	rootCmd.AddCommand(advanceCmd, evaluateCmd, sweepCmd, goalsCmd, runCmd, listCmd)

	rootCmd.PersistentFlags().Duration("timeout", 10*time.Minute, "Abort the job after this long")

	advanceCmd.Flags().String("as-of", "", "Advance recurrences due before this time (RFC3339, default now)")

	evaluateCmd.Flags().String("user", "", "ID of the user to evaluate")
	evaluateCmd.Flags().Int("year", 0, "Calendar year to evaluate (default current year)")
	_ = evaluateCmd.MarkFlagRequired("user")

	sweepCmd.Flags().Int("year", 0, "Calendar year to evaluate (default current year)")
}

var rootCmd = &cobra.Command{
	Use:           "jobs",
	Short:         "Run FinTrack background jobs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		teardown()
		return nil
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Generate the next occurrence of every due recurring transaction",
	RunE: func(cmd *cobra.Command, _ []string) error {
		asOf := time.Now().UTC()
		if raw, _ := cmd.Flags().GetString("as-of"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return fmt.Errorf("invalid --as-of: %w", err)
			}
			asOf = t.UTC()
		}
		ctx, cancel := jobContext(cmd)
		defer cancel()

		res, err := env.app.Advancer.AdvanceDueRecurrences(ctx, asOf)
		if err != nil {
			return fail(err)
		}
		return printJSON(res)
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Check one user's yearly totals against their budgets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetString("user")
		ctx, cancel := jobContext(cmd)
		defer cancel()

		eval, err := env.app.Evaluator.EvaluateUser(ctx, userID, yearFlag(cmd))
		if err != nil {
			return fail(err)
		}
		if eval.DispatchErr != nil {
			logger.Get().Warnw("alert dispatch failed", "user_id", userID, "error", eval.DispatchErr)
		}
		return printJSON(eval)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Check every user's yearly totals against their budgets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := jobContext(cmd)
		defer cancel()

		res, err := env.app.Evaluator.EvaluateAll(ctx, yearFlag(cmd))
		if err != nil {
			return fail(err)
		}
		return printJSON(res)
	},
}

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Mail every goal owner their monthly progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := jobContext(cmd)
		defer cancel()

		res, err := env.app.Goals.SendMonthlyNotifications(ctx, time.Now().UTC())
		if err != nil {
			return fail(err)
		}
		return printJSON(res)
	},
}

var runCmd = &cobra.Command{
	Use:   "run JOB",
	Short: "Run a registered job under its distributed lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := jobContext(cmd)
		defer cancel()

		if err := env.app.Scheduler.RunJob(ctx, args[0]); err != nil {
			return fail(err)
		}
		logger.Get().Infow("job finished", "job", args[0])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered jobs",
	RunE: func(*cobra.Command, []string) error {
		for _, name := range env.app.Scheduler.Jobs() {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	},
}

func setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// The jobs CLI never starts the cron loop.
	cfg.SchedulerEnabled = false

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	env.closers = append(env.closers, dbManager.Close)

	notifier, closeNotifier, err := notify.New(notify.Options{
		Driver: cfg.NotifyDriver,
		SMTP: notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		},
		AMQP: notify.AMQPConfig{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue},
	})
	if err != nil {
		teardown()
		return fmt.Errorf("failed to set up notifications: %w", err)
	}
	env.closers = append(env.closers, closeNotifier)

	var locker lock.Locker = lock.Nop{}
	if cfg.RedisAddr != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		redisLocker, err := lock.NewRedisLocker(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			teardown()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		env.closers = append(env.closers, redisLocker.Close)
		locker = redisLocker
	}

	a, err := app.New(cfg, dbManager.DB(), app.Options{Notifier: notifier, Locker: locker})
	if err != nil {
		teardown()
		return fmt.Errorf("failed to wire application: %w", err)
	}
	env.app = a
	return nil
}

func teardown() {
	for i := len(env.closers) - 1; i >= 0; i-- {
		if err := env.closers[i](); err != nil {
			logger.Get().Warnw("close failed", "error", err)
		}
	}
	env.closers = nil
}

func jobContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func yearFlag(cmd *cobra.Command) int {
	if year, _ := cmd.Flags().GetInt("year"); year != 0 {
		return year
	}
	return time.Now().UTC().Year()
}

// fail logs err and closes resources, since cobra skips PersistentPostRunE
// when RunE returns an error.
func fail(err error) error {
	logger.Get().Errorw("job failed", "error", err)
	teardown()
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

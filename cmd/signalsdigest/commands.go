package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"SignalsDigest/internal/app"
	"SignalsDigest/internal/config"
	"SignalsDigest/internal/logging"
	"SignalsDigest/internal/usecase"
)

func dailyCmd(root *rootOptions) *cobra.Command {
	var date, kind string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Write the daily digests for a date",
		Long: `Write every daily digest (or only --kind) for --date.

The period covers lookbackDays whole days ending on the date, in the
configured timezone. Without --date today is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(root)
			if err != nil {
				return err
			}

			day, err := parseDay(date, cfg.Location(), time.Now())
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			reports, err := application.RunDaily(cmd.Context(), day, kind)
			printReports(cmd, reports)
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "digest date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&kind, "kind", "", "only write this digest kind")
	return cmd
}

func monthlyCmd(root *rootOptions) *cobra.Command {
	var start, end, kind string

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Write monthly digests, backfilling a range of months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(root)
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			reports, err := application.RunMonthly(cmd.Context(), start, end, kind)
			printReports(cmd, reports)
			return err
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first month as YYYY-MM")
	cmd.Flags().StringVar(&end, "end", "", "last month as YYYY-MM (default --start)")
	cmd.Flags().StringVar(&kind, "kind", "", "only write this digest kind")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func setup(root *rootOptions) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if root.logLevel != "" {
		cfg.Logging.Level = root.logLevel
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

// parseDay reads YYYY-MM-DD in loc; empty means the current day in loc.
func parseDay(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if value == "" {
		return now.In(loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", value, err)
	}
	return day, nil
}

func printReports(cmd *cobra.Command, reports []usecase.RunReport) {
	for _, r := range reports {
		cmd.Printf("%s\t%s\t%d items\t%s\n", r.Kind, r.Period.Label, r.Counts["summarized"], r.Path)
	}
}

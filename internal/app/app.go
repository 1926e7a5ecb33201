package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/infrastructure/llm"
	"SignalsDigest/internal/infrastructure/parser"
	"SignalsDigest/internal/infrastructure/storage"
	"SignalsDigest/internal/infrastructure/telegram"
	"SignalsDigest/internal/infrastructure/web"
	"SignalsDigest/internal/logging"
	"SignalsDigest/internal/output"
	"SignalsDigest/internal/ports"
	"SignalsDigest/internal/scanner"
	"SignalsDigest/internal/selection"
	"SignalsDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	store  ports.SeenStore
	deps   usecase.PipelineDeps
}

// New builds the application and opens the seen-URL store.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	client := web.NewClient(nil, web.Options{
		UserAgent:         cfg.HTTP.UserAgent,
		Timeout:           cfg.HTTP.Timeout(),
		MaxBytes:          cfg.HTTP.MaxBytes,
		MaxRetries:        cfg.HTTP.MaxRetries,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Logger:            baseLogger.With("component", "web"),
	})

	registry := scanner.NewRegistry(
		parser.NewRSSScanner(client, cfg.HTTP.MaxEntriesPerFeed),
		parser.NewHTMLScanner(client, cfg.HTTP.DateResolveBudget, baseLogger.With("component", "scanner.html")),
	)
	source := parser.NewStrategySource(registry, cfg.Sections, baseLogger.With("component", "source"))

	store, err := storage.Open(ctx, cfg.State)
	if err != nil {
		return nil, fmt.Errorf("open seen store: %w", err)
	}

	rules := selection.Compile(cfg.Filters, cfg.Selection.PriorityDomains)
	for _, pattern := range rules.Invalid {
		baseLogger.Warn("ignoring invalid filter pattern", "pattern", pattern)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	deps := usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Extractor:  web.NewExtractor(client),
		Summarizer: llm.New(cfg.Summarizer, baseLogger.With("component", "summarizer")),
		Writer:     output.NewWriter(cfg.Output.Directory, cfg.Output.Debug, baseLogger.With("component", "output")),
		Notifier:   notifier,
		Rules:      rules,
		Selection: selection.Options{
			ItemsPerSection:  cfg.Selection.ItemsPerSection,
			PerDomainCap:     cfg.Selection.PerDomainCap,
			MinTextChars:     cfg.Selection.MinTextChars,
			PriorityMinChars: cfg.Selection.PriorityMinChars,
			AllowUndated:     cfg.Selection.AllowUndated,
		},
		Logger: baseLogger.With("component", "pipeline"),
	}

	return &Application{cfg: cfg, logger: baseLogger, store: store, deps: deps}, nil
}

// RunDaily produces every daily digest (or only kind) for day. The period
// covers lookbackDays whole days ending on day in the configured timezone.
func (a *Application) RunDaily(ctx context.Context, day time.Time, kind string) ([]usecase.RunReport, error) {
	digests, err := a.digests(domain.CadenceDaily, kind)
	if err != nil {
		return nil, err
	}

	period := domain.DailyPeriod(day.In(a.cfg.Location()), a.cfg.Selection.LookbackDays)
	return a.run(ctx, digests, []domain.Period{period})
}

// RunMonthly produces every monthly digest (or only kind) for each month
// from start to end inclusive, both YYYY-MM. An empty end means start.
func (a *Application) RunMonthly(ctx context.Context, start, end, kind string) ([]usecase.RunReport, error) {
	digests, err := a.digests(domain.CadenceMonthly, kind)
	if err != nil {
		return nil, err
	}
	if end == "" {
		end = start
	}

	months, err := domain.MonthRange(start, end)
	if err != nil {
		return nil, err
	}
	periods := make([]domain.Period, 0, len(months))
	for _, ym := range months {
		p, err := domain.MonthlyPeriod(ym)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return a.run(ctx, digests, periods)
}

// Close releases the seen-URL store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// run collects every section at most once per invocation; dedup and
// selection still run per digest against the freshly loaded seen set.
func (a *Application) run(ctx context.Context, digests []config.DigestConfig, periods []domain.Period) ([]usecase.RunReport, error) {
	deps := a.deps
	deps.Source = usecase.NewCachedSource(a.deps.Source)
	pipeline := usecase.NewPipeline(deps)

	var reports []usecase.RunReport
	for _, period := range periods {
		for _, d := range digests {
			report, err := pipeline.Run(ctx, usecase.DigestRun{
				Kind:     d.Kind,
				Title:    d.Title,
				Sections: d.Sections,
				Period:   period,
			})
			if err != nil {
				return reports, fmt.Errorf("digest %s %s: %w", d.Kind, period.Label, err)
			}
			reports = append(reports, report)
			a.logger.Info("digest written", "kind", d.Kind, "period", period.Label, "path", report.Path,
				"selected", report.Counts["selected"], "summarized", report.Counts["summarized"])
		}
	}
	return reports, nil
}

func (a *Application) digests(cadence domain.Cadence, kind string) ([]config.DigestConfig, error) {
	var out []config.DigestConfig
	for _, d := range a.cfg.Digests {
		if d.Cadence != string(cadence) {
			continue
		}
		if kind != "" && d.Kind != kind {
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		if kind != "" {
			return nil, fmt.Errorf("no %s digest of kind %q configured", cadence, kind)
		}
		return nil, errors.New("no " + string(cadence) + " digests configured")
	}
	return out, nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/digest"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
	"SignalsDigest/internal/selection"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.SectionSource
	Store      ports.SeenStore
	Extractor  ports.TextExtractor
	Summarizer ports.Summarizer
	Writer     ports.DigestWriter
	Notifier   ports.Notifier
	Rules      *selection.Rules
	Selection  selection.Options
	Logger     *slog.Logger
}

// DigestRun names one digest to produce.
type DigestRun struct {
	Kind     string
	Title    string
	Sections []string
	Period   domain.Period
}

// RunReport summarizes what a digest run produced.
type RunReport struct {
	Kind   string
	Period domain.Period
	Path   string
	Counts map[string]int
	Drops  []domain.Drop
}

// Pipeline implements collect, dedup, select, summarize, assemble, write.
type Pipeline struct {
	source     ports.SectionSource
	store      ports.SeenStore
	extractor  ports.TextExtractor
	summarizer ports.Summarizer
	writer     ports.DigestWriter
	notifier   ports.Notifier
	rules      *selection.Rules
	selection  selection.Options
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	rules := deps.Rules
	if rules == nil {
		rules = selection.Compile(config.FilterConfig{}, nil)
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		extractor:  deps.Extractor,
		summarizer: deps.Summarizer,
		writer:     deps.Writer,
		notifier:   deps.Notifier,
		rules:      rules,
		selection:  deps.Selection,
		logger:     deps.Logger,
	}
}

// Run produces one digest. Seen URLs are committed only after the digest
// file is written; items that fail to summarize stay unseen.
func (p *Pipeline) Run(ctx context.Context, run DigestRun) (RunReport, error) {
	if p.source == nil || p.store == nil || p.summarizer == nil || p.writer == nil {
		return RunReport{}, fmt.Errorf("pipeline misconfigured")
	}

	report := RunReport{Kind: run.Kind, Period: run.Period, Counts: map[string]int{}}
	log := p.logger
	if log != nil {
		log = log.With("kind", run.Kind, "period", run.Period.Label)
	}

	seen, err := p.store.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load seen urls: %w", err)
	}
	report.Counts["seen_before"] = len(seen)

	selector := selection.New(p.rules, p.selection, p.extractor, log)

	pools := make(map[string][]domain.Item, len(run.Sections))
	var selected []domain.Item
	for _, section := range run.Sections {
		items, drops, err := p.source.FetchSection(ctx, section)
		if err != nil {
			return report, fmt.Errorf("collect section %q: %w", section, err)
		}
		report.Drops = append(report.Drops, drops...)
		report.Counts["collected"] += len(items)

		fresh, dedupDrops := Dedup(items, seen)
		report.Drops = append(report.Drops, dedupDrops...)
		report.Counts["fresh"] += len(fresh)
		pools[section] = fresh

		chosen, selDrops := selector.Select(ctx, fresh, run.Period)
		report.Drops = append(report.Drops, selDrops...)
		selected = append(selected, chosen...)

		info(log, "section selected", "section", section, "collected", len(items), "fresh", len(fresh), "selected", len(chosen))
	}

	if len(selected) == 0 {
		for _, section := range run.Sections {
			chosen, drops := selector.Fallback(ctx, pools[section], run.Period)
			report.Drops = append(report.Drops, drops...)
			selected = append(selected, chosen...)
		}
		report.Counts["fallback"] = len(selected)
		if len(selected) > 0 {
			info(log, "fallback window used", "selected", len(selected))
		}
	}
	report.Counts["selected"] = len(selected)

	var (
		summaries  []domain.SummarizedItem
		summarized []domain.Item
	)
	for _, it := range selected {
		s, err := p.summarizer.Summarize(ctx, it)
		if err != nil {
			if ctx.Err() != nil {
				return report, fmt.Errorf("summarize: %w", ctx.Err())
			}
			warn(log, "summarize failed, skipping item", "url", it.URL, "error", err)
			report.Drops = append(report.Drops, domain.Drop{
				Reason:  domain.DropSummarizeError,
				Section: it.Section,
				Title:   it.Title,
				URL:     it.URL,
				Detail:  err.Error(),
			})
			continue
		}
		summaries = append(summaries, s)
		summarized = append(summarized, it)
	}
	report.Counts["summarized"] = len(summaries)

	doc := digest.Assemble(digest.Spec{
		Kind:     run.Kind,
		Title:    run.Title,
		Period:   run.Period.Label,
		Sections: run.Sections,
	}, summaries)

	body, err := digest.Render(doc)
	if err != nil {
		return report, fmt.Errorf("render digest: %w", err)
	}

	path, err := p.writer.WriteDigest(doc, run.Period, body)
	if err != nil {
		return report, fmt.Errorf("write digest: %w", err)
	}
	report.Path = path

	if err := p.store.Add(ctx, doc.Sources); err != nil {
		return report, fmt.Errorf("commit seen urls: %w", err)
	}
	report.Counts["committed"] = len(doc.Sources)

	artifacts := ports.Artifacts{
		Drops:    report.Drops,
		Selected: summarized,
		Meta: map[string]any{
			"title":      run.Title,
			"digest":     path,
			"sections":   run.Sections,
			"counts_run": report.Counts,
		},
	}
	if err := p.writer.WriteArtifacts(run.Kind, run.Period, artifacts); err != nil {
		return report, fmt.Errorf("write artifacts: %w", err)
	}

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, buildDigestMessage(doc, path)); err != nil {
			warn(log, "notify failed", "error", err)
		}
	}

	info(log, "digest complete", "path", path, "items", doc.ItemCount(), "drops", len(report.Drops))
	return report, nil
}

func buildDigestMessage(doc domain.DigestDocument, path string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s — %s*\n", doc.Title, doc.Period)
	for _, line := range doc.TopLines {
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	if path != "" {
		fmt.Fprintf(&sb, "\n%s", filepath.Base(path))
	}
	return sb.String()
}

func info(log *slog.Logger, msg string, args ...any) {
	if log != nil {
		log.Info(msg, args...)
	}
}

func warn(log *slog.Logger, msg string, args ...any) {
	if log != nil {
		log.Warn(msg, args...)
	}
}

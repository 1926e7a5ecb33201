package parser

import (
	"context"
	"fmt"
	"log/slog"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
	"SignalsDigest/internal/scanner"
)

// StrategySource implements SectionSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sections []config.SectionConfig
	logger   *slog.Logger
}

var _ ports.SectionSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sections.
func NewStrategySource(reg *scanner.Registry, sections []config.SectionConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sections: sections,
		logger:   log,
	}
}

// FetchSection runs every source of the named section. A source that fails
// is skipped and reported as a source_error drop.
func (s *StrategySource) FetchSection(ctx context.Context, section string) ([]domain.Item, []domain.Drop, error) {
	if s.registry == nil {
		return nil, nil, fmt.Errorf("scanner registry is not configured")
	}

	cfg, ok := s.section(section)
	if !ok {
		return nil, nil, fmt.Errorf("section %q is not configured", section)
	}

	s.debug("fetch section", "section", section, "sources", len(cfg.Sources))

	var (
		aggregated []domain.Item
		drops      []domain.Drop
	)
	for _, src := range cfg.Sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := scanner.Request{
			Section:    section,
			SourceName: src.Name,
			URL:        src.URL,
			Options:    src.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("source failed", "section", section, "source", src.Name, "url", src.URL, "error", err)
			drops = append(drops, domain.Drop{
				Reason:  domain.DropSourceError,
				Section: section,
				Title:   src.Name,
				URL:     src.URL,
				Detail:  err.Error(),
			})
			continue
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = src.Name
			}
			results[i].Section = section
		}
		s.debug("source produced items", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("section fetched", "section", section, "total_items", len(aggregated), "failed_sources", len(drops))
	return aggregated, drops, nil
}

func (s *StrategySource) section(name string) (config.SectionConfig, bool) {
	for _, sec := range s.sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return config.SectionConfig{}, false
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

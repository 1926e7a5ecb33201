// Package output writes rendered digests and per-run debug artifacts.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

// Writer places digests in a single output directory.
type Writer struct {
	dir    string
	debug  bool
	logger *slog.Logger
}

var _ ports.DigestWriter = (*Writer)(nil)

// NewWriter targets dir; debug enables the drops and selected artifacts.
func NewWriter(dir string, debug bool, logger *slog.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, debug: debug, logger: logger}
}

// FileName is <kind>-YYYY-MM-DD.md for daily and <kind>-YYYY-MM.md for
// monthly periods.
func FileName(kind string, period domain.Period) string {
	return fmt.Sprintf("%s-%s.md", kind, periodLabel(period))
}

// WriteDigest atomically writes body and returns the file path. A rerun for
// the same kind and period replaces the earlier file.
func (w *Writer) WriteDigest(doc domain.DigestDocument, period domain.Period, body []byte) (string, error) {
	path := filepath.Join(w.dir, FileName(doc.Kind, period))
	if err := WriteFileAtomic(path, body); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	w.info("digest written", "path", path, "items", doc.ItemCount(), "sources", len(doc.Sources))
	return path, nil
}

// WriteArtifacts always writes the meta YAML; drops TSV and selected JSON
// are written only in debug mode.
func (w *Writer) WriteArtifacts(kind string, period domain.Period, a ports.Artifacts) error {
	suffix := kind + "-" + periodLabel(period)

	meta := map[string]any{
		"kind":   kind,
		"period": periodLabel(period),
		"outdir": w.dir,
		"counts": map[string]int{
			"selected_total": len(a.Selected),
			"drops_total":    len(a.Drops),
		},
	}
	for k, v := range a.Meta {
		meta[k] = v
	}

	if w.debug {
		dropsPath := filepath.Join(w.dir, "debug-drops-"+suffix+".tsv")
		selectedPath := filepath.Join(w.dir, "debug-selected-"+suffix+".json")

		tsv, err := dropsTSV(a.Drops)
		if err != nil {
			return fmt.Errorf("encode drops: %w", err)
		}
		if err := WriteFileAtomic(dropsPath, tsv); err != nil {
			return fmt.Errorf("write drops: %w", err)
		}

		selected := a.Selected
		if selected == nil {
			selected = []domain.Item{}
		}
		js, err := json.MarshalIndent(selected, "", "  ")
		if err != nil {
			return fmt.Errorf("encode selected: %w", err)
		}
		if err := WriteFileAtomic(selectedPath, js); err != nil {
			return fmt.Errorf("write selected: %w", err)
		}

		meta["drops_file"] = dropsPath
		meta["selected_file"] = selectedPath
	}

	raw, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	metaPath := filepath.Join(w.dir, "debug-meta-"+suffix+".yaml")
	if err := WriteFileAtomic(metaPath, raw); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func dropsTSV(drops []domain.Drop) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = '\t'

	if err := cw.Write([]string{"reason", "section", "title", "url", "detail"}); err != nil {
		return nil, err
	}
	for _, d := range drops {
		row := []string{d.Reason, d.Section, tabless(d.Title), d.URL, tabless(d.Detail)}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func tabless(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func periodLabel(p domain.Period) string {
	if p.Label != "" {
		return p.Label
	}
	if p.Cadence == domain.CadenceMonthly {
		return p.Start.Format("2006-01")
	}
	return p.End.Add(-time.Nanosecond).Format("2006-01-02")
}

func (w *Writer) info(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"suumo-checker/internal/models"
)

// BaseHeader is the fixed part of the sheet header. Run timestamps follow it.
var BaseHeader = []string{"物件名", "部屋番号", "URL", "検索URL"}

// Row is one target with its search URL and one label per run
type Row struct {
	Target    models.Target `json:"target"`
	SearchURL string        `json:"search_url"`
	History   []string      `json:"history"`
}

// Sheet is the run-history report: one row per target, one column per run.
type Sheet struct {
	Runs []string // run timestamps, oldest first
	Rows []Row
}

// Change is a row whose latest label differs from the run before
type Change struct {
	Target   models.Target `json:"target"`
	Previous string        `json:"previous"`
	Current  string        `json:"current"`
}

// LoadSheet reads a report. A missing file gives an empty sheet.
func LoadSheet(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Sheet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	s, err := ReadSheet(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadSheet parses a report from r
func ReadSheet(r io.Reader) (*Sheet, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	s := &Sheet{}
	if len(records) == 0 {
		return s, nil
	}

	header := records[0]
	if len(header) < len(BaseHeader) {
		return nil, fmt.Errorf("report header has %d columns, want at least %d", len(header), len(BaseHeader))
	}
	s.Runs = append(s.Runs, header[len(BaseHeader):]...)

	for _, rec := range records[1:] {
		row := Row{History: make([]string, len(s.Runs))}
		fields := make([]string, len(BaseHeader)+len(s.Runs))
		copy(fields, rec)
		row.Target = models.Target{Name: fields[0], Room: fields[1], URL: fields[2]}
		row.SearchURL = fields[3]
		copy(row.History, fields[len(BaseHeader):])
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

// Sync replaces the rows with targets, in target order. A target that was
// already on the sheet keeps its search URL and history; rows for targets
// that disappeared are dropped. New rows are marked skipped for earlier runs.
func (s *Sheet) Sync(targets []models.Target) {
	existing := make(map[string][]Row)
	for _, row := range s.Rows {
		k := row.Target.Key()
		existing[k] = append(existing[k], row)
	}

	rows := make([]Row, 0, len(targets))
	kept := 0
	for _, t := range targets {
		k := t.Key()
		if prev := existing[k]; len(prev) > 0 {
			row := prev[0]
			existing[k] = prev[1:]
			row.Target = t
			rows = append(rows, row)
			kept++
			continue
		}
		rows = append(rows, Row{Target: t, History: skippedHistory(len(s.Runs))})
	}

	log.Printf("[Report] synced %d targets (%d kept, %d new, %d dropped)",
		len(rows), kept, len(rows)-kept, len(s.Rows)-kept)
	s.Rows = rows
}

func skippedHistory(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = LabelSkipped
	}
	return h
}

// AppendRun adds a history column. results are positional: results[i]
// belongs to Rows[i]. Rows past the end of results are marked skipped.
func (s *Sheet) AppendRun(label string, results []*models.CheckResult) {
	s.Runs = append(s.Runs, label)
	for i := range s.Rows {
		row := &s.Rows[i]
		if i >= len(results) || results[i] == nil {
			row.History = append(row.History, LabelSkipped)
			continue
		}
		row.SearchURL = results[i].SearchURL
		row.History = append(row.History, Label(results[i].Status))
	}
}

// Changes lists rows whose label in the latest run differs from the previous
// run. Rows added since the previous run are not reported.
func (s *Sheet) Changes() []Change {
	if len(s.Runs) < 2 {
		return nil
	}
	last := len(s.Runs) - 1

	var changes []Change
	for _, row := range s.Rows {
		if len(row.History) <= last {
			continue
		}
		prev, cur := row.History[last-1], row.History[last]
		if prev == cur || prev == LabelSkipped || cur == LabelSkipped {
			continue
		}
		changes = append(changes, Change{Target: row.Target, Previous: prev, Current: cur})
	}
	return changes
}

// Write serializes the sheet as CSV
func (s *Sheet) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, BaseHeader...), s.Runs...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range s.Rows {
		rec := []string{row.Target.Name, row.Target.Room, row.Target.URL, row.SearchURL}
		history := make([]string, len(s.Runs))
		copy(history, row.History)
		if err := cw.Write(append(rec, history...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the sheet to path through a temp file and rename.
func (s *Sheet) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace report: %w", err)
	}
	log.Printf("[Report] saved %d rows x %d runs to %s", len(s.Rows), len(s.Runs), path)
	return nil
}

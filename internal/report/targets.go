package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"suumo-checker/internal/models"
)

// LoadTargets reads the targets CSV. Columns are name, room and then the
// listing URL; the URL is the first later column starting with "http", so
// wider exports of the source sheet work unchanged. Rows without a name or
// URL (including a header row) are skipped.
func LoadTargets(path string) ([]models.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	targets, err := ReadTargets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("[Report] loaded %d targets from %s", len(targets), path)
	return targets, nil
}

// ReadTargets parses targets from r
func ReadTargets(r io.Reader) ([]models.Target, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}

	var targets []models.Target
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		name := strings.TrimSpace(rec[0])
		url := ""
		for _, field := range rec[2:] {
			if field = strings.TrimSpace(field); strings.HasPrefix(field, "http") {
				url = field
				break
			}
		}
		if name == "" || url == "" {
			continue
		}
		targets = append(targets, models.Target{
			Name: name,
			Room: strings.TrimSpace(rec[1]),
			URL:  url,
		})
	}
	return targets, nil
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		// spreadsheet exports often start with a BOM
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

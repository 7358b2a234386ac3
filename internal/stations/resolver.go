package stations

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"suumo-checker/internal/models"
)

//go:embed stations.yaml
var defaultTable []byte

// Entry is one row of the station table file
type Entry struct {
	Line        string `yaml:"line"`
	Station     string `yaml:"station"`
	LineCode    string `yaml:"line_code"`
	StationCode string `yaml:"station_code"`
}

type tableFile struct {
	Stations []Entry `yaml:"stations"`
}

// Resolver maps (line, station) to portal codes. Read-only after construction.
type Resolver struct {
	codes map[string]models.StationCodePair
}

// NewResolver builds a resolver from entries. Later duplicates win.
func NewResolver(entries []Entry) *Resolver {
	r := &Resolver{codes: make(map[string]models.StationCodePair, len(entries))}
	for _, e := range entries {
		r.codes[key(e.Line, e.Station)] = models.StationCodePair{
			LineCode:    e.LineCode,
			StationCode: e.StationCode,
		}
	}
	return r
}

// Default returns the resolver for the embedded table
func Default() *Resolver {
	r, err := parse(defaultTable)
	if err != nil {
		// the embedded table is part of the binary
		panic(fmt.Sprintf("stations: embedded table: %v", err))
	}
	return r
}

// Load reads a station table from path. An empty path selects the embedded table.
func Load(path string) (*Resolver, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read station table: %w", err)
	}
	r, err := parse(data)
	if err != nil {
		return nil, err
	}
	log.Printf("[Stations] loaded %d station codes from %s", r.Len(), path)
	return r, nil
}

func parse(data []byte) (*Resolver, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse station table: %w", err)
	}
	for i, e := range tf.Stations {
		if e.Line == "" || e.Station == "" || len(e.StationCode) < 5 {
			return nil, fmt.Errorf("station table row %d: line, station and a station_code of at least 5 characters are required", i+1)
		}
	}
	return NewResolver(tf.Stations), nil
}

// Lookup returns the code pair for an exact (line, station) match
func (r *Resolver) Lookup(line, station string) (models.StationCodePair, bool) {
	pair, ok := r.codes[key(line, station)]
	return pair, ok
}

// Len returns the number of known (line, station) pairs
func (r *Resolver) Len() int {
	return len(r.codes)
}

func key(line, station string) string {
	return strings.TrimSpace(line) + "\x00" + strings.TrimSpace(station)
}

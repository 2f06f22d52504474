// Package dataset loads the static place tables and rail network geometry.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// NormalizeName collapses runs of whitespace, matching how names are typed in the source files.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WaypointSet is an immutable name -> coordinate table.
// Lookups match the normalized name exactly first, then case-insensitively.
type WaypointSet struct {
	byName map[string]domain.Coordinates
	folded map[string]string
	names  []string
}

// NewWaypointSet validates every entry and freezes the table.
func NewWaypointSet(entries map[string]domain.Coordinates) (*WaypointSet, error) {
	s := &WaypointSet{
		byName: make(map[string]domain.Coordinates, len(entries)),
		folded: make(map[string]string, len(entries)),
		names:  make([]string, 0, len(entries)),
	}
	for name, c := range entries {
		norm := NormalizeName(name)
		if norm == "" {
			return nil, errors.New("waypoint set: empty name")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("waypoint set: %q: %w", norm, err)
		}
		if _, dup := s.byName[norm]; dup {
			continue
		}
		s.byName[norm] = c
		s.names = append(s.names, norm)
		if _, ok := s.folded[strings.ToLower(norm)]; !ok {
			s.folded[strings.ToLower(norm)] = norm
		}
	}
	sort.Strings(s.names)
	return s, nil
}

func (s *WaypointSet) Lookup(name string) (domain.Coordinates, bool) {
	norm := NormalizeName(name)
	if c, ok := s.byName[norm]; ok {
		return c, true
	}
	if canonical, ok := s.folded[strings.ToLower(norm)]; ok {
		return s.byName[canonical], true
	}
	return domain.Coordinates{}, false
}

// Canonical returns the stored spelling of name.
func (s *WaypointSet) Canonical(name string) (string, bool) {
	norm := NormalizeName(name)
	if _, ok := s.byName[norm]; ok {
		return norm, true
	}
	canonical, ok := s.folded[strings.ToLower(norm)]
	return canonical, ok
}

func (s *WaypointSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *WaypointSet) Len() int { return len(s.names) }

// LoadWaypointsJSON reads {"name": [lat, lon], ...}.
func LoadWaypointsJSON(path string) (map[string]domain.Coordinates, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load waypoints: read %q: %w", path, err)
	}

	var raw map[string][]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("load waypoints: parse %q: %w", path, err)
	}

	out := make(map[string]domain.Coordinates, len(raw))
	for name, pair := range raw {
		norm := NormalizeName(name)
		if norm == "" {
			return nil, fmt.Errorf("load waypoints: %q: empty name", path)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("load waypoints: %q: entry %q: want [lat, lon], got %d values", path, norm, len(pair))
		}
		c := domain.Coordinates{Lat: pair[0], Lon: pair[1]}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("load waypoints: %q: entry %q: %w", path, norm, err)
		}
		out[norm] = c
	}

	return out, nil
}

// CSVColumns names the header cells holding name, latitude and longitude.
type CSVColumns struct {
	Name string
	Lat  string
	Lon  string
}

// DefaultCSVColumns matches the port tables published by the Mexican port authority.
var DefaultCSVColumns = CSVColumns{Name: "Nombre", Lat: "Lat", Lon: "Lon"}

// LoadWaypointsCSV reads a headed CSV file. Rows with an empty name are skipped.
func LoadWaypointsCSV(path string, cols CSVColumns) (map[string]domain.Coordinates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load waypoints csv: open %q: %w", path, err)
	}
	defer f.Close()

	out, err := readWaypointsCSV(f, cols)
	if err != nil {
		return nil, fmt.Errorf("load waypoints csv: %q: %w", path, err)
	}
	return out, nil
}

func readWaypointsCSV(r io.Reader, cols CSVColumns) (map[string]domain.Coordinates, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		idx[strings.ToLower(h)] = i
	}

	nameIdx, ok1 := idx[strings.ToLower(cols.Name)]
	latIdx, ok2 := idx[strings.ToLower(cols.Lat)]
	lonIdx, ok3 := idx[strings.ToLower(cols.Lon)]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("header %v lacks columns %q, %q, %q", header, cols.Name, cols.Lat, cols.Lon)
	}

	out := map[string]domain.Coordinates{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		need := max(nameIdx, latIdx, lonIdx)
		if len(rec) <= need {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, need+1, len(rec))
		}

		name := NormalizeName(rec[nameIdx])
		if name == "" {
			continue
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[latIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[lonIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse lon: %w", line, err)
		}

		c := domain.Coordinates{Lat: lat, Lon: lon}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", line, name, err)
		}
		out[name] = c
	}

	return out, nil
}

// Merge returns base plus every entry of others whose name is not already present.
// Earlier tables win.
func Merge(base map[string]domain.Coordinates, others ...map[string]domain.Coordinates) map[string]domain.Coordinates {
	merged := make(map[string]domain.Coordinates, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged
}

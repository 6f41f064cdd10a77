// Package storage persists simulation runs under a data directory: one
// subdirectory per run with metadata.json and a states.csv carrying the
// body states, constraint residual norm, and Lagrange multipliers.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hjelmeland/mbdsim/internal/dyn"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Bodies     int                `json:"bodies"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(scenario, integrator string, dt, duration float64, bodies int, result *dyn.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenario,
		Timestamp:  time.Now(),
		Dt:         dt,
		Duration:   duration,
		Integrator: integrator,
		Bodies:     bodies,
		Metrics:    result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.States) == 0 {
		return runID, nil
	}

	header := []string{"time"}
	for b := 0; b*dyn.BodyStride < len(result.States[0]); b++ {
		for _, f := range []string{"e0", "e1", "e2", "e3", "rx", "ry", "rz", "wx", "wy", "wz", "vx", "vy", "vz"} {
			header = append(header, fmt.Sprintf("b%d_%s", b, f))
		}
	}
	header = append(header, "residual")
	numLambda := 0
	if len(result.Lambdas) > 0 {
		numLambda = len(result.Lambdas[0])
		for i := 0; i < numLambda; i++ {
			header = append(header, fmt.Sprintf("lambda%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.States {
		row := []string{fmtF(result.Times[i])}
		for _, v := range result.States[i] {
			row = append(row, fmtF(v))
		}
		row = append(row, fmtF(result.Residuals[i]))
		// Multipliers are recorded per step, one fewer than states.
		if i > 0 && i-1 < len(result.Lambdas) {
			for _, v := range result.Lambdas[i-1] {
				row = append(row, fmtF(v))
			}
		} else {
			for j := 0; j < numLambda; j++ {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', 9, 64)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads back the CSV columns of a run: header names, times,
// and one series per remaining column.
func (s *Store) LoadSeries(runID string) ([]string, []float64, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, nil, fmt.Errorf("storage: run %s has no samples", runID)
	}

	header := records[0][1:]
	times := make([]float64, 0, len(records)-1)
	series := make([][]float64, len(header))

	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		for j := 1; j < len(rec) && j-1 < len(series); j++ {
			v, _ := strconv.ParseFloat(rec[j], 64)
			series[j-1] = append(series[j-1], v)
		}
	}
	return header, times, series, nil
}

package storage

import (
	"encoding/json"
	"io"

	"github.com/hjelmeland/mbdsim/internal/dyn"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Residuals  []float64          `json:"residuals"`
	Lambdas    [][]float64        `json:"lambdas"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a full run as indented JSON.
func ExportJSON(w io.Writer, scenario, integrator string, dt, duration float64, result *dyn.Result) error {
	data := ExportData{
		Scenario:   scenario,
		Integrator: integrator,
		Dt:         dt,
		Duration:   duration,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Residuals:  result.Residuals,
		Lambdas:    result.Lambdas,
		Metrics:    result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/hjelmeland/mbdsim/internal/dyn"
)

func sampleResult() *dyn.Result {
	// Two steps of a one-body run with a three-row constraint.
	mk := func(fill float64) dyn.State {
		x := make(dyn.State, dyn.BodyStride)
		x[0] = 1
		x[4] = fill
		return x
	}
	return &dyn.Result{
		Times:      []float64{0, 0.01, 0.02},
		States:     []dyn.State{mk(0), mk(0.1), mk(0.2)},
		Lambdas:    [][]float64{{1, 2, 3}, {4, 5, 6}},
		Residuals:  []float64{0, 1e-9, 2e-9},
		Metrics:    map[string]float64{"residual_max": 2e-9},
		StepsTaken: 2,
	}
}

func TestSaveListLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	runID, err := st.Save("pendulum", "rk4", 0.01, 0.02, 1, sampleResult())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("List = %+v", runs)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Scenario != "pendulum" || meta.Integrator != "rk4" || meta.Bodies != 1 {
		t.Errorf("metadata: %+v", meta)
	}
	if meta.Metrics["residual_max"] != 2e-9 {
		t.Errorf("metrics not persisted: %v", meta.Metrics)
	}
}

func TestLoadSeries(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	runID, err := st.Save("pendulum", "rk4", 0.01, 0.02, 1, sampleResult())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	cols, times, series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}

	// 13 state columns, residual, 3 multipliers.
	if len(cols) != 17 {
		t.Fatalf("cols = %d (%v)", len(cols), cols)
	}
	if len(times) != 3 {
		t.Fatalf("times = %v", times)
	}

	find := func(name string) []float64 {
		for i, c := range cols {
			if c == name {
				return series[i]
			}
		}
		t.Fatalf("column %q missing", name)
		return nil
	}

	rx := find("b0_rx")
	want := []float64{0, 0.1, 0.2}
	for i := range want {
		if math.Abs(rx[i]-want[i]) > 1e-12 {
			t.Errorf("rx[%d] = %g, want %g", i, rx[i], want[i])
		}
	}

	// Multipliers are per step: the initial sample carries zeros, then
	// the recorded values follow.
	l0 := find("lambda0")
	wantL := []float64{0, 1, 4}
	for i := range wantL {
		if l0[i] != wantL[i] {
			t.Errorf("lambda0[%d] = %g, want %g", i, l0[i], wantL[i])
		}
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := st.Load("nope"); err == nil {
		t.Error("missing run loaded")
	}
	if _, _, _, err := st.LoadSeries("nope"); err == nil {
		t.Error("missing series loaded")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, "pendulum", "rk4", 0.01, 0.02, sampleResult()); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Scenario != "pendulum" || len(data.Times) != 3 || len(data.Lambdas) != 2 {
		t.Errorf("export: %+v", data)
	}
}

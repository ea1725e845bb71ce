package training

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/offloadml/offloadml/internal/decision"
	"github.com/offloadml/offloadml/internal/model"
	"github.com/offloadml/offloadml/internal/telemetry"
	"github.com/offloadml/offloadml/utils"
)

func floatPtr(v float64) *float64 { return &v }

func TestLabelDerivation(t *testing.T) {
	r := telemetry.Record{LocalTimeMs: floatPtr(300), RemoteTimeMs: floatPtr(100)}
	l, ok := label(&r)
	utils.AssertTrue(t, ok)
	utils.AssertEquals(t, 1, l)

	// ties favor local
	r = telemetry.Record{LocalTimeMs: floatPtr(200), RemoteTimeMs: floatPtr(200)}
	l, ok = label(&r)
	utils.AssertTrue(t, ok)
	utils.AssertEquals(t, 0, l)

	r = telemetry.Record{LocalTimeMs: floatPtr(100), RemoteTimeMs: floatPtr(300)}
	l, ok = label(&r)
	utils.AssertTrue(t, ok)
	utils.AssertEquals(t, 0, l)

	// a single observed timing cannot show remote was faster
	r = telemetry.Record{RemoteTimeMs: floatPtr(100)}
	l, ok = label(&r)
	utils.AssertTrue(t, ok)
	utils.AssertEquals(t, 0, l)

	// no timings, no ground truth
	r = telemetry.Record{}
	_, ok = label(&r)
	utils.AssertTrue(t, !ok)
}

func TestStratifiedSplitPreservesClasses(t *testing.T) {
	y := make([]int, 100)
	for i := 80; i < 100; i++ {
		y[i] = 1
	}
	rng := rand.New(rand.NewSource(42))
	train, test := stratifiedSplit(y, 0.25, rng)

	utils.AssertEquals(t, 100, len(train)+len(test))

	testRemote := 0
	for _, i := range test {
		testRemote += y[i]
	}
	utils.AssertEquals(t, 25, len(test))
	utils.AssertEquals(t, 5, testRemote)
}

func TestRunWithoutDataset(t *testing.T) {
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "empty.csv"))
	_, err := Run(store, t.TempDir(), DefaultOptions())
	utils.AssertErrorIs(t, err, ErrNoData)
}

func TestRunWithoutLabeledRows(t *testing.T) {
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "data.csv"))
	r := syntheticRecord(rand.New(rand.NewSource(1)))
	r.LocalTimeMs = nil
	r.RemoteTimeMs = nil
	utils.AssertNil(t, store.Append(&r))

	_, err := Run(store, t.TempDir(), DefaultOptions())
	utils.AssertErrorIs(t, err, ErrNoData)
}

// syntheticRecord draws one benchmark row. The ground truth follows a single
// rule: offloading wins exactly when the battery is below 20%, flipped with
// 3% probability so the dataset carries realistic noise.
func syntheticRecord(rng *rand.Rand) telemetry.Record {
	tasks := []string{"matrix_multiplication", "image_compression"}
	networks := []string{"wifi", "cellular"}
	devices := []string{"Pixel 7", "Galaxy S23"}

	battery := rng.Float64()
	remoteWins := battery < 0.2
	if rng.Float64() < 0.03 {
		remoteWins = !remoteWins
	}

	local, remote := 300.0, 500.0
	if remoteWins {
		remote = 100.0
	}

	return telemetry.Record{
		Timestamp:          float64(1700000000 + rng.Intn(100000)),
		TaskName:           tasks[rng.Intn(len(tasks))],
		NetworkType:        networks[rng.Intn(len(networks))],
		BatteryLevel:       battery,
		IsCharging:         rng.Intn(2) == 1,
		LatencyMs:          20 + 80*rng.Float64(),
		MatrixSize:         64 * (1 + rng.Intn(4)),
		LocalTimeMs:        &local,
		RemoteTimeMs:       &remote,
		DeviceManufacturer: "Google",
		DeviceModelName:    devices[rng.Intn(len(devices))],
		OsName:             "Android",
		OsVersion:          "14",
		TotalMemory:        7824,
		ServerCPULoad:      floatPtr(rng.Float64()),
	}
}

func writeSyntheticDataset(t *testing.T, n int, seed int64) *telemetry.Store {
	t.Helper()
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "data.csv"))
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		r := syntheticRecord(rng)
		utils.AssertNil(t, store.Append(&r))
	}
	return store
}

func TestRunPublishesUsableArtifactSet(t *testing.T) {
	store := writeSyntheticDataset(t, 600, 17)
	artifactsDir := t.TempDir()

	result, err := Run(store, artifactsDir, DefaultOptions())
	utils.AssertNil(t, err)
	utils.AssertTrue(t, result.Version != "")
	utils.AssertEquals(t, 600, result.Samples)
	utils.AssertEquals(t, 600, result.TrainSamples+result.TestSamples)
	utils.AssertTrue(t, result.RemoteCount > 0 && result.LocalCount > 0)
	utils.AssertTrueMsg(t, result.Report.Accuracy >= 0.9, "held-out accuracy degraded")

	set, err := model.LoadCurrent(artifactsDir)
	utils.AssertNil(t, err)
	utils.AssertEquals(t, result.Version, set.Version)
	utils.AssertEquals(t, result.Version, set.Schema.Version)
	utils.AssertEquals(t, result.Version, set.Scaler.Version)
	utils.AssertEquals(t, result.Version, set.Forest.Version)
}

// Trains on the synthetic low-battery rule and serves a live request against
// the published set: a drained battery must come back as a confident but not
// certain remote decision.
func TestTrainedModelServesOffloadDecision(t *testing.T) {
	store := writeSyntheticDataset(t, 600, 23)
	artifactsDir := t.TempDir()

	_, err := Run(store, artifactsDir, DefaultOptions())
	utils.AssertNil(t, err)

	service := decision.NewService()
	utils.AssertNil(t, service.Load(artifactsDir))

	d, err := service.Predict(map[string]interface{}{
		"task_name":             "matrix_multiplication",
		"network_type":          "wifi",
		"device_model_name":     "Pixel 7",
		"battery_level":         0.05,
		"is_charging":           false,
		"latency_ms":            40.0,
		"matrix_size":           128,
		"server_cpu_load":       0.3,
		"server_memory_percent": 50.0,
	})
	utils.AssertNil(t, err)
	utils.AssertEquals(t, decision.LabelRemote, d.Label)
	utils.AssertTrue(t, d.Probability > 0.5)
	utils.AssertTrue(t, d.Probability < 1.0)

	d, err = service.Predict(map[string]interface{}{
		"task_name":             "matrix_multiplication",
		"network_type":          "wifi",
		"device_model_name":     "Pixel 7",
		"battery_level":         0.95,
		"is_charging":           true,
		"latency_ms":            40.0,
		"matrix_size":           128,
		"server_cpu_load":       0.3,
		"server_memory_percent": 50.0,
	})
	utils.AssertNil(t, err)
	utils.AssertEquals(t, decision.LabelLocal, d.Label)
}

func TestRunIsReproducible(t *testing.T) {
	store := writeSyntheticDataset(t, 400, 31)

	a, err := Run(store, t.TempDir(), DefaultOptions())
	utils.AssertNil(t, err)
	b, err := Run(store, t.TempDir(), DefaultOptions())
	utils.AssertNil(t, err)

	utils.AssertEquals(t, a.Report.Accuracy, b.Report.Accuracy)
	utils.AssertEquals(t, a.Report.ROCAUC, b.Report.ROCAUC)
	utils.AssertEquals(t, a.Report.Remote, b.Report.Remote)
	utils.AssertEquals(t, a.TrainSamples, b.TrainSamples)
}

func TestRunGateRejectsWeakModel(t *testing.T) {
	store := writeSyntheticDataset(t, 200, 5)
	artifactsDir := t.TempDir()

	opts := DefaultOptions()
	opts.GateEnabled = true
	opts.MinAUC = 1.1 // unreachable on purpose

	_, err := Run(store, artifactsDir, opts)
	utils.AssertErrorIs(t, err, ErrGateRejected)

	// a rejected run must not publish anything
	_, err = model.LoadCurrent(artifactsDir)
	utils.AssertErrorIs(t, err, model.ErrNoArtifacts)
}

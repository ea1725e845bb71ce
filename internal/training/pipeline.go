package training

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/lithammer/shortuuid"

	"github.com/offloadml/offloadml/internal/config"
	"github.com/offloadml/offloadml/internal/features"
	"github.com/offloadml/offloadml/internal/model"
	"github.com/offloadml/offloadml/internal/telemetry"
)

var ErrNoData = errors.New("no labeled telemetry available for training")
var ErrGateRejected = errors.New("trained model rejected by the quality gate")

// Options drive one offline training run. Defaults: 25% stratified
// hold-out, 100 trees of depth 5, seed 42, no quality gate.
type Options struct {
	TestFraction float64
	Trees        int
	MaxDepth     int
	Seed         int64
	GateEnabled  bool
	MinAUC       float64
}

func DefaultOptions() Options {
	return Options{
		TestFraction: 0.25,
		Trees:        100,
		MaxDepth:     5,
		Seed:         42,
	}
}

func OptionsFromConfig() Options {
	def := DefaultOptions()
	return Options{
		TestFraction: config.GetFloat(config.TRAINING_TEST_FRACTION, def.TestFraction),
		Trees:        config.GetInt(config.TRAINING_TREES, def.Trees),
		MaxDepth:     config.GetInt(config.TRAINING_MAX_DEPTH, def.MaxDepth),
		Seed:         int64(config.GetInt(config.TRAINING_SEED, int(def.Seed))),
		GateEnabled:  config.GetBool(config.TRAINING_GATE_ENABLED, false),
		MinAUC:       config.GetFloat(config.TRAINING_GATE_MIN_AUC, 0.5),
	}
}

// Result summarizes a completed run.
type Result struct {
	Version      string
	Samples      int
	TrainSamples int
	TestSamples  int
	LocalCount   int
	RemoteCount  int
	Report       EvaluationReport
}

// label derives the ground truth of one record: Remote only when both
// timings are present and the remote run was strictly faster; ties favor
// Local. Records lacking both timings carry no ground truth.
func label(r *telemetry.Record) (int, bool) {
	if r.LocalTimeMs == nil && r.RemoteTimeMs == nil {
		return 0, false
	}
	if r.LocalTimeMs != nil && r.RemoteTimeMs != nil && *r.RemoteTimeMs < *r.LocalTimeMs {
		return 1, true
	}
	return 0, true
}

// rawFeatures flattens a record into the encoder's input shape.
func rawFeatures(r *telemetry.Record) map[string]interface{} {
	m := map[string]interface{}{
		"task_name":             r.TaskName,
		"network_type":          r.NetworkType,
		"device_model_name":     r.DeviceModelName,
		"battery_level":         r.BatteryLevel,
		"is_charging":           r.IsCharging,
		"latency_ms":            r.LatencyMs,
		"matrix_size":           r.MatrixSize,
		"image_size_kb":         r.ImageSizeKB,
		"server_cpu_load":       0.0,
		"server_memory_percent": 0.0,
	}
	if r.ServerCPULoad != nil {
		m["server_cpu_load"] = *r.ServerCPULoad
	}
	if r.ServerMemoryPercent != nil {
		m["server_memory_percent"] = *r.ServerMemoryPercent
	}
	return m
}

// stratifiedSplit partitions indices into train and test sets preserving the
// label class ratio; the Remote class is expected to be rare.
func stratifiedSplit(y []int, fraction float64, rng *rand.Rand) (train, test []int) {
	byClass := [2][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for c := 0; c < 2; c++ {
		indices := byClass[c]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(math.Round(fraction * float64(len(indices))))
		if nTest < 1 && len(indices) > 1 && fraction > 0 {
			nTest = 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}
	return train, test
}

// Run executes the offline pipeline: read the telemetry store, derive
// labels, fit schema + scaler + classifier, evaluate on the held-out split
// and publish everything as one matched artifact set. On any failure nothing
// is written and any previously published set stays intact.
func Run(store *telemetry.Store, artifactsDir string, opts Options) (*Result, error) {
	log.Println("Starting training pipeline")

	records, err := store.ReadAll()
	if err != nil {
		if errors.Is(err, telemetry.ErrDatasetMissing) {
			return nil, fmt.Errorf("%w: %v", ErrNoData, err)
		}
		return nil, err
	}
	log.Printf("Loaded %d telemetry records", len(records))

	var raws []map[string]interface{}
	var y []int
	observed := map[string][]string{}
	for i := range records {
		r := &records[i]
		l, ok := label(r)
		if !ok {
			continue
		}
		raws = append(raws, rawFeatures(r))
		y = append(y, l)
		observed["task_name"] = append(observed["task_name"], r.TaskName)
		observed["network_type"] = append(observed["network_type"], r.NetworkType)
		observed["device_model_name"] = append(observed["device_model_name"], r.DeviceModelName)
	}
	if len(raws) == 0 {
		return nil, ErrNoData
	}

	result := &Result{Samples: len(raws)}
	for _, l := range y {
		if l == 1 {
			result.RemoteCount++
		} else {
			result.LocalCount++
		}
	}
	log.Printf("Optimal decision distribution: local=%d, remote=%d", result.LocalCount, result.RemoteCount)

	schema := features.BuildSchema(observed)
	x := make([][]float64, len(raws))
	for i, raw := range raws {
		vec, err := features.Encode(raw, schema, nil)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		x[i] = vec
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	trainIdx, testIdx := stratifiedSplit(y, opts.TestFraction, rng)
	result.TrainSamples = len(trainIdx)
	result.TestSamples = len(testIdx)
	log.Printf("Training on %d samples, testing on %d samples", len(trainIdx), len(testIdx))

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	// the scaler is fitted on the training split only; fitting on the
	// held-out rows would leak them into the model
	scaler, err := features.FitScaler(xTrain, schema)
	if err != nil {
		return nil, err
	}
	if err := scaler.TransformAll(xTrain, schema); err != nil {
		return nil, err
	}
	if err := scaler.TransformAll(xTest, schema); err != nil {
		return nil, err
	}

	forest := model.TrainForest(xTrain, yTrain, model.ForestParams{
		Trees:    opts.Trees,
		MaxDepth: opts.MaxDepth,
		Seed:     opts.Seed,
	})

	yPred := make([]int, len(xTest))
	scores := make([]float64, len(xTest))
	for i, row := range xTest {
		p := forest.PredictProba(row)
		scores[i] = p[1]
		if p[1] > p[0] {
			yPred[i] = 1
		}
	}
	result.Report = Evaluate(yTest, yPred, scores)
	log.Printf("Evaluation on held-out split:\n%s", result.Report)

	if opts.GateEnabled && !math.IsNaN(result.Report.ROCAUC) && result.Report.ROCAUC < opts.MinAUC {
		return nil, fmt.Errorf("%w: ROC AUC %.4f below %.4f",
			ErrGateRejected, result.Report.ROCAUC, opts.MinAUC)
	}

	version := shortuuid.New()
	schema.Version = version
	scaler.Version = version
	forest.Version = version

	set := &model.ArtifactSet{Version: version, Schema: schema, Scaler: scaler, Forest: forest}
	if err := set.Save(artifactsDir); err != nil {
		return nil, fmt.Errorf("could not persist artifact set: %w", err)
	}
	result.Version = version
	log.Printf("Artifact set %s published to %s", version, artifactsDir)

	return result, nil
}

func subset(x [][]float64, y []int, indices []int) ([][]float64, []int) {
	xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for i, idx := range indices {
		xs[i] = x[idx]
		ys[i] = y[idx]
	}
	return xs, ys
}

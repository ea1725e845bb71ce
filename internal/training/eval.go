package training

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ClassMetrics are the per-class diagnostics of one evaluation.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// EvaluationReport mirrors the diagnostic output of the training pipeline:
// per-class precision/recall/F1, accuracy and ROC-AUC on the held-out split.
// It never gates artifact persistence unless the gate is explicitly enabled.
type EvaluationReport struct {
	Local    ClassMetrics
	Remote   ClassMetrics
	Accuracy float64
	ROCAUC   float64
}

func classMetrics(yTrue, yPred []int, class int) ClassMetrics {
	var tp, fp, fn float64
	support := 0
	for i := range yTrue {
		if yTrue[i] == class {
			support++
		}
		switch {
		case yPred[i] == class && yTrue[i] == class:
			tp++
		case yPred[i] == class && yTrue[i] != class:
			fp++
		case yPred[i] != class && yTrue[i] == class:
			fn++
		}
	}

	m := ClassMetrics{Support: support}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// rocAUC computes the area under the ROC curve for P(remote) scores.
// Returns NaN when the held-out split contains a single class.
func rocAUC(yTrue []int, scores []float64) float64 {
	positives := 0
	for _, y := range yTrue {
		positives += y
	}
	if positives == 0 || positives == len(yTrue) {
		return math.NaN()
	}

	type scored struct {
		score float64
		label bool
	}
	pairs := make([]scored, len(yTrue))
	for i := range yTrue {
		pairs[i] = scored{score: scores[i], label: yTrue[i] == 1}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	sortedScores := make([]float64, len(pairs))
	classes := make([]bool, len(pairs))
	for i, p := range pairs {
		sortedScores[i] = p.score
		classes[i] = p.label
	}

	tpr, fpr, _ := stat.ROC(nil, sortedScores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Evaluate scores predictions against ground truth.
func Evaluate(yTrue, yPred []int, scores []float64) EvaluationReport {
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	report := EvaluationReport{
		Local:  classMetrics(yTrue, yPred, 0),
		Remote: classMetrics(yTrue, yPred, 1),
		ROCAUC: rocAUC(yTrue, scores),
	}
	if len(yTrue) > 0 {
		report.Accuracy = float64(correct) / float64(len(yTrue))
	}
	return report
}

func (r EvaluationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	fmt.Fprintf(&b, "%-8s %9.2f %9.2f %9.2f %9d\n", "local", r.Local.Precision, r.Local.Recall, r.Local.F1, r.Local.Support)
	fmt.Fprintf(&b, "%-8s %9.2f %9.2f %9.2f %9d\n", "remote", r.Remote.Precision, r.Remote.Recall, r.Remote.F1, r.Remote.Support)
	fmt.Fprintf(&b, "accuracy %.4f, ROC AUC %.4f", r.Accuracy, r.ROCAUC)
	return b.String()
}

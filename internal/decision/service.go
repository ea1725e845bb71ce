package decision

import (
	"errors"
	"fmt"
	"sync"

	"github.com/offloadml/offloadml/internal/features"
	"github.com/offloadml/offloadml/internal/model"
)

// ErrModelUnavailable is reported while no artifact set is loaded. Callers
// must surface this distinctly: an offload decision is never guessed.
var ErrModelUnavailable = errors.New("no artifact set loaded")

var ErrEncoding = errors.New("could not encode request")

const LabelLocal = "local"
const LabelRemote = "remote"

// Decision is the outcome of one predict call. Probability is the
// classifier's confidence in the predicted class: P(local) for a local
// decision and P(remote) for a remote one.
type Decision struct {
	Label       string
	Probability float64
}

// Service serves offload decisions against a single loaded artifact set.
// The set is read-only and shared across requests; Load/Reload replace it
// atomically.
type Service struct {
	mu        sync.RWMutex
	artifacts *model.ArtifactSet
}

func NewService() *Service {
	return &Service{}
}

// Load reads the currently published artifact set from dir. The previous
// set, if any, stays in place when loading fails.
func (s *Service) Load(dir string) error {
	set, err := model.LoadCurrent(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.artifacts = set
	s.mu.Unlock()
	return nil
}

// Reload picks up a newer artifact set without restarting the process.
func (s *Service) Reload(dir string) error {
	return s.Load(dir)
}

func (s *Service) current() *model.ArtifactSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifacts
}

func (s *Service) Loaded() bool {
	return s.current() != nil
}

func (s *Service) Version() string {
	if set := s.current(); set != nil {
		return set.Version
	}
	return ""
}

// Predict encodes the raw request against the loaded schema and scaler and
// classifies it.
func (s *Service) Predict(req map[string]interface{}) (Decision, error) {
	set := s.current()
	if set == nil {
		return Decision{}, ErrModelUnavailable
	}

	vec, err := features.Encode(req, set.Schema, set.Scaler)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	class, confidence := set.Forest.Predict(vec)
	d := Decision{Label: LabelLocal, Probability: confidence}
	if class == 1 {
		d.Label = LabelRemote
	}
	return d, nil
}

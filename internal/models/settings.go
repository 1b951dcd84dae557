package models

import (
	"errors"
	"fmt"
	"math"
)

// Bounds for the confidence threshold slider.
const (
	MinConfidence  = 0.05
	MaxConfidence  = 0.95
	ConfidenceStep = 0.05
)

// Resolutions lists the inference sizes the backend accepts.
var Resolutions = []int{320, 640, 1280}

// ErrInvalidSettings is returned when inference settings fall outside the
// accepted ranges.
var ErrInvalidSettings = errors.New("invalid inference settings")

// InferenceSettings are the tunable detector parameters held by the backend.
type InferenceSettings struct {
	ConfidenceThreshold float64 `json:"conf" yaml:"conf"`
	InferenceResolution int     `json:"imgsz" yaml:"imgsz"`
}

// DefaultInferenceSettings mirrors the backend defaults used before the
// first load completes.
func DefaultInferenceSettings() InferenceSettings {
	return InferenceSettings{ConfidenceThreshold: 0.25, InferenceResolution: 640}
}

// Validate checks both fields against their allowed ranges.
func (s InferenceSettings) Validate() error {
	if math.IsNaN(s.ConfidenceThreshold) ||
		s.ConfidenceThreshold < MinConfidence-1e-9 ||
		s.ConfidenceThreshold > MaxConfidence+1e-9 {
		return fmt.Errorf("%w: confidence %.2f outside [%.2f, %.2f]",
			ErrInvalidSettings, s.ConfidenceThreshold, MinConfidence, MaxConfidence)
	}
	if !ValidResolution(s.InferenceResolution) {
		return fmt.Errorf("%w: resolution %d not one of %v",
			ErrInvalidSettings, s.InferenceResolution, Resolutions)
	}
	return nil
}

// ValidResolution reports whether px is an accepted inference size.
func ValidResolution(px int) bool {
	for _, r := range Resolutions {
		if r == px {
			return true
		}
	}
	return false
}

// StepConfidence moves the threshold by delta steps, clamped to bounds and
// rounded to the slider grid.
func (s InferenceSettings) StepConfidence(delta int) InferenceSettings {
	v := s.ConfidenceThreshold + float64(delta)*ConfidenceStep
	v = math.Round(v/ConfidenceStep) * ConfidenceStep
	v = math.Round(v*100) / 100
	if v < MinConfidence {
		v = MinConfidence
	}
	if v > MaxConfidence {
		v = MaxConfidence
	}
	s.ConfidenceThreshold = v
	return s
}

// CycleResolution selects the next (delta=1) or previous (delta=-1) size.
func (s InferenceSettings) CycleResolution(delta int) InferenceSettings {
	idx := 0
	for i, r := range Resolutions {
		if r == s.InferenceResolution {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(Resolutions)) % len(Resolutions)
	s.InferenceResolution = Resolutions[idx]
	return s
}

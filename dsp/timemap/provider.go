package timemap

import (
	"errors"
	"sort"
)

var (
	// ErrInvalidSpeedSchedule indicates step boundaries that are not strictly
	// increasing from zero, or a non-positive speed.
	ErrInvalidSpeedSchedule = errors.New("timemap: invalid speed schedule")
)

// SpeedProvider supplies the playback speed active at a given original-stream
// timestamp.
type SpeedProvider interface {
	// SpeedAt returns the speed factor in effect at timeUs.
	SpeedAt(timeUs int64) float64
	// NextSpeedChangeTimeUs returns the first timestamp strictly after timeUs
	// at which the speed changes, or ok=false if the speed holds until end of
	// stream.
	NextSpeedChangeTimeUs(timeUs int64) (changeUs int64, ok bool)
}

// StepProvider is a SpeedProvider backed by a piecewise-constant schedule:
// speeds[i] applies from startTimesUs[i] (inclusive) to startTimesUs[i+1]
// (exclusive), and the last speed holds forever.
type StepProvider struct {
	startTimesUs []int64
	speeds       []float64
}

// NewStepProvider builds a step schedule. startTimesUs must begin at 0 and be
// strictly increasing, speeds must be positive, and both slices must have the
// same non-zero length.
func NewStepProvider(startTimesUs []int64, speeds []float64) (*StepProvider, error) {
	if len(startTimesUs) == 0 || len(startTimesUs) != len(speeds) {
		return nil, ErrInvalidSpeedSchedule
	}
	if startTimesUs[0] != 0 {
		return nil, ErrInvalidSpeedSchedule
	}
	for i := range startTimesUs {
		if i > 0 && startTimesUs[i] <= startTimesUs[i-1] {
			return nil, ErrInvalidSpeedSchedule
		}
		if !(speeds[i] > 0) {
			return nil, ErrInvalidSpeedSchedule
		}
	}
	p := &StepProvider{
		startTimesUs: append([]int64(nil), startTimesUs...),
		speeds:       append([]float64(nil), speeds...),
	}
	return p, nil
}

// SpeedAt returns the speed of the step containing timeUs. Times before the
// schedule start use the first step.
func (p *StepProvider) SpeedAt(timeUs int64) float64 {
	return p.speeds[p.stepAt(timeUs)]
}

// NextSpeedChangeTimeUs returns the start of the step after the one
// containing timeUs.
func (p *StepProvider) NextSpeedChangeTimeUs(timeUs int64) (int64, bool) {
	i := p.stepAt(timeUs)
	if i+1 >= len(p.startTimesUs) {
		return 0, false
	}
	return p.startTimesUs[i+1], true
}

func (p *StepProvider) stepAt(timeUs int64) int {
	i := sort.Search(len(p.startTimesUs), func(i int) bool {
		return p.startTimesUs[i] > timeUs
	}) - 1
	if i < 0 {
		i = 0
	}
	return i
}

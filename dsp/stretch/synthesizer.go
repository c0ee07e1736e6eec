package stretch

import (
	"math"

	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// synthesizer removes (skip) or duplicates (insert) one pitch period at a
// time via a linear overlap-add crossfade.
//
// Frame counts computed from the speed ratio rarely land on whole frames;
// the fractional remainder is kept in carry and folded into the next
// computation so that rounding error never accumulates over the life of the
// stream. remainingInputToCopy tracks frames that must be passed through
// verbatim before the next estimation cycle, which can extend past the end of
// the currently buffered input.
type synthesizer[T Sample] struct {
	channels int

	carry                float64
	remainingInputToCopy int

	rampDown []float64
	rampUp   []float64
	downMix  []float64
	upMix    []float64
	rampLen  int
}

func newSynthesizer[T Sample](channels int) *synthesizer[T] {
	return &synthesizer[T]{channels: channels}
}

func (s *synthesizer[T]) reset() {
	s.carry = 0
	s.remainingInputToCopy = 0
}

// skipPeriod removes one pitch period starting at position, overlap-adding
// the following run onto the output. Used when speed > 1. Returns the number
// of frames written to the output.
func (s *synthesizer[T]) skipPeriod(in, out *FrameBuffer[T], position int, speed float64, period int) int {
	var produced int
	if speed >= 2 {
		expected := float64(period)/(speed-1) + s.carry
		produced = roundHalfUp(expected)
		s.carry = expected - float64(produced)
	} else {
		// Between 1x and 2x the crossfade spans a full period and the
		// remainder of the input must be copied through unmodified.
		produced = period
		expectedCopy := float64(period)*(2-speed)/(speed-1) + s.carry
		s.remainingInputToCopy = roundHalfUp(expectedCopy)
		s.carry = expectedCopy - float64(s.remainingInputToCopy)
	}
	out.ensureAdditional(produced)
	s.overlapAdd(produced, out, out.frames, in.samples, position, position+period)
	out.frames += produced
	return produced
}

// insertPeriod duplicates one pitch period starting at position. Used when
// speed < 1. Returns the number of overlap-added frames; the caller advances
// by that amount since the copied period itself is consumed input.
func (s *synthesizer[T]) insertPeriod(in, out *FrameBuffer[T], position int, speed float64, period int) int {
	var produced int
	if speed < 0.5 {
		expected := float64(period)*speed/(1-speed) + s.carry
		produced = roundHalfUp(expected)
		s.carry = expected - float64(produced)
	} else {
		produced = period
		expectedCopy := float64(period)*(2*speed-1)/(1-speed) + s.carry
		s.remainingInputToCopy = roundHalfUp(expectedCopy)
		s.carry = expectedCopy - float64(s.remainingInputToCopy)
	}
	out.ensureAdditional(period + produced)
	copy(out.samples[out.frames*s.channels:], in.samples[position*s.channels:(position+period)*s.channels])
	s.overlapAdd(produced, out, out.frames+period, in.samples, position+period, position)
	out.frames += period + produced
	return produced
}

// overlapAdd crossfades frameCount frames: a ramp-down of the run starting at
// rampDownPos against a ramp-up of the run starting at rampUpPos, writing the
// blend to the output at outPos. Weights are linear: (n-t)/n and t/n.
func (s *synthesizer[T]) overlapAdd(frameCount int, out *FrameBuffer[T], outPos int, in []T, rampDownPos, rampUpPos int) {
	if frameCount <= 0 {
		return
	}
	s.ensureRamps(frameCount)
	c := s.channels
	down := s.downMix[:frameCount]
	up := s.upMix[:frameCount]
	for ch := 0; ch < c; ch++ {
		d := rampDownPos*c + ch
		u := rampUpPos*c + ch
		for t := 0; t < frameCount; t++ {
			down[t] = toFloat(in[d])
			up[t] = toFloat(in[u])
			d += c
			u += c
		}
		vecmath.MulBlockInPlace(down, s.rampDown[:frameCount])
		vecmath.MulBlockInPlace(up, s.rampUp[:frameCount])
		vecmath.AddBlockInPlace(down, up)
		o := outPos*c + ch
		for t := 0; t < frameCount; t++ {
			out.samples[o] = quantize[T](down[t])
			o += c
		}
	}
}

func (s *synthesizer[T]) ensureRamps(n int) {
	if n == s.rampLen && n <= cap(s.rampDown) {
		s.downMix = core.EnsureLen(s.downMix, n)
		s.upMix = core.EnsureLen(s.upMix, n)
		return
	}
	s.rampDown = core.EnsureLen(s.rampDown, n)
	s.rampUp = core.EnsureLen(s.rampUp, n)
	s.downMix = core.EnsureLen(s.downMix, n)
	s.upMix = core.EnsureLen(s.upMix, n)
	inv := 1 / float64(n)
	for t := 0; t < n; t++ {
		w := float64(t) * inv
		s.rampUp[t] = w
		s.rampDown[t] = 1 - w
	}
	s.rampLen = n
}

// roundHalfUp rounds to the nearest integer with halves rounding up.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

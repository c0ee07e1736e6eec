package stretch

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// periodEstimator locates the dominant pitch period within the search window
// using an AMDF metric: diff(p) = sum |x[i] - x[i+p]|, normalized by p.
//
// When the sample rate is above amdfRateHz the search first runs on a
// channel-mixed, decimated copy of the signal and is then refined around the
// coarse result at full rate. Hysteresis against the previous period handles
// the abrupt end of voiced sounds, where the fresh estimate is unreliable.
type periodEstimator[T Sample] struct {
	sampleRate int
	channels   int
	minPeriod  int
	maxPeriod  int

	down []float64

	minDiff     float64
	maxDiff     float64
	prevMinDiff float64
	prevPeriod  int
}

func newPeriodEstimator[T Sample](sampleRate, channels, minPeriod, maxPeriod, windowFrames int) *periodEstimator[T] {
	return &periodEstimator[T]{
		sampleRate: sampleRate,
		channels:   channels,
		minPeriod:  minPeriod,
		maxPeriod:  maxPeriod,
		down:       make([]float64, windowFrames),
	}
}

func (e *periodEstimator[T]) reset() {
	e.minDiff = 0
	e.maxDiff = 0
	e.prevMinDiff = 0
	e.prevPeriod = 0
}

// estimate returns the pitch period in frames at positionFrames of the
// interleaved input. The window [positionFrames, positionFrames+2*maxPeriod)
// must be valid.
func (e *periodEstimator[T]) estimate(in []T, positionFrames int) int {
	skip := 1
	if e.sampleRate > amdfRateHz {
		skip = e.sampleRate / amdfRateHz
	}

	var period int
	if e.channels == 1 && skip == 1 {
		period = e.searchSamples(in, positionFrames, e.minPeriod, e.maxPeriod)
	} else {
		e.downSample(in, positionFrames, skip)
		period = e.searchDown(e.minPeriod/skip, e.maxPeriod/skip)
		if skip != 1 {
			period *= skip
			minP := period - skip*4
			maxP := period + skip*4
			if minP < e.minPeriod {
				minP = e.minPeriod
			}
			if maxP > e.maxPeriod {
				maxP = e.maxPeriod
			}
			if e.channels == 1 {
				period = e.searchSamples(in, positionFrames, minP, maxP)
			} else {
				e.downSample(in, positionFrames, 1)
				period = e.searchDown(minP, maxP)
			}
		}
	}

	ret := period
	if e.previousPeriodBetter() {
		ret = e.prevPeriod
	}
	e.prevMinDiff = e.minDiff
	e.prevPeriod = period
	return ret
}

// previousPeriodBetter reports whether the previous estimate should be reused,
// which happens when the current window has no confident match but the
// previous one did.
func (e *periodEstimator[T]) previousPeriodBetter() bool {
	if e.minDiff == 0 || e.prevPeriod == 0 {
		return false
	}
	if e.maxDiff > e.minDiff*3 {
		// Reasonable match in this window.
		return false
	}
	if e.minDiff*2 <= e.prevMinDiff*3 {
		// Mismatch is not much greater than last time.
		return false
	}
	return true
}

// downSample mixes channels together and averages skip frames per output
// value into the scratch buffer.
func (e *periodEstimator[T]) downSample(in []T, positionFrames, skip int) {
	frameCount := len(e.down) / skip
	samplesPerValue := e.channels * skip
	base := positionFrames * e.channels
	buf := e.down[:frameCount]
	for i := range buf {
		sum := 0.0
		off := base + i*samplesPerValue
		for j := 0; j < samplesPerValue; j++ {
			sum += toFloat(in[off+j])
		}
		buf[i] = sum
	}
	vecmath.ScaleBlock(buf, buf, 1/float64(samplesPerValue))
}

// searchSamples runs the AMDF search directly on the input buffer. Only used
// for mono input, so consecutive samples are consecutive frames.
func (e *periodEstimator[T]) searchSamples(in []T, positionFrames, minPeriod, maxPeriod int) int {
	bestPeriod := 0
	worstPeriod := 255
	minDiff := 1.0
	maxDiff := 0.0
	base := positionFrames * e.channels
	for period := minPeriod; period <= maxPeriod; period++ {
		diff := 0.0
		for i := 0; i < period; i++ {
			diff += math.Abs(toFloat(in[base+i]) - toFloat(in[base+period+i]))
		}
		if diff*float64(bestPeriod) < minDiff*float64(period) {
			minDiff = diff
			bestPeriod = period
		}
		if diff*float64(worstPeriod) > maxDiff*float64(period) {
			maxDiff = diff
			worstPeriod = period
		}
	}
	e.minDiff = minDiff / float64(bestPeriod)
	e.maxDiff = maxDiff / float64(worstPeriod)
	return bestPeriod
}

// searchDown runs the AMDF search on the downsample scratch buffer.
func (e *periodEstimator[T]) searchDown(minPeriod, maxPeriod int) int {
	bestPeriod := 0
	worstPeriod := 255
	minDiff := 1.0
	maxDiff := 0.0
	for period := minPeriod; period <= maxPeriod; period++ {
		diff := 0.0
		for i := 0; i < period; i++ {
			diff += math.Abs(e.down[i] - e.down[period+i])
		}
		if diff*float64(bestPeriod) < minDiff*float64(period) {
			minDiff = diff
			bestPeriod = period
		}
		if diff*float64(worstPeriod) > maxDiff*float64(period) {
			maxDiff = diff
			worstPeriod = period
		}
	}
	e.minDiff = minDiff / float64(bestPeriod)
	e.maxDiff = maxDiff / float64(worstPeriod)
	return bestPeriod
}

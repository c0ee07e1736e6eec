package stretch

import (
	"math"

	"github.com/cwbudde/algo-stretch/dsp/core"
)

// Sample constrains the PCM sample formats supported by the engine:
// 16-bit signed integer or 32-bit float, both interleaved and little-endian
// on the wire (see the pcm package for byte conversion).
type Sample interface {
	int16 | float32
}

// toFloat widens a sample to float64 for internal arithmetic. Integer samples
// keep their raw scale; they are not normalized to [-1, 1].
func toFloat[T Sample](v T) float64 {
	return float64(v)
}

// quantize converts an internal float64 value back to the sample format.
// int16 rounds to nearest and saturates; float32 does not quantize.
func quantize[T Sample](v float64) T {
	var zero T
	if _, ok := any(zero).(int16); ok {
		return T(int16(core.Clamp(math.Floor(v+0.5), math.MinInt16, math.MaxInt16)))
	}
	return T(v)
}

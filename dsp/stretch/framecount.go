package stretch

import (
	"math/big"
	"strconv"
)

// ExpectedOutputFrameCount returns the total output frame count a Stretcher
// configured with the given parameters produces for inputFrames frames of
// input, once end of stream has been queued and drained.
//
// The stretch stage rounds to whole frames, and the resampler loses the
// fractional part of truncate(inputRate/rateRatio) once per processing call;
// both effects are folded in here, so the result matches the engine exactly
// for single-shot input and to within a frame for chunked input.
func ExpectedOutputFrameCount(inputRate, outputRate int, speed, pitch float64, inputFrames int64) int64 {
	speedRatio, rateRatio := ratios(inputRate, outputRate, speed, pitch)

	afterStretch := big.NewInt(inputFrames)
	if outsideUnity(speedRatio) {
		afterStretch = roundHalfEven(new(big.Rat).Quo(new(big.Rat).SetInt64(inputFrames), speedRatio))
	}
	if rateRatio.Cmp(ratOne) == 0 {
		return afterStretch.Int64()
	}

	afterResample := roundHalfEven(new(big.Rat).Quo(new(big.Rat).SetInt(afterStretch), rateRatio))
	return afterResample.Int64() - resamplingTruncationError(afterStretch, int64(inputRate), rateRatio)
}

// resamplingTruncationError returns the number of output frames lost to the
// resampler's integer truncation of the derived rate over length input
// frames: floor(length/sampleRate * frac(sampleRate/rateRatio)).
func resamplingTruncationError(length *big.Int, sampleRate int64, rateRatio *big.Rat) int64 {
	errorCount := new(big.Rat).SetFrac(length, big.NewInt(sampleRate))

	resampledRate := new(big.Rat).Quo(new(big.Rat).SetInt64(sampleRate), rateRatio)
	individualError := new(big.Rat).Sub(resampledRate, new(big.Rat).SetInt(intFloor(resampledRate)))

	return intFloor(new(big.Rat).Mul(errorCount, individualError)).Int64()
}

// ExpectedInputFrameCountForOutput returns the input frame count required to
// produce outputFrames frames of output under the given parameters. It is
// the inverse of ExpectedOutputFrameCount, including the resampler's
// truncation of the derived rate.
func ExpectedInputFrameCountForOutput(inputRate, outputRate int, speed, pitch float64, outputFrames int64) int64 {
	speedRatio, rateRatio := ratios(inputRate, outputRate, speed, pitch)

	resampledRate := new(big.Rat).Quo(new(big.Rat).SetInt64(int64(inputRate)), rateRatio)
	denominator := intFloor(resampledRate)
	numerator := new(big.Int).Mul(big.NewInt(int64(inputRate)), big.NewInt(outputFrames))
	beforeResample := intFloor(new(big.Rat).SetFrac(numerator, denominator))

	if !outsideUnity(speedRatio) {
		return beforeResample.Int64()
	}
	return intFloor(new(big.Rat).Mul(new(big.Rat).SetInt(beforeResample), speedRatio)).Int64()
}

var (
	ratOne           = big.NewRat(1, 1)
	speedupLimitRat  = mustRat("1.00001")
	slowdownLimitRat = mustRat("0.99999")
)

// ratios returns the stretch ratio speed/pitch and the resampling ratio
// pitch*inputRate/outputRate as exact rationals over the decimal values of
// the float arguments.
func ratios(inputRate, outputRate int, speed, pitch float64) (speedRatio, rateRatio *big.Rat) {
	bigPitch := ratFromFloat(pitch)
	speedRatio = new(big.Rat).Quo(ratFromFloat(speed), bigPitch)
	rateRatio = new(big.Rat).Mul(new(big.Rat).SetFrac64(int64(inputRate), int64(outputRate)), bigPitch)
	return speedRatio, rateRatio
}

// outsideUnity reports whether the ratio falls outside the copy-through band
// around 1, mirroring the engine's bypass condition.
func outsideUnity(ratio *big.Rat) bool {
	return ratio.Cmp(speedupLimitRat) > 0 || ratio.Cmp(slowdownLimitRat) < 0
}

// ratFromFloat converts through the shortest decimal string that round-trips
// to v, so that e.g. 0.33 becomes exactly 33/100 rather than its binary
// approximation. The engine's accounting works with the decimal values the
// caller wrote down, not their float images.
func ratFromFloat(v float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'g', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(v)
	}
	return r
}

func mustRat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("stretch: bad rational literal " + s)
	}
	return r
}

// intFloor returns the largest integer not greater than r, for non-negative r.
func intFloor(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}

// roundHalfEven rounds r to the nearest integer with ties going to the even
// neighbor.
func roundHalfEven(r *big.Rat) *big.Int {
	floor := intFloor(r)
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(floor))
	cmp := frac.Cmp(big.NewRat(1, 2))
	switch {
	case cmp > 0:
		return new(big.Int).Add(floor, big.NewInt(1))
	case cmp < 0:
		return floor
	default:
		if floor.Bit(0) == 1 {
			return new(big.Int).Add(floor, big.NewInt(1))
		}
		return floor
	}
}

package stretch

// rateConverter realizes the fractional rate ratio pitch*inputRate/outputRate
// with a Bresenham-like stepping scheme: two integer counters track the
// alignment of old-rate and new-rate sample clocks, so there is no floating
// accumulation error over arbitrarily long streams.
type rateConverter struct {
	oldRatePosition int64
	newRatePosition int64
}

func (r *rateConverter) reset() {
	r.oldRatePosition = 0
	r.newRatePosition = 0
}

// adjustRate moves output produced since originalOutputFrames into the pitch
// buffer and re-emits it resampled by rate. One frame is always left in the
// pitch buffer so the next call can interpolate across the boundary.
func (p *Stretcher[T]) adjustRate(rate float64, originalOutputFrames int) {
	if p.output.frames == originalOutputFrames {
		return
	}
	newSampleRate := int64(float64(p.inputRate) / rate)
	oldSampleRate := int64(p.inputRate)
	// Halve both rates while even to bound the stepping loop.
	for newSampleRate != 0 && oldSampleRate != 0 && newSampleRate%2 == 0 && oldSampleRate%2 == 0 {
		newSampleRate /= 2
		oldSampleRate /= 2
	}
	p.moveNewSamplesToPitchBuffer(originalOutputFrames)
	for position := 0; position < p.pitchBuf.frames-1; position++ {
		for (p.res.oldRatePosition+1)*newSampleRate > p.res.newRatePosition*oldSampleRate {
			p.output.ensureAdditional(1)
			p.interpolateFrame(position, oldSampleRate, newSampleRate)
			p.res.newRatePosition++
			p.output.frames++
		}
		p.res.oldRatePosition++
		if p.res.oldRatePosition == oldSampleRate {
			p.res.oldRatePosition = 0
			p.res.newRatePosition = 0
		}
	}
	p.pitchBuf.Drop(p.pitchBuf.frames - 1)
}

// interpolateFrame linearly interpolates the pitch-buffer frames at position
// and position+1 onto the end of the output buffer, weighted by the current
// rate counter alignment.
func (p *Stretcher[T]) interpolateFrame(position int, oldSampleRate, newSampleRate int64) {
	in := p.pitchBuf.samples
	base := position * p.channels
	outBase := p.output.frames * p.channels
	samplePosition := p.res.newRatePosition * oldSampleRate
	rightPosition := (p.res.oldRatePosition + 1) * newSampleRate
	ratio := rightPosition - samplePosition
	width := rightPosition - p.res.oldRatePosition*newSampleRate
	for ch := 0; ch < p.channels; ch++ {
		left := toFloat(in[base+ch])
		right := toFloat(in[base+p.channels+ch])
		v := (float64(ratio)*left + float64(width-ratio)*right) / float64(width)
		p.output.samples[outBase+ch] = quantize[T](v)
	}
}

// moveNewSamplesToPitchBuffer transfers output frames produced after
// originalOutputFrames to the end of the pitch buffer.
func (p *Stretcher[T]) moveNewSamplesToPitchBuffer(originalOutputFrames int) {
	frameCount := p.output.frames - originalOutputFrames
	p.pitchBuf.ensureAdditional(frameCount)
	copy(
		p.pitchBuf.samples[p.pitchBuf.frames*p.channels:],
		p.output.samples[originalOutputFrames*p.channels:p.output.frames*p.channels],
	)
	p.output.frames = originalOutputFrames
	p.pitchBuf.frames += frameCount
}

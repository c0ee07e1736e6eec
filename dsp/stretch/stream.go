package stretch

import (
	"errors"
	"math"
)

const (
	// Pitch-period search bounds in Hz.
	minPitchHz = 65
	maxPitchHz = 400
	// The AMDF search runs on a copy decimated to roughly this rate.
	amdfRateHz = 4000

	// Speed-over-pitch ratios inside (slowdownLimit, speedupLimit) bypass the
	// stretch stage entirely and copy input through.
	speedupLimit  = 1.00001
	slowdownLimit = 0.99999
)

var (
	// ErrInvalidSampleRate indicates a non-positive input or output sample rate.
	ErrInvalidSampleRate = errors.New("stretch: invalid sample rate")
	// ErrInvalidChannelCount indicates a non-positive channel count.
	ErrInvalidChannelCount = errors.New("stretch: invalid channel count")
	// ErrInvalidSpeed indicates a speed factor outside (0, +Inf).
	ErrInvalidSpeed = errors.New("stretch: invalid speed")
	// ErrInvalidPitch indicates a pitch factor outside (0, +Inf).
	ErrInvalidPitch = errors.New("stretch: invalid pitch")
	// ErrNoInput indicates ReadOutput was called before any input was queued.
	ErrNoInput = errors.New("stretch: no input queued")
)

type config struct {
	speed      float64
	pitch      float64
	outputRate int
}

// Option configures a Stretcher.
type Option func(*config)

// WithSpeed sets the duration scale factor. 2.0 halves the duration, 0.5
// doubles it. Defaults to 1.0.
func WithSpeed(speed float64) Option {
	return func(cfg *config) {
		cfg.speed = speed
	}
}

// WithPitch sets the pitch scale factor. 2.0 shifts up one octave, 0.5 down
// one octave. Defaults to 1.0.
func WithPitch(pitch float64) Option {
	return func(cfg *config) {
		cfg.pitch = pitch
	}
}

// WithOutputRate sets the output sample rate in Hz. Defaults to the input
// sample rate.
func WithOutputRate(sampleRate int) Option {
	return func(cfg *config) {
		cfg.outputRate = sampleRate
	}
}

// Stretcher is a streaming time-stretch / pitch-shift processor over
// interleaved samples of format T.
//
// The processing path (QueueInput, ReadOutput, QueueEndOfStream, Flush) is
// synchronous and performs no locking; callers must drive it from a single
// goroutine.
type Stretcher[T Sample] struct {
	inputRate  int
	outputRate int
	channels   int
	speed      float64
	pitch      float64
	rate       float64

	minPeriod   int
	maxPeriod   int
	maxRequired int

	input    *FrameBuffer[T]
	output   *FrameBuffer[T]
	pitchBuf *FrameBuffer[T]

	est *periodEstimator[T]
	syn *synthesizer[T]
	res rateConverter

	inputQueued bool
	eosQueued   bool
}

// New creates a Stretcher for interleaved input at the given sample rate and
// channel count. Configuration errors fail fast; there are no recoverable
// error states once constructed.
func New[T Sample](inputSampleRate, channelCount int, opts ...Option) (*Stretcher[T], error) {
	cfg := config{speed: 1, pitch: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.outputRate == 0 {
		cfg.outputRate = inputSampleRate
	}

	if inputSampleRate <= 0 || cfg.outputRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if channelCount <= 0 {
		return nil, ErrInvalidChannelCount
	}
	if !(cfg.speed > 0) || math.IsInf(cfg.speed, 0) {
		return nil, ErrInvalidSpeed
	}
	if !(cfg.pitch > 0) || math.IsInf(cfg.pitch, 0) {
		return nil, ErrInvalidPitch
	}

	p := &Stretcher[T]{
		inputRate:  inputSampleRate,
		outputRate: cfg.outputRate,
		channels:   channelCount,
		speed:      cfg.speed,
		pitch:      cfg.pitch,
		rate:       float64(inputSampleRate) / float64(cfg.outputRate),
		minPeriod:  inputSampleRate / maxPitchHz,
		maxPeriod:  inputSampleRate / minPitchHz,
	}
	p.maxRequired = 2 * p.maxPeriod

	p.input, _ = NewFrameBuffer[T](channelCount, p.maxRequired)
	p.output, _ = NewFrameBuffer[T](channelCount, p.maxRequired)
	p.pitchBuf, _ = NewFrameBuffer[T](channelCount, p.maxRequired)
	p.est = newPeriodEstimator[T](inputSampleRate, channelCount, p.minPeriod, p.maxPeriod, p.maxRequired)
	p.syn = newSynthesizer[T](channelCount)
	return p, nil
}

// InputSampleRate returns the configured input sample rate in Hz.
func (p *Stretcher[T]) InputSampleRate() int { return p.inputRate }

// OutputSampleRate returns the configured output sample rate in Hz.
func (p *Stretcher[T]) OutputSampleRate() int { return p.outputRate }

// ChannelCount returns the number of interleaved channels.
func (p *Stretcher[T]) ChannelCount() int { return p.channels }

// Speed returns the duration scale factor.
func (p *Stretcher[T]) Speed() float64 { return p.speed }

// Pitch returns the pitch scale factor.
func (p *Stretcher[T]) Pitch() float64 { return p.pitch }

// PeriodBounds returns the pitch-period search range in frames.
func (p *Stretcher[T]) PeriodBounds() (minPeriod, maxPeriod int) {
	return p.minPeriod, p.maxPeriod
}

// PendingInputFrames returns input frames queued but not yet processed.
func (p *Stretcher[T]) PendingInputFrames() int { return p.input.frames }

// OutputFrames returns frames available to ReadOutput.
func (p *Stretcher[T]) OutputFrames() int { return p.output.frames }

// Ended reports whether end of stream was queued and all output consumed.
func (p *Stretcher[T]) Ended() bool { return p.eosQueued && p.output.frames == 0 }

// QueueInput appends whole frames of interleaved samples and processes as
// much of the buffered input as possible.
func (p *Stretcher[T]) QueueInput(samples []T) error {
	if err := p.input.Append(samples); err != nil {
		return err
	}
	p.inputQueued = true
	p.processInput()
	return nil
}

// ReadOutput copies up to len(dst) samples of processed output into dst and
// consumes them. It returns the number of whole frames copied. dst must hold
// a whole number of frames.
func (p *Stretcher[T]) ReadOutput(dst []T) (int, error) {
	if len(dst)%p.channels != 0 {
		return 0, ErrPartialFrame
	}
	if !p.inputQueued && !p.eosQueued {
		return 0, ErrNoInput
	}
	frames := len(dst) / p.channels
	if frames > p.output.frames {
		frames = p.output.frames
	}
	copy(dst, p.output.samples[:frames*p.channels])
	p.output.Drop(frames)
	return frames, nil
}

// QueueEndOfStream pads the input with silence to drain the stretch and
// pitch pipelines, then truncates the output to the expected frame count so
// that the padding does not leak as trailing silence. The expected count can
// go negative when little input arrived before end of stream; the output is
// then truncated to zero frames.
func (p *Stretcher[T]) QueueEndOfStream() {
	remaining := p.input.frames
	s := p.speed / p.pitch
	r := p.rate * p.pitch

	// Frames pending verbatim copy-through receive no stretch processing and
	// must not be divided by the speed ratio.
	adjustedRemaining := remaining - p.syn.remainingInputToCopy

	expected := p.output.frames +
		int((float64(adjustedRemaining)/s+
			float64(p.syn.remainingInputToCopy)+
			p.syn.carry+
			float64(p.pitchBuf.frames))/r+0.5)
	p.syn.carry = 0

	p.input.AppendZero(2 * p.maxRequired)
	p.processInput()

	if p.output.frames > expected {
		if expected < 0 {
			expected = 0
		}
		p.output.Truncate(expected)
	}
	p.input.Truncate(0)
	p.syn.remainingInputToCopy = 0
	p.pitchBuf.Truncate(0)
	p.eosQueued = true
}

// Flush clears all buffered audio and processing state in preparation for a
// new stream. The configured speed, pitch and sample rates are unchanged.
func (p *Stretcher[T]) Flush() {
	p.input.Truncate(0)
	p.output.Truncate(0)
	p.pitchBuf.Truncate(0)
	p.res.reset()
	p.syn.reset()
	p.est.reset()
	p.inputQueued = false
	p.eosQueued = false
}

// processInput runs the stretch stage (or the near-unity copy-through
// bypass) over the buffered input, then resamples any newly produced output
// when the combined rate ratio is not 1.
func (p *Stretcher[T]) processInput() {
	originalOutputFrames := p.output.frames
	s := p.speed / p.pitch
	r := p.rate * p.pitch
	if s > speedupLimit || s < slowdownLimit {
		p.changeSpeed(s)
	} else {
		p.copyToOutput(0, p.input.frames)
		p.input.frames = 0
	}
	if r != 1.0 {
		p.adjustRate(r, originalOutputFrames)
	}
}

// changeSpeed consumes buffered input a pitch period at a time until fewer
// than 2*maxPeriod frames remain, then compacts the input buffer.
func (p *Stretcher[T]) changeSpeed(speed float64) {
	if p.input.frames < p.maxRequired {
		return
	}
	frameCount := p.input.frames
	position := 0
	for {
		if p.syn.remainingInputToCopy > 0 {
			position += p.copyInputToOutput(position)
		} else {
			period := p.est.estimate(p.input.samples, position)
			if speed > 1 {
				position += period + p.syn.skipPeriod(p.input, p.output, position, speed, period)
			} else {
				position += p.syn.insertPeriod(p.input, p.output, position, speed, period)
			}
		}
		if position+p.maxRequired > frameCount {
			break
		}
	}
	p.input.Drop(position)
}

// copyInputToOutput passes through frames owed from a previous skip/insert
// computation, up to one stretch window at a time.
func (p *Stretcher[T]) copyInputToOutput(position int) int {
	frameCount := p.syn.remainingInputToCopy
	if frameCount > p.maxRequired {
		frameCount = p.maxRequired
	}
	p.copyToOutput(position, frameCount)
	p.syn.remainingInputToCopy -= frameCount
	return frameCount
}

func (p *Stretcher[T]) copyToOutput(position, frameCount int) {
	p.output.ensureAdditional(frameCount)
	copy(
		p.output.samples[p.output.frames*p.channels:],
		p.input.samples[position*p.channels:(position+frameCount)*p.channels],
	)
	p.output.frames += frameCount
}

package timemap

import (
	"errors"

	"github.com/cwbudde/algo-stretch/dsp/stretch"
)

const microsPerSecond = 1_000_000

var (
	// ErrNilSpeedProvider indicates a Processor constructed without a speed
	// provider.
	ErrNilSpeedProvider = errors.New("timemap: nil speed provider")
)

// Processor applies time-varying speed changes to a stream of interleaved
// samples. Each input frame is processed at the speed its timestamp maps to
// under the configured SpeedProvider; pitch follows speed, so sped-up audio
// sounds higher, matching varispeed playback.
//
// Input crossing a speed boundary is only partially consumed: QueueInput
// returns how many samples it took, and the caller re-offers the remainder,
// which then starts the next segment. Committed segments are recorded in the
// Tracker for time conversion queries.
type Processor[T stretch.Sample] struct {
	sampleRate int
	channels   int
	provider   SpeedProvider
	tracker    *Tracker

	// Active only while the current segment's speed is not 1; passthrough
	// segments bypass it entirely.
	stretcher *stretch.Stretcher[T]

	output  *stretch.FrameBuffer[T]
	scratch []T

	speed           float64
	framesRead      int64
	segmentStartUs  int64
	segmentFramesIn int64
	eosQueued       bool
	eosSentToEngine bool
}

// NewProcessor creates a Processor for interleaved input at the given sample
// rate and channel count.
func NewProcessor[T stretch.Sample](sampleRate, channelCount int, provider SpeedProvider) (*Processor[T], error) {
	if sampleRate <= 0 {
		return nil, stretch.ErrInvalidSampleRate
	}
	if channelCount <= 0 {
		return nil, stretch.ErrInvalidChannelCount
	}
	if provider == nil {
		return nil, ErrNilSpeedProvider
	}
	output, _ := stretch.NewFrameBuffer[T](channelCount, 0)
	return &Processor[T]{
		sampleRate: sampleRate,
		channels:   channelCount,
		provider:   provider,
		tracker:    NewTracker(),
		output:     output,
		speed:      1,
	}, nil
}

// Tracker returns the time mapping built up by processing. It remains valid
// across Flush.
func (p *Processor[T]) Tracker() *Tracker { return p.tracker }

// QueueInput processes whole frames of interleaved samples and returns the
// number of samples consumed. Consumption stops at the next speed boundary;
// callers re-offer the unconsumed tail, which is then processed at the new
// speed. A short return is not an error.
func (p *Processor[T]) QueueInput(samples []T) (int, error) {
	if len(samples)%p.channels != 0 {
		return 0, stretch.ErrPartialFrame
	}

	timeUs := scaleFloor(p.framesRead, microsPerSecond, int64(p.sampleRate))
	newSpeed := p.provider.SpeedAt(timeUs)
	if newSpeed != p.speed {
		p.tracker.SpeedChangeAt(timeUs, newSpeed)
		p.speed = newSpeed
		p.segmentStartUs = timeUs
		p.segmentFramesIn = 0
		p.eosSentToEngine = false
		if err := p.rebuildStretcher(); err != nil {
			return 0, err
		}
	}

	frames := int64(len(samples)) / int64(p.channels)
	atBoundary := false
	if nextChangeUs, ok := p.provider.NextSpeedChangeTimeUs(timeUs); ok {
		// Round up so every frame before the change stays in this segment.
		framesToChange := scaleCeil(nextChangeUs-timeUs, int64(p.sampleRate), microsPerSecond)
		if frames >= framesToChange {
			frames = framesToChange
			atBoundary = true
		}
	}
	consumed := int(frames) * p.channels

	if p.stretcher != nil {
		if err := p.stretcher.QueueInput(samples[:consumed]); err != nil {
			return 0, err
		}
		if atBoundary {
			p.stretcher.QueueEndOfStream()
			p.eosSentToEngine = true
		}
		p.drainStretcher()
	} else {
		if err := p.output.Append(samples[:consumed]); err != nil {
			return 0, err
		}
	}

	p.framesRead += frames
	p.segmentFramesIn += frames
	p.tracker.MarkProcessed(p.processedInputTimeUs())
	return consumed, nil
}

// QueueEndOfStream drains the active segment's engine. No further input may
// be queued until Flush.
func (p *Processor[T]) QueueEndOfStream() {
	if p.stretcher != nil && !p.eosSentToEngine {
		p.stretcher.QueueEndOfStream()
		p.eosSentToEngine = true
		p.drainStretcher()
	}
	p.eosQueued = true
	if p.Ended() {
		p.tracker.MarkEnded()
	}
}

// ReadOutput copies up to len(dst) processed samples into dst and consumes
// them, returning the number of whole frames copied. dst must hold a whole
// number of frames.
func (p *Processor[T]) ReadOutput(dst []T) (int, error) {
	if len(dst)%p.channels != 0 {
		return 0, stretch.ErrPartialFrame
	}
	frames := len(dst) / p.channels
	if frames > p.output.FrameCount() {
		frames = p.output.FrameCount()
	}
	copy(dst, p.output.Samples()[:frames*p.channels])
	p.output.Drop(frames)
	if p.eosQueued && p.Ended() {
		p.tracker.MarkEnded()
	}
	return frames, nil
}

// OutputFrames returns frames available to ReadOutput.
func (p *Processor[T]) OutputFrames() int { return p.output.FrameCount() }

// Ended reports whether end of stream was queued and all output consumed.
func (p *Processor[T]) Ended() bool {
	return p.eosQueued && p.output.FrameCount() == 0
}

// Flush discards buffered audio and resets for a new stream. The tracker's
// segment map is reset alongside; see Tracker.Flush for what survives.
func (p *Processor[T]) Flush() {
	p.output.Truncate(0)
	p.stretcher = nil
	p.speed = 1
	p.framesRead = 0
	p.segmentStartUs = 0
	p.segmentFramesIn = 0
	p.eosQueued = false
	p.eosSentToEngine = false
	p.tracker.Flush()
}

// rebuildStretcher replaces the engine for a new segment's speed. Speed and
// pitch are set together so duration scaling comes with the matching pitch
// shift.
func (p *Processor[T]) rebuildStretcher() error {
	if p.speed == 1 {
		p.stretcher = nil
		return nil
	}
	s, err := stretch.New[T](
		p.sampleRate,
		p.channels,
		stretch.WithSpeed(p.speed),
		stretch.WithPitch(p.speed),
	)
	if err != nil {
		return err
	}
	p.stretcher = s
	return nil
}

// drainStretcher moves all ready engine output into the processor's output
// buffer so that a later engine rebuild cannot discard it.
func (p *Processor[T]) drainStretcher() {
	for p.stretcher.OutputFrames() > 0 {
		want := p.stretcher.OutputFrames() * p.channels
		if cap(p.scratch) < want {
			p.scratch = make([]T, want)
		}
		n, err := p.stretcher.ReadOutput(p.scratch[:want])
		if err != nil || n == 0 {
			return
		}
		if err := p.output.Append(p.scratch[:n*p.channels]); err != nil {
			return
		}
	}
}

// processedInputTimeUs returns the input timestamp up to which audio has
// been fully processed. Frames still buffered inside the engine have been
// read but not processed and are excluded.
func (p *Processor[T]) processedInputTimeUs() int64 {
	if p.stretcher == nil {
		return scaleFloor(p.framesRead, microsPerSecond, int64(p.sampleRate))
	}
	processedFrames := p.segmentFramesIn - int64(p.stretcher.PendingInputFrames())
	return p.segmentStartUs + scaleFloor(processedFrames, microsPerSecond, int64(p.sampleRate))
}

// scaleFloor computes a*mul/div rounding down, decomposed to avoid overflow
// for microsecond-scale operands.
func scaleFloor(a, mul, div int64) int64 {
	return (a/div)*mul + (a%div)*mul/div
}

// scaleCeil computes a*mul/div rounding up.
func scaleCeil(a, mul, div int64) int64 {
	q := (a / div) * mul
	r := (a % div) * mul
	q += r / div
	if r%div != 0 {
		q++
	}
	return q
}

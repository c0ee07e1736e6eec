package stretch

import (
	"errors"

	"github.com/cwbudde/algo-stretch/dsp/core"
)

var (
	// ErrPartialFrame indicates a slice whose length is not a whole number of
	// frames for the configured channel count.
	ErrPartialFrame = errors.New("stretch: partial frame")
)

// FrameBuffer is a growable store of interleaved multi-channel samples.
// Sizes are expressed in frames: one frame is Channels consecutive samples.
// Frame 0 is always the oldest unconsumed frame; consuming a prefix with Drop
// compacts the remainder to the front.
type FrameBuffer[T Sample] struct {
	channels int
	samples  []T
	frames   int
}

// NewFrameBuffer returns a buffer for the given channel count with an initial
// capacity of capacityFrames frames.
func NewFrameBuffer[T Sample](channels, capacityFrames int) (*FrameBuffer[T], error) {
	if channels <= 0 {
		return nil, ErrInvalidChannelCount
	}
	if capacityFrames < 0 {
		capacityFrames = 0
	}
	return &FrameBuffer[T]{
		channels: channels,
		samples:  make([]T, capacityFrames*channels),
	}, nil
}

// Channels returns the number of interleaved channels per frame.
func (b *FrameBuffer[T]) Channels() int { return b.channels }

// FrameCount returns the number of valid frames.
func (b *FrameBuffer[T]) FrameCount() int { return b.frames }

// Capacity returns the allocated capacity in frames.
func (b *FrameBuffer[T]) Capacity() int { return len(b.samples) / b.channels }

// Samples returns the valid interleaved region. The slice aliases internal
// storage and is invalidated by any mutating call.
func (b *FrameBuffer[T]) Samples() []T { return b.samples[:b.frames*b.channels] }

// Append adds whole frames from samples to the end of the buffer.
func (b *FrameBuffer[T]) Append(samples []T) error {
	if len(samples)%b.channels != 0 {
		return ErrPartialFrame
	}
	frames := len(samples) / b.channels
	b.ensureAdditional(frames)
	copy(b.samples[b.frames*b.channels:], samples)
	b.frames += frames
	return nil
}

// AppendZero adds frames of silence to the end of the buffer.
func (b *FrameBuffer[T]) AppendZero(frames int) {
	if frames <= 0 {
		return
	}
	b.ensureAdditional(frames)
	core.Zero(b.samples[b.frames*b.channels : (b.frames+frames)*b.channels])
	b.frames += frames
}

// Drop discards the first frames frames and compacts the remainder so that
// the oldest remaining frame is again at position 0.
func (b *FrameBuffer[T]) Drop(frames int) {
	if frames <= 0 {
		return
	}
	if frames > b.frames {
		frames = b.frames
	}
	copy(b.samples, b.samples[frames*b.channels:b.frames*b.channels])
	b.frames -= frames
}

// Truncate discards frames beyond the given count.
func (b *FrameBuffer[T]) Truncate(frames int) {
	if frames < 0 {
		frames = 0
	}
	if frames < b.frames {
		b.frames = frames
	}
}

// ensureAdditional guarantees room for frames more frames. On growth the new
// capacity is 3*cap/2 + frames.
func (b *FrameBuffer[T]) ensureAdditional(frames int) {
	capFrames := len(b.samples) / b.channels
	if b.frames+frames <= capFrames {
		return
	}
	newCap := 3*capFrames/2 + frames
	grown := make([]T, newCap*b.channels)
	copy(grown, b.samples[:b.frames*b.channels])
	b.samples = grown
}

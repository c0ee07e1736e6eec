// Package stretch implements a streaming time-stretch / pitch-shift engine
// for interleaved PCM audio.
//
// The engine changes the duration and the pitch of an audio stream
// independently: a period-based overlap-add stage removes or duplicates one
// pitch period at a time (changing duration without changing pitch), and an
// independent linear-interpolation resampler realizes the fractional
// pitch/sample-rate ratio. Pitch periods are located with an AMDF
// (average magnitude difference function) search between 65 and 400 Hz,
// optionally on a decimated copy of the signal for speed.
//
// Stretcher is generic over the sample format (int16 or float32) and
// processes interleaved multi-channel buffers expressed in frames. The
// processing path is synchronous and single-threaded; see the timemap
// package for speed curves that vary over the life of a stream and for
// cross-thread timestamp mapping.
//
// Typical use:
//
//	p, err := stretch.New[int16](48000, 2, stretch.WithSpeed(1.5))
//	...
//	p.QueueInput(samples)
//	n, _ := p.ReadOutput(out)
//	...
//	p.QueueEndOfStream()
package stretch

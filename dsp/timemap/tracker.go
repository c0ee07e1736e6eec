package timemap

import (
	"errors"
	"math"
	"sync"
)

var (
	// ErrNonMonotonicQuery indicates an AdjustedTimeAsync call whose input
	// time does not exceed that of the previous call.
	ErrNonMonotonicQuery = errors.New("timemap: non-monotonic query time")
)

// Tracker maintains the mapping between original-stream input time and
// speed-adjusted output time as speed segments are committed, and resolves
// time conversion queries against it.
//
// Segment starts are append-only pairs: segment i spans input times
// [inputStartsUs[i], inputStartsUs[i+1]) and maps them linearly onto output
// times starting at outputStartsUs[i]. The last segment is open-ended and
// converts with the current speed.
//
// All methods are safe for concurrent use. Conversion results for times
// beyond the processed frontier become final only once the corresponding
// audio has been processed; use AdjustedTimeAsync to defer resolution until
// then.
type Tracker struct {
	mu sync.Mutex

	inputStartsUs  []int64
	outputStartsUs []int64
	speed          float64

	lastProcessedInputTimeUs int64
	lastInputTimeUs          int64
	lastOutputTimeUs         int64
	ended                    bool

	asyncInputTimeUs int64
	pendingTimesUs   []int64
	pendingFns       []func(outputTimeUs int64)
}

// NewTracker returns a Tracker with a single open segment starting at time
// zero with speed 1.
func NewTracker() *Tracker {
	t := &Tracker{asyncInputTimeUs: math.MinInt64}
	t.resetSegmentsLocked()
	return t
}

// SpeedChangeAt closes the current open segment at inputTimeUs and starts a
// new one with the given speed. The closing segment's output span is
// computed with the speed that was active, so calls must be made in input
// time order.
func (t *Tracker) SpeedChangeAt(inputTimeUs int64, speed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if speed == t.speed {
		return
	}
	lastInputStartUs := t.inputStartsUs[len(t.inputStartsUs)-1]
	lastOutputStartUs := t.outputStartsUs[len(t.outputStartsUs)-1]
	segmentDurationUs := inputTimeUs - lastInputStartUs
	t.inputStartsUs = append(t.inputStartsUs, inputTimeUs)
	t.outputStartsUs = append(t.outputStartsUs, lastOutputStartUs+t.playoutDurationUsLocked(segmentDurationUs))
	t.speed = speed
}

// Speed returns the speed of the current open segment.
func (t *Tracker) Speed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speed
}

// OutputTimeForInputTime converts an input timestamp to the output timestamp
// at which it plays. Conversions walk forward from the previous call's
// position, so calls must be made with non-decreasing input times; going
// backwards returns a value anchored at the earlier position.
func (t *Tracker) OutputTimeForInputTime(inputTimeUs int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outputTimeLocked(inputTimeUs)
}

// InputTimeForOutputTime converts an output (playout) timestamp back to the
// input timestamp it was produced from. Unlike the forward conversion it is
// stateless. outputTimeUs must not exceed the output time of the processed
// frontier.
func (t *Tracker) InputTimeForOutputTime(outputTimeUs int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	floorIndex := len(t.outputStartsUs) - 1
	for floorIndex > 0 && t.outputStartsUs[floorIndex] > outputTimeUs {
		floorIndex--
	}
	segmentOutputDurationUs := outputTimeUs - t.outputStartsUs[floorIndex]
	var segmentInputDurationUs int64
	if floorIndex == len(t.outputStartsUs)-1 {
		segmentInputDurationUs = t.mediaDurationUsLocked(segmentOutputDurationUs)
	} else {
		ratio := float64(t.inputStartsUs[floorIndex+1]-t.inputStartsUs[floorIndex]) /
			float64(t.outputStartsUs[floorIndex+1]-t.outputStartsUs[floorIndex])
		segmentInputDurationUs = roundUs(float64(segmentOutputDurationUs) * ratio)
	}
	return t.inputStartsUs[floorIndex] + segmentInputDurationUs
}

// AdjustedTimeAsync resolves the output timestamp for inputTimeUs, calling
// fn with the result. If the audio at inputTimeUs has already been processed
// (or the stream has ended) fn runs before AdjustedTimeAsync returns;
// otherwise it is queued and runs from the MarkProcessed or MarkEnded call
// that crosses inputTimeUs. Successive calls must use strictly increasing
// input times. fn may be invoked on the goroutine driving processing.
func (t *Tracker) AdjustedTimeAsync(inputTimeUs int64, fn func(outputTimeUs int64)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if inputTimeUs <= t.asyncInputTimeUs {
		return ErrNonMonotonicQuery
	}
	t.asyncInputTimeUs = inputTimeUs
	if (inputTimeUs <= t.lastProcessedInputTimeUs && len(t.pendingTimesUs) == 0) || t.ended {
		fn(t.outputTimeLocked(inputTimeUs))
		return nil
	}
	t.pendingTimesUs = append(t.pendingTimesUs, inputTimeUs)
	t.pendingFns = append(t.pendingFns, fn)
	return nil
}

// MarkProcessed advances the processed frontier to inputTimeUs and resolves
// any pending queries it covers, in queue order.
func (t *Tracker) MarkProcessed(inputTimeUs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastProcessedInputTimeUs = inputTimeUs
	t.resolveLocked()
}

// MarkEnded records end of stream and resolves all pending queries.
func (t *Tracker) MarkEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ended = true
	t.resolveLocked()
}

// LastProcessedInputTimeUs returns the processed frontier.
func (t *Tracker) LastProcessedInputTimeUs() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastProcessedInputTimeUs
}

// Flush resets the segment map and processed frontier for a new stream.
// Pending queries and the monotonic query marker survive: callers may
// register queries for the new stream before the flush happens, so dropping
// the queue here would lose them.
func (t *Tracker) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetSegmentsLocked()
}

func (t *Tracker) resetSegmentsLocked() {
	t.speed = 1
	t.inputStartsUs = append(t.inputStartsUs[:0], 0)
	t.outputStartsUs = append(t.outputStartsUs[:0], 0)
	t.lastProcessedInputTimeUs = 0
	t.lastInputTimeUs = 0
	t.lastOutputTimeUs = 0
	t.ended = false
}

func (t *Tracker) resolveLocked() {
	for len(t.pendingFns) > 0 && (t.pendingTimesUs[0] <= t.lastProcessedInputTimeUs || t.ended) {
		fn := t.pendingFns[0]
		timeUs := t.pendingTimesUs[0]
		t.pendingFns = t.pendingFns[1:]
		t.pendingTimesUs = t.pendingTimesUs[1:]
		fn(t.outputTimeLocked(timeUs))
	}
}

func (t *Tracker) outputTimeLocked(inputTimeUs int64) int64 {
	floorIndex := len(t.inputStartsUs) - 1
	for floorIndex > 0 && t.inputStartsUs[floorIndex] > inputTimeUs {
		floorIndex--
	}
	var segmentOutputDurationUs int64
	if floorIndex == len(t.inputStartsUs)-1 {
		if t.lastInputTimeUs < t.inputStartsUs[floorIndex] {
			t.lastInputTimeUs = t.inputStartsUs[floorIndex]
			t.lastOutputTimeUs = t.outputStartsUs[floorIndex]
		}
		segmentOutputDurationUs = t.playoutDurationUsLocked(inputTimeUs - t.lastInputTimeUs)
	} else {
		ratio := float64(t.outputStartsUs[floorIndex+1]-t.outputStartsUs[floorIndex]) /
			float64(t.inputStartsUs[floorIndex+1]-t.inputStartsUs[floorIndex])
		segmentOutputDurationUs = roundUs(float64(inputTimeUs-t.lastInputTimeUs) * ratio)
	}
	t.lastInputTimeUs = inputTimeUs
	t.lastOutputTimeUs += segmentOutputDurationUs
	return t.lastOutputTimeUs
}

// playoutDurationUsLocked converts a media duration in the open segment to
// its playout duration at the current speed.
func (t *Tracker) playoutDurationUsLocked(mediaDurationUs int64) int64 {
	if t.speed == 1 {
		return mediaDurationUs
	}
	return roundUs(float64(mediaDurationUs) / t.speed)
}

// mediaDurationUsLocked converts a playout duration in the open segment back
// to the media duration at the current speed.
func (t *Tracker) mediaDurationUsLocked(playoutDurationUs int64) int64 {
	if t.speed == 1 {
		return playoutDurationUs
	}
	return roundUs(float64(playoutDurationUs) * t.speed)
}

// roundUs rounds to the nearest microsecond with halves rounding up.
func roundUs(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// Package timemap applies time-varying speed changes to an audio stream and
// maintains the bidirectional mapping between original-stream time and
// speed-adjusted output time that results.
//
// Processor drives a stretch engine segment by segment, consulting a
// SpeedProvider for the speed active at each input timestamp. Tracker records
// the (input start, output start) pair of every segment as it is committed and
// answers time conversion queries, including asynchronous queries for input
// times that have not been processed yet.
package timemap

// Command stretchinfo prints frame-count and pitch-search properties of a
// time-stretch configuration.
//
// Usage:
//
//	stretchinfo [flags]
//
// Examples:
//
//	stretchinfo -speed 2
//	stretchinfo -in-rate 44100 -out-rate 48000 -speed 1.5 -pitch 0.8
//	stretchinfo -frames 96000 -speed 0.33
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-stretch/dsp/stretch"
)

func main() {
	inRate := flag.Int("in-rate", 48000, "input sample rate in Hz")
	outRate := flag.Int("out-rate", 0, "output sample rate in Hz (0 = same as input)")
	speed := flag.Float64("speed", 1.0, "duration scale factor")
	pitch := flag.Float64("pitch", 1.0, "pitch scale factor")
	channels := flag.Int("channels", 2, "channel count")
	frames := flag.Int64("frames", 48000, "input length in frames")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stretchinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints frame-count and pitch-search properties of a stretch configuration.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stretchinfo -speed 2\n")
		fmt.Fprintf(os.Stderr, "  stretchinfo -in-rate 44100 -out-rate 48000 -speed 1.5 -pitch 0.8\n")
	}
	flag.Parse()

	if *outRate == 0 {
		*outRate = *inRate
	}

	p, err := stretch.New[int16](*inRate, *channels,
		stretch.WithSpeed(*speed),
		stretch.WithPitch(*pitch),
		stretch.WithOutputRate(*outRate),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	expectedOut := stretch.ExpectedOutputFrameCount(*inRate, *outRate, *speed, *pitch, *frames)
	roundTripIn := stretch.ExpectedInputFrameCountForOutput(*inRate, *outRate, *speed, *pitch, expectedOut)
	minPeriod, maxPeriod := p.PeriodBounds()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Input rate\t%d Hz\n", p.InputSampleRate())
	fmt.Fprintf(tw, "Output rate\t%d Hz\n", p.OutputSampleRate())
	fmt.Fprintf(tw, "Channels\t%d\n", p.ChannelCount())
	fmt.Fprintf(tw, "Speed\t%g\n", p.Speed())
	fmt.Fprintf(tw, "Pitch\t%g\n", p.Pitch())
	fmt.Fprintf(tw, "Pitch period range\t%d .. %d frames\n", minPeriod, maxPeriod)
	fmt.Fprintf(tw, "Input frames\t%d\n", *frames)
	fmt.Fprintf(tw, "Expected output frames\t%d\n", expectedOut)
	fmt.Fprintf(tw, "Round-trip input frames\t%d\n", roundTripIn)
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

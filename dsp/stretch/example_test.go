package stretch_test

import (
	"fmt"

	"github.com/cwbudde/algo-stretch/dsp/stretch"
)

func ExampleStretcher() {
	p, err := stretch.New[int16](44100, 1, stretch.WithOutputRate(88200))
	if err != nil {
		panic(err)
	}
	if err := p.QueueInput([]int16{0, 10, 20, 30, 40, 50}); err != nil {
		panic(err)
	}
	p.QueueEndOfStream()

	out := make([]int16, p.OutputFrames())
	n, err := p.ReadOutput(out)
	if err != nil {
		panic(err)
	}

	fmt.Println(n, out[:n])

	// Output:
	// 12 [0 5 10 15 20 25 30 35 40 45 50 25]
}

func ExampleExpectedOutputFrameCount() {
	frames := stretch.ExpectedOutputFrameCount(48000, 48000, 2, 1, 48000)
	fmt.Println(frames)

	// Output:
	// 24000
}

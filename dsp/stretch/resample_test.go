package stretch

import "testing"

// readAll drains every pending output frame.
func readAll[T Sample](t *testing.T, p *Stretcher[T]) []T {
	t.Helper()
	out := make([]T, p.OutputFrames()*p.ChannelCount())
	n, err := p.ReadOutput(out)
	if err != nil {
		t.Fatalf("ReadOutput() error: %v", err)
	}
	return out[:n*p.ChannelCount()]
}

func TestResampleToDoubleRateInt16(t *testing.T) {
	p, err := New[int16](44100, 1, WithOutputRate(88200))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.QueueInput([]int16{0, 10, 20, 30, 40, 50}); err != nil {
		t.Fatalf("QueueInput() error: %v", err)
	}
	p.QueueEndOfStream()

	// End of stream is padded with silence, so the final sample interpolates
	// between 50 and 0.
	want := []int16{0, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 25}
	got := readAll(t, p)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleToDoubleRateFloat32(t *testing.T) {
	p, err := New[float32](44100, 1, WithOutputRate(88200))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.QueueInput([]float32{0, 0.125, 0.25, 0.375, 0.5, 0.625}); err != nil {
		t.Fatalf("QueueInput() error: %v", err)
	}
	p.QueueEndOfStream()

	want := []float32{0, 0.0625, 0.125, 0.1875, 0.25, 0.3125, 0.375, 0.4375, 0.5, 0.5625, 0.625, 0.3125}
	got := readAll(t, p)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResampleToHalfRateInt16(t *testing.T) {
	p, err := New[int16](44100, 1, WithOutputRate(22050))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.QueueInput([]int16{-40, -30, -20, -10, 0, 10, 20, 30, 40, 50}); err != nil {
		t.Fatalf("QueueInput() error: %v", err)
	}
	p.QueueEndOfStream()

	// The final frame count rounds up, so one padding sample survives at the
	// end.
	want := []int16{-40, -20, 0, 20, 40, 0}
	got := readAll(t, p)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleSingleSampleDoesNotHang(t *testing.T) {
	p, err := New[int16](44100, 1, WithOutputRate(88200))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.QueueInput([]int16{10}); err != nil {
		t.Fatalf("QueueInput() error: %v", err)
	}
	p.QueueEndOfStream()

	want := []int16{10, 5}
	got := readAll(t, p)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	if got[0] != 10 || got[1] != 5 {
		t.Fatalf("out = %v, want %v", got, want)
	}
}

func TestResampleRoundsFractionalOutputCount(t *testing.T) {
	p, err := New[int16](44100, 1, WithOutputRate(22050))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.QueueInput([]int16{0, 2, 4, 6, 8}); err != nil {
		t.Fatalf("QueueInput() error: %v", err)
	}
	p.QueueEndOfStream()

	want := []int16{0, 4, 8}
	got := readAll(t, p)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleStereoInterleaving(t *testing.T) {
	p, err := New[int16](44100, 2, WithOutputRate(88200))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	// Left ramps up, right ramps down; interpolation must stay per channel.
	if err := p.QueueInput([]int16{0, 100, 10, 90, 20, 80, 30, 70}); err != nil {
		t.Fatalf("QueueInput() error: %v", err)
	}
	p.QueueEndOfStream()

	got := readAll(t, p)
	want := []int16{0, 100, 5, 95, 10, 90, 15, 85, 20, 80, 25, 75, 30, 70, 15, 35}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

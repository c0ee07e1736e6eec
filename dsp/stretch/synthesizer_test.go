package stretch

import "testing"

func TestSkipPeriodCrossfades(t *testing.T) {
	in, _ := NewFrameBuffer[int16](1, 8)
	if err := in.Append([]int16{0, 0, 0, 0, 40, 40, 40, 40}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	out, _ := NewFrameBuffer[int16](1, 8)
	s := newSynthesizer[int16](1)

	produced := s.skipPeriod(in, out, 0, 2.0, 4)
	if produced != 4 {
		t.Fatalf("produced = %d, want 4", produced)
	}

	// Linear crossfade from the dropped period into the next one.
	want := []int16{0, 10, 20, 30}
	got := out.Samples()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestSkipPeriodCarriesRoundingError(t *testing.T) {
	in, _ := NewFrameBuffer[int16](1, 16)
	in.AppendZero(16)
	out, _ := NewFrameBuffer[int16](1, 16)
	s := newSynthesizer[int16](1)

	// speed 4: each period of 3 yields 3/(4-1) = 1 frame exactly.
	if produced := s.skipPeriod(in, out, 0, 4.0, 3); produced != 1 {
		t.Fatalf("produced = %d, want 1", produced)
	}
	if s.carry != 0 {
		t.Fatalf("carry = %v, want 0", s.carry)
	}

	// speed 3: 4/(3-1) = 2 exactly, then 5/2 = 2.5 rounds to 3 with carry -0.5.
	s.reset()
	if produced := s.skipPeriod(in, out, 0, 3.0, 4); produced != 2 {
		t.Fatalf("produced = %d, want 2", produced)
	}
	if produced := s.skipPeriod(in, out, 0, 3.0, 5); produced != 3 {
		t.Fatalf("produced = %d, want 3", produced)
	}
	if s.carry != -0.5 {
		t.Fatalf("carry = %v, want -0.5", s.carry)
	}
	// The pending negative carry pulls the next 2.5 down to 2.
	if produced := s.skipPeriod(in, out, 0, 3.0, 5); produced != 2 {
		t.Fatalf("produced = %d, want 2", produced)
	}
}

func TestSkipPeriodModerateSpeedSchedulesCopy(t *testing.T) {
	in, _ := NewFrameBuffer[int16](1, 16)
	in.AppendZero(16)
	out, _ := NewFrameBuffer[int16](1, 16)
	s := newSynthesizer[int16](1)

	// speed 1.5: the crossfade spans the full period and period*(2-1.5)/0.5 =
	// period frames must then be copied through verbatim.
	if produced := s.skipPeriod(in, out, 0, 1.5, 6); produced != 6 {
		t.Fatalf("produced = %d, want 6", produced)
	}
	if s.remainingInputToCopy != 6 {
		t.Fatalf("remainingInputToCopy = %d, want 6", s.remainingInputToCopy)
	}
}

func TestInsertPeriodDuplicates(t *testing.T) {
	in, _ := NewFrameBuffer[int16](1, 8)
	if err := in.Append([]int16{40, 40, 40, 40, 20, 20, 20, 20}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	out, _ := NewFrameBuffer[int16](1, 16)
	s := newSynthesizer[int16](1)

	// speed 0.25: period 4 inserts 4*0.25/0.75 = 1.33 -> 1 extra frame.
	produced := s.insertPeriod(in, out, 0, 0.25, 4)
	if produced != 1 {
		t.Fatalf("produced = %d, want 1", produced)
	}
	if out.FrameCount() != 5 {
		t.Fatalf("frames = %d, want 5", out.FrameCount())
	}

	// The period is copied verbatim; the inserted frame starts the crossfade
	// on the second period, so at full weight it equals its first sample.
	got := out.Samples()
	want := []int16{40, 40, 40, 40, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestInsertPeriodModerateSpeedSchedulesCopy(t *testing.T) {
	in, _ := NewFrameBuffer[int16](1, 16)
	in.AppendZero(16)
	out, _ := NewFrameBuffer[int16](1, 32)
	s := newSynthesizer[int16](1)

	// speed 0.75: period*(2*0.75-1)/(1-0.75) = 2*period copy-through frames.
	if produced := s.insertPeriod(in, out, 0, 0.75, 4); produced != 4 {
		t.Fatalf("produced = %d, want 4", produced)
	}
	if s.remainingInputToCopy != 8 {
		t.Fatalf("remainingInputToCopy = %d, want 8", s.remainingInputToCopy)
	}
}

package kstat

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
)

func resetCounters() {
	Kstats = Counters_t{}
}

func TestCountersIncrementAndText(t *testing.T) {
	resetCounters()
	IncOpens()
	IncOpens()
	IncFaults()
	IncFrameFailures()

	txt := string(Kstats.Text())
	if !strings.Contains(txt, "opens=2") {
		t.Fatalf("Text() = %q, want opens=2", txt)
	}
	if !strings.Contains(txt, "faults=1") {
		t.Fatalf("Text() = %q, want faults=1", txt)
	}
	if !strings.Contains(txt, "frame_failures=1") {
		t.Fatalf("Text() = %q, want frame_failures=1", txt)
	}
}

func TestProfileSampleValuesMatchCounters(t *testing.T) {
	resetCounters()
	IncOpens()
	IncOpens()
	IncOpens()
	IncFaults()

	p := Kstats.Profile()
	if len(p.Sample) != 3 {
		t.Fatalf("got %d samples, want 3", len(p.Sample))
	}
	var gotOpens, gotFaults int64
	for _, s := range p.Sample {
		switch s.Location[0].Line[0].Function.Name {
		case "opens":
			gotOpens = s.Value[0]
		case "faults":
			gotFaults = s.Value[0]
		}
	}
	if gotOpens != 3 {
		t.Fatalf("opens sample = %d, want 3", gotOpens)
	}
	if gotFaults != 1 {
		t.Fatalf("faults sample = %d, want 1", gotFaults)
	}
}

func TestEncodeRoundTripsThroughPprof(t *testing.T) {
	resetCounters()
	IncOpens()

	enc, err := Kstats.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	p, err := profile.Parse(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("profile.Parse failed on Encode's output: %v", err)
	}
	if len(p.Sample) != 3 {
		t.Fatalf("decoded profile has %d samples, want 3", len(p.Sample))
	}
}

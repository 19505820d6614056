package plugin

import "testing"

func TestNewNotePair(t *testing.T) {
	p := NewNotePair(60, 100)

	var ch, key, vel uint8
	if !p.On.Message.GetNoteOn(&ch, &key, &vel) {
		t.Fatalf("on event is not a note-on: %v", p.On)
	}
	if ch != 0 || key != 60 || vel != 100 {
		t.Fatalf("note-on = ch %d key %d vel %d", ch, key, vel)
	}
	if !p.Off.Message.GetNoteOff(&ch, &key, &vel) {
		t.Fatalf("off event is not a note-off: %v", p.Off)
	}
	if ch != 0 || key != 60 || vel != 100 {
		t.Fatalf("note-off = ch %d key %d vel %d", ch, key, vel)
	}
	if p.On.Offset != 0 || p.Off.Offset != 0 {
		t.Fatalf("unexpected offsets %d %d", p.On.Offset, p.Off.Offset)
	}
}

func TestCapabilityString(t *testing.T) {
	c := CapActivate | CapRunSynth
	if got := c.String(); got != "activate|run_synth" {
		t.Fatalf("String() = %q", got)
	}
	if Capability(0).String() != "none" {
		t.Fatalf("empty capability string")
	}
	if !CapRunMultipleSynths.CanRender() || CapConfigure.CanRender() {
		t.Fatalf("CanRender mismatch")
	}
}

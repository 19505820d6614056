package plugin

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Event is a MIDI message scheduled at a frame offset inside a block.
type Event struct {
	Message midi.Message
	Offset  int
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d", e.Message.String(), e.Offset)
}

// NotePair is the note-on/note-off pair driving one render.
type NotePair struct {
	On  Event
	Off Event
}

// NewNotePair builds the note-on and note-off events on channel 0. Both
// use velocity; for the note-off it is the release velocity.
func NewNotePair(note, velocity uint8) NotePair {
	return NotePair{
		On:  Event{Message: midi.NoteOn(0, note, velocity)},
		Off: Event{Message: midi.NoteOffVelocity(0, note, velocity)},
	}
}

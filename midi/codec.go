package midi

import (
	"fmt"
	"strconv"
	"strings"
)

// Format encodes an event as one protocol line. It never fails: anything the
// device layer can produce has a textual form. A NoteOn with velocity 0 is
// the running-status convention for "note released" and encodes as NOTE_OFF.
func Format(ev Event) string {
	ch := ev.Channel&0x0F + 1

	switch ev.Type {
	case NoteOff:
		return fmt.Sprintf("NOTE_OFF %d %d\n", ch, ev.Data1)
	case NoteOn:
		if ev.Data2 == 0 {
			return fmt.Sprintf("NOTE_OFF %d %d\n", ch, ev.Data1)
		}
		return fmt.Sprintf("NOTE_ON %d %d %d\n", ch, ev.Data1, ev.Data2)
	case ControlChange:
		return fmt.Sprintf("CC %d %d %d\n", ch, ev.Data1, ev.Data2)
	case ProgramChange:
		return fmt.Sprintf("PROGRAM_CHANGE %d %d\n", ch, ev.Data1)
	case PitchBend:
		return fmt.Sprintf("PITCH_BEND %d %d\n", ch, ev.Bend)
	default:
		return fmt.Sprintf("UNKNOWN %02X %d %d\n", ev.Status, ev.Data1, ev.Data2)
	}
}

// ParseLine decodes one protocol line into an event. The second return is
// false for unknown verbs, short argument lists, and non-numeric arguments;
// callers drop such lines and keep going. PITCH_BEND is emitted by Format but
// deliberately not accepted here: it is outgoing-only telemetry.
func ParseLine(line string) (Event, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Event{}, false
	}

	var ev Event
	var want int
	switch fields[0] {
	case "NOTE_ON":
		ev.Type = NoteOn
		want = 4
	case "NOTE_OFF":
		ev.Type = NoteOff
		want = 3
	case "CC":
		ev.Type = ControlChange
		want = 4
	case "PROGRAM_CHANGE":
		ev.Type = ProgramChange
		want = 3
	default:
		return Event{}, false
	}
	if len(fields) < want {
		return Event{}, false
	}

	args := make([]int, 0, want-1)
	for _, f := range fields[1:want] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Event{}, false
		}
		args = append(args, n)
	}

	ev.Channel = uint8(args[0]-1) & 0x0F
	ev.Data1 = uint8(args[1]) & 0x7F
	if want == 4 {
		ev.Data2 = uint8(args[2]) & 0x7F
	}
	ev.Status = ev.Type | ev.Channel
	return ev, true
}

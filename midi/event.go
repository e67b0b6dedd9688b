package midi

// Status high nibbles for the channel voice messages the bridge handles.
const (
	NoteOff       uint8 = 0x80
	NoteOn        uint8 = 0x90
	ControlChange uint8 = 0xB0
	ProgramChange uint8 = 0xC0
	PitchBend     uint8 = 0xE0
)

// Event represents one MIDI channel voice message.
//
// Channel is the wire nibble (0-15); the text protocol exposes it 1-indexed.
// Data1/Data2 hold the 7-bit data bytes (note/velocity, controller/value,
// program). Bend carries the assembled 14-bit pitch bend value. Status keeps
// the full status byte so unrecognized messages can be passed through.
type Event struct {
	Type    uint8
	Channel uint8
	Data1   uint8
	Data2   uint8
	Bend    uint16
	Status  uint8
}

// FromRaw decodes raw device bytes into an Event. Every input has a defined
// result: short messages get zero data bytes, unrecognized status nibbles are
// carried through with Status set so the codec can emit them as UNKNOWN.
func FromRaw(raw []byte) Event {
	var ev Event
	if len(raw) == 0 {
		return ev
	}

	ev.Status = raw[0]
	ev.Type = raw[0] & 0xF0
	ev.Channel = raw[0] & 0x0F
	if len(raw) > 1 {
		ev.Data1 = raw[1] & 0x7F
	}
	if len(raw) > 2 {
		ev.Data2 = raw[2] & 0x7F
	}
	if ev.Type == PitchBend {
		ev.Bend = uint16(ev.Data2)<<7 | uint16(ev.Data1)
	}
	return ev
}

// Raw serializes the event back into the bytes the device layer expects.
// Fields are masked to their wire widths, never rejected.
func (ev Event) Raw() []byte {
	status := ev.Type | ev.Channel&0x0F
	switch ev.Type {
	case ProgramChange:
		return []byte{status, ev.Data1 & 0x7F}
	case PitchBend:
		bend := ev.Bend & 0x3FFF
		return []byte{status, uint8(bend & 0x7F), uint8(bend >> 7)}
	default:
		return []byte{status, ev.Data1 & 0x7F, ev.Data2 & 0x7F}
	}
}

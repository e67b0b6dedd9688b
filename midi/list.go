package midi

import (
	"fmt"
	"io"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// ListPorts writes the available MIDI devices to w, one indexed row per port.
// Diagnostic only; not on the event path.
func ListPorts(w io.Writer) {
	fmt.Fprintln(w, "Available MIDI Devices:")
	fmt.Fprintln(w, "========================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Input Devices:")
	for i, p := range gomidi.GetInPorts() {
		fmt.Fprintf(w, "  [%d] %s\n", i, p.String())
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Devices:")
	for i, p := range gomidi.GetOutPorts() {
		fmt.Fprintf(w, "  [%d] %s\n", i, p.String())
	}
	fmt.Fprintln(w)
}

package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midibridge/midi"
	"midibridge/tui"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		midi.ListPorts(os.Stdout)
	case "send":
		sendEvent(os.Args[2:])
	case "monitor":
		monitor()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("midimon - MIDI bridge diagnostics")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - List all MIDI ports")
	fmt.Println("  send VERB ARGS...     - Send one event to the first output port")
	fmt.Println("                          e.g. send NOTE_ON 1 60 100")
	fmt.Println("  monitor               - Show incoming events from the first input port")
}

func sendEvent(args []string) {
	ev, ok := midi.ParseLine(strings.Join(args, " "))
	if !ok {
		fmt.Fprintln(os.Stderr, "unrecognized command (verbs: NOTE_ON NOTE_OFF CC PROGRAM_CHANGE)")
		os.Exit(1)
	}

	outs := gomidi.GetOutPorts()
	if len(outs) == 0 {
		fmt.Fprintln(os.Stderr, "no MIDI output ports")
		os.Exit(1)
	}

	send, err := gomidi.SendTo(outs[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	defer outs[0].Close()

	if err := send(gomidi.Message(ev.Raw())); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sent %s -> % X\n", outs[0].String(), ev.Raw())
}

func monitor() {
	ins := gomidi.GetInPorts()
	if len(ins) == 0 {
		fmt.Fprintln(os.Stderr, "no MIDI input ports")
		os.Exit(1)
	}
	in := ins[0]

	events := make(chan tui.EventMsg, 32)
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		select {
		case events <- tui.EventMsg{Line: midi.Format(midi.FromRaw(msg.Bytes())), DeltaMS: timestampms}:
		default:
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	defer stop()
	defer in.Close()

	p := tea.NewProgram(tui.NewMonitor(in.String(), events))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

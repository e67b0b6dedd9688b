package midi

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// Ports wraps one input and one output MIDI port as two independent logical
// directions. Either side may be absent; the corresponding direction is then
// inert rather than an error.
type Ports struct {
	in       drivers.In
	out      drivers.Out
	send     func(msg gomidi.Message) error
	stopFunc func()

	log       *zap.Logger
	closeOnce sync.Once
}

// OpenPorts opens the MIDI ports selected by index. A negative index means
// auto-select: port 0 when that direction has any ports, disabled otherwise.
// An explicit index that doesn't exist is an error; a missing direction under
// auto-select only logs a warning.
func OpenPorts(inIdx, outIdx int, log *zap.Logger) (*Ports, error) {
	p := &Ports{log: log}

	ins := gomidi.GetInPorts()
	switch {
	case inIdx < 0 && len(ins) == 0:
		log.Warn("no MIDI input devices found")
	case inIdx < 0:
		p.in = ins[0]
	case inIdx >= len(ins):
		return nil, fmt.Errorf("MIDI input device %d not found (%d available)", inIdx, len(ins))
	default:
		p.in = ins[inIdx]
	}
	if p.in != nil {
		log.Info("opened MIDI input", zap.String("port", p.in.String()))
	}

	outs := gomidi.GetOutPorts()
	switch {
	case outIdx < 0 && len(outs) == 0:
		log.Warn("no MIDI output devices found")
	case outIdx < 0:
		p.out = outs[0]
	case outIdx >= len(outs):
		return nil, fmt.Errorf("MIDI output device %d not found (%d available)", outIdx, len(outs))
	default:
		p.out = outs[outIdx]
	}
	if p.out != nil {
		send, err := gomidi.SendTo(p.out)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		p.send = send
		log.Info("opened MIDI output", zap.String("port", p.out.String()))
	}

	return p, nil
}

// Listen registers fn as the single input callback. The device runtime
// serializes invocations; fn must return quickly and not block. With no input
// port this is a no-op.
func (p *Ports) Listen(fn func(raw []byte, deltaMS int32)) error {
	if p.in == nil {
		return nil
	}
	stop, err := gomidi.ListenTo(p.in, func(msg gomidi.Message, timestampms int32) {
		fn(msg.Bytes(), timestampms)
	})
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	p.stopFunc = stop
	return nil
}

// Send serializes the event and submits it to the output port. With no output
// port the event is dropped silently; device failures are returned, not
// retried.
func (p *Ports) Send(ev Event) error {
	if p.send == nil {
		return nil
	}
	return p.send(gomidi.Message(ev.Raw()))
}

// HasOutput reports whether an output direction exists.
func (p *Ports) HasOutput() bool {
	return p.send != nil
}

// Close stops the input listener and releases both ports. Safe to call more
// than once.
func (p *Ports) Close() {
	p.closeOnce.Do(func() {
		if p.stopFunc != nil {
			p.stopFunc()
		}
		if p.in != nil {
			p.in.Close()
		}
		if p.out != nil {
			p.out.Close()
		}
	})
}

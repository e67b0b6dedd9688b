// Package bridge wires the hardware MIDI ports and the control socket
// together and owns the lifecycle of both.
package bridge

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"midibridge/midi"
)

// State is the bridge lifecycle state.
type State int32

const (
	Idle State = iota
	Initializing
	Running
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting-down"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// HardwareIO is the device side of the bridge. Listen registers the single
// input callback; the device runtime is trusted to serialize invocations.
type HardwareIO interface {
	Listen(fn func(raw []byte, deltaMS int32)) error
	Send(ev midi.Event) error
	Close()
}

// SocketIO is the controlling-process side. ReadLines blocks until the
// connection is finished; SendLine may be called concurrently with it.
type SocketIO interface {
	SendLine(line string) error
	ReadLines(fn func(line string)) error
	Close() error
}

// Bridge translates between the two transports. Events are converted and
// forwarded immediately in whichever context produced them; nothing is queued
// or stored.
type Bridge struct {
	hw   HardwareIO
	sock SocketIO
	log  *zap.Logger

	state    atomic.Int32
	done     chan struct{}
	stopOnce sync.Once

	errMu  sync.Mutex
	runErr error
}

// New returns an idle bridge over the given transports.
func New(hw HardwareIO, sock SocketIO, log *zap.Logger) *Bridge {
	return &Bridge{
		hw:   hw,
		sock: sock,
		log:  log,
		done: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Running reports whether the bridge is forwarding events.
func (b *Bridge) Running() bool {
	return b.State() == Running
}

// Run starts both directions and blocks until the context is cancelled or a
// transport fails, then tears everything down in order: input, output,
// socket. The returned error is the first fatal transport error, or nil for
// an orderly stop (interrupt or peer close).
func (b *Bridge) Run(ctx context.Context) error {
	b.state.Store(int32(Initializing))

	if err := b.hw.Listen(b.handleHardwareEvent); err != nil {
		b.fail(err)
	} else {
		go b.readLoop()
		b.state.Store(int32(Running))
		b.log.Info("bridge running")

		select {
		case <-ctx.Done():
			b.log.Info("interrupt received")
		case <-b.done:
		}
	}

	b.state.Store(int32(ShuttingDown))
	b.stop()
	b.hw.Close()
	b.sock.Close()
	b.state.Store(int32(Stopped))
	b.log.Info("bridge stopped")

	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.runErr
}

// handleHardwareEvent runs in the device callback context. It must not
// block beyond the synchronous socket write.
func (b *Bridge) handleHardwareEvent(raw []byte, deltaMS int32) {
	line := midi.Format(midi.FromRaw(raw))
	b.log.Debug("MIDI IN", zap.String("event", strings.TrimSuffix(line, "\n")), zap.Int32("deltaMS", deltaMS))

	if err := b.sock.SendLine(line); err != nil {
		if b.stopped() {
			return
		}
		b.log.Error("failed to send to socket", zap.Error(err))
		b.fail(err)
	}
}

// readLoop runs the blocking socket read until the peer closes or the
// connection errors. Either way the bridge stops.
func (b *Bridge) readLoop() {
	err := b.sock.ReadLines(b.handleLine)
	if b.stopped() {
		// Shutdown already in progress; closing the socket is what
		// unblocked the read.
		return
	}
	if err != nil {
		b.log.Error("socket read error", zap.Error(err))
		b.fail(err)
		return
	}
	b.log.Info("socket closed by peer")
	b.stop()
}

// handleLine decodes one command line and plays it out the hardware output.
// Malformed lines are dropped; a device send failure is logged but does not
// stop the bridge.
func (b *Bridge) handleLine(line string) {
	ev, ok := midi.ParseLine(line)
	if !ok {
		b.log.Debug("ignoring line", zap.String("line", line))
		return
	}
	b.log.Debug("MIDI OUT", zap.String("line", line))

	if err := b.hw.Send(ev); err != nil {
		b.log.Error("failed to send MIDI", zap.Error(err))
	}
}

func (b *Bridge) fail(err error) {
	b.errMu.Lock()
	if b.runErr == nil {
		b.runErr = err
	}
	b.errMu.Unlock()
	b.stop()
}

func (b *Bridge) stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

func (b *Bridge) stopped() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"midibridge/midi"
)

type fakeHardware struct {
	mu        sync.Mutex
	callback  func(raw []byte, deltaMS int32)
	sent      chan midi.Event
	listenErr error
	sendErr   error
	closed    atomic.Int32
}

func newFakeHardware() *fakeHardware {
	return &fakeHardware{sent: make(chan midi.Event, 16)}
}

func (f *fakeHardware) Listen(fn func(raw []byte, deltaMS int32)) error {
	if f.listenErr != nil {
		return f.listenErr
	}
	f.mu.Lock()
	f.callback = fn
	f.mu.Unlock()
	return nil
}

func (f *fakeHardware) Send(ev midi.Event) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- ev
	return nil
}

func (f *fakeHardware) Close() {
	f.closed.Add(1)
}

// emit simulates the device runtime invoking the input callback.
func (f *fakeHardware) emit(raw ...byte) {
	f.mu.Lock()
	cb := f.callback
	f.mu.Unlock()
	cb(raw, 0)
}

type fakeSocket struct {
	incoming chan string
	sent     chan string
	sendErr  error
	readErr  error
	closed   atomic.Int32
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		incoming: make(chan string, 16),
		sent:     make(chan string, 16),
	}
}

func (f *fakeSocket) SendLine(line string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- line
	return nil
}

func (f *fakeSocket) ReadLines(fn func(line string)) error {
	for line := range f.incoming {
		fn(line)
	}
	return f.readErr
}

func (f *fakeSocket) Close() error {
	f.closed.Add(1)
	return nil
}

func startBridge(t *testing.T, hw *fakeHardware, sock *fakeSocket) (*Bridge, context.CancelFunc, chan error) {
	t.Helper()

	b := New(hw, sock, zap.NewNop())
	assert.Equal(t, Idle, b.State())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	require.Eventually(t, b.Running, time.Second, time.Millisecond)
	return b, cancel, errCh
}

func waitStopped(t *testing.T, errCh chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop")
		return nil
	}
}

func recvLine(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case line := <-ch:
		return line
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for socket line")
		return ""
	}
}

func recvEvent(t *testing.T, ch chan midi.Event) midi.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hardware send")
		return midi.Event{}
	}
}

func TestHardwareEventForwardedToSocket(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	_, cancel, errCh := startBridge(t, hw, sock)

	hw.emit(0x90, 60, 100)
	assert.Equal(t, "NOTE_ON 1 60 100\n", recvLine(t, sock.sent))

	// Velocity 0 goes out as NOTE_OFF.
	hw.emit(0x90, 60, 0)
	assert.Equal(t, "NOTE_OFF 1 60\n", recvLine(t, sock.sent))

	cancel()
	assert.NoError(t, waitStopped(t, errCh))
}

func TestSocketLineDrivesHardwareOutput(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	_, cancel, errCh := startBridge(t, hw, sock)

	sock.incoming <- "NOTE_ON 1 60 100"
	assert.Equal(t, []byte{0x90, 60, 100}, recvEvent(t, hw.sent).Raw())

	cancel()
	assert.NoError(t, waitStopped(t, errCh))
}

func TestMalformedLineIsDropped(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	b, cancel, errCh := startBridge(t, hw, sock)

	sock.incoming <- "GARBAGE foo bar"
	sock.incoming <- "PITCH_BEND 1 8192"
	sock.incoming <- "CC 1 7 127"

	// Only the valid line reaches the device, and the bridge keeps running.
	assert.Equal(t, []byte{0xB0, 7, 127}, recvEvent(t, hw.sent).Raw())
	assert.Empty(t, hw.sent)
	assert.True(t, b.Running())

	cancel()
	assert.NoError(t, waitStopped(t, errCh))
}

func TestDeviceSendFailureIsNotFatal(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	hw.sendErr = errors.New("device gone")
	b, cancel, errCh := startBridge(t, hw, sock)

	sock.incoming <- "NOTE_ON 1 60 100"
	sock.incoming <- "NOTE_OFF 1 60"

	assert.Eventually(t, func() bool { return len(sock.incoming) == 0 }, time.Second, time.Millisecond)
	assert.True(t, b.Running())

	cancel()
	assert.NoError(t, waitStopped(t, errCh))
}

func TestPeerCloseStopsBridge(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	b, _, errCh := startBridge(t, hw, sock)

	close(sock.incoming)

	assert.NoError(t, waitStopped(t, errCh))
	assert.Equal(t, Stopped, b.State())
	assert.False(t, b.Running())
	assert.Equal(t, int32(1), hw.closed.Load())
	assert.Equal(t, int32(1), sock.closed.Load())
}

func TestSocketWriteFailureIsFatal(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	sock.sendErr = errors.New("broken pipe")
	b, _, errCh := startBridge(t, hw, sock)

	hw.emit(0x90, 60, 100)

	assert.ErrorIs(t, waitStopped(t, errCh), sock.sendErr)
	assert.Equal(t, Stopped, b.State())
}

func TestSocketReadErrorIsFatal(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	sock.readErr = errors.New("connection reset")
	_, _, errCh := startBridge(t, hw, sock)

	close(sock.incoming)

	assert.ErrorIs(t, waitStopped(t, errCh), sock.readErr)
}

func TestListenFailureIsFatal(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	hw.listenErr = errors.New("port in use")

	err := New(hw, sock, zap.NewNop()).Run(context.Background())
	assert.ErrorIs(t, err, hw.listenErr)
	assert.Equal(t, int32(1), hw.closed.Load())
	assert.Equal(t, int32(1), sock.closed.Load())
}

func TestInterruptShutsDownCleanly(t *testing.T) {
	hw, sock := newFakeHardware(), newFakeSocket()
	b, cancel, errCh := startBridge(t, hw, sock)

	cancel()

	assert.NoError(t, waitStopped(t, errCh))
	assert.Equal(t, Stopped, b.State())
	assert.Equal(t, int32(1), hw.closed.Load())
	assert.Equal(t, int32(1), sock.closed.Load())
}

package light

import "sync"

// FakeDriver records commands for test assertions.
type FakeDriver struct {
	mu sync.Mutex

	// Commands contains every command sent, in order.
	Commands []Command

	// SendErr, if set, is returned by Send (the command is still
	// recorded, so tests can assert what the monitor attempted).
	SendErr error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Send records the command.
func (f *FakeDriver) Send(cmd Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, cmd)
	return f.SendErr
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Sent returns a copy of the recorded commands.
func (f *FakeDriver) Sent() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.Commands))
	copy(out, f.Commands)
	return out
}

// Reset clears recorded commands.
func (f *FakeDriver) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = nil
	f.Closed = false
	f.SendErr = nil
}

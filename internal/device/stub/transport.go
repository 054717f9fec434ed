// Package stub provides a recording device transport for tests.
package stub

import (
	"context"
	"sync"

	"chartpulse/internal/device"
	"chartpulse/internal/domain"
)

// Transport records every frame instead of delivering it. Set Err to make
// all sends fail, which exercises the fire-and-forget paths.
type Transport struct {
	mu       sync.Mutex
	commands []domain.DeviceCommand
	stops    int

	// Err, when non-nil, is returned from SendCommand and StopDevice.
	Err error
}

// NewTransport creates an empty recording transport.
func NewTransport() *Transport {
	return &Transport{}
}

// Compile-time interface check.
var _ device.Transport = (*Transport)(nil)

// SendCommand records the command.
func (t *Transport) SendCommand(_ context.Context, cmd domain.DeviceCommand) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Err != nil {
		return t.Err
	}
	t.commands = append(t.commands, cmd)
	return nil
}

// StopDevice records a stop.
func (t *Transport) StopDevice(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Err != nil {
		return t.Err
	}
	t.stops++
	return nil
}

// Close is a no-op.
func (t *Transport) Close() error {
	return nil
}

// Commands returns a copy of all recorded commands in send order.
func (t *Transport) Commands() []domain.DeviceCommand {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.DeviceCommand, len(t.commands))
	copy(out, t.commands)
	return out
}

// StopCount returns how many stop frames were recorded.
func (t *Transport) StopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

package device

import (
	"context"

	"chartpulse/internal/domain"
)

// Transport delivers commands to the device endpoint. Delivery failures are
// reported as errors; callers log them and carry on, device state never
// feeds back into the engine.
type Transport interface {
	// SendCommand delivers one bounded command frame.
	SendCommand(ctx context.Context, cmd domain.DeviceCommand) error

	// StopDevice delivers the stop frame (speed 0, collapsed band).
	StopDevice(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

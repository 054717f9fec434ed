package domain

// DeviceCommand represents one bounded instruction emitted to the device.
// All fields are clamped to [0, 100] before the command leaves the engine.
type DeviceCommand struct {
	Speed float64 // oscillation speed, 0..100
	MinY  float64 // lower bound of the motion band, 0..100
	MaxY  float64 // upper bound of the motion band, >= MinY
}

// CommandStop is the canonical stop command emitted when a session expires
// or is ended explicitly.
var CommandStop = DeviceCommand{Speed: 0, MinY: 50, MaxY: 50}

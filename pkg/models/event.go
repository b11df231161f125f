package models

type EventKind string

const (
	EventLocator EventKind = "LOCATOR"
	EventError   EventKind = "ERROR"
)

// ProtocolEvent is a decoded line emitted by the bridge process.
type ProtocolEvent struct {
	Kind  EventKind
	Value string
}

// RecorderState is the state of the codegen session manager.
type RecorderState string

const (
	StateIdle     RecorderState = "idle"
	StateStarting RecorderState = "starting"
	StateRunning  RecorderState = "running"
	StateStopping RecorderState = "stopping"
)

package device

import "errors"

var (
	// ErrDevice reports that a capture device could not be opened.
	ErrDevice = errors.New("device error")
	// ErrCapture reports a failed or empty frame acquisition.
	ErrCapture = errors.New("capture error")
	// ErrTerminal reports a raw-mode, geometry or output failure.
	ErrTerminal = errors.New("terminal error")
)

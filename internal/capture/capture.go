// Package capture defines the dictation bridge the composer drives, and the
// bridges murmur ships with.
package capture

import "errors"

// ErrUnsupported is returned by Start when no dictation source is available.
var ErrUnsupported = errors.New("capture: dictation not supported")

// Bridge is a speech-to-text source.
type Bridge interface {
	// Supported reports whether dictation can be started at all.
	Supported() bool
	// Start begins dictation. Finalized text is delivered to the bound
	// Listener until dictation ends.
	Start() error
	// Stop ends dictation. The Listener is told through DictationEnded.
	Stop() error
	// Active reports whether dictation is running.
	Active() bool
}

// Listener receives dictation output.
type Listener interface {
	// AppendTranscript appends finalized text to the active content buffer.
	AppendTranscript(text string)
	// DictationEnded is called once each time a dictation session ends.
	DictationEnded()
}

// Unsupported is the Bridge for environments without dictation.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }
func (Unsupported) Start() error    { return ErrUnsupported }
func (Unsupported) Stop() error     { return nil }
func (Unsupported) Active() bool    { return false }

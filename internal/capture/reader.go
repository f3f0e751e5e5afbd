package capture

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ErrExhausted is returned by Start once the transcript stream has ended.
var ErrExhausted = errors.New("capture: transcript stream exhausted")

// Reader is a Bridge over a stream of finalized transcript lines, such as
// the stdout of an external speech-to-text process. Lines that arrive while
// dictation is inactive are dropped. End of stream ends the current session.
type Reader struct {
	src    io.Reader
	logger *slog.Logger

	mu       sync.Mutex
	listener Listener
	pumping  bool
	eof      bool
	active   bool
	done     chan struct{}
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &Reader{src: src, logger: logger, done: done}
}

// Bind sets the Listener that receives transcripts.
func (r *Reader) Bind(l Listener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

func (r *Reader) Supported() bool { return r.src != nil }

// Start begins a dictation session.
func (r *Reader) Start() error {
	if r.src == nil {
		return ErrUnsupported
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof {
		return ErrExhausted
	}
	if r.active {
		return nil
	}
	r.active = true
	r.done = make(chan struct{})
	if !r.pumping {
		r.pumping = true
		go r.pump()
	}
	r.logger.Debug("capture: dictation started")
	return nil
}

// Stop ends the current session, if any.
func (r *Reader) Stop() error {
	r.end()
	return nil
}

func (r *Reader) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Done returns a channel closed when the current session ends. With no
// session running the channel is already closed.
func (r *Reader) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Reader) pump() {
	sc := bufio.NewScanner(r.src)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		r.mu.Lock()
		l, active := r.listener, r.active
		r.mu.Unlock()
		if active && l != nil {
			l.AppendTranscript(text)
		}
	}
	if err := sc.Err(); err != nil {
		r.logger.Error("capture: transcript stream failed", slog.String("error", err.Error()))
	}

	r.mu.Lock()
	r.eof = true
	r.mu.Unlock()
	r.end()
}

func (r *Reader) end() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.active = false
	done, l := r.done, r.listener
	r.mu.Unlock()

	r.logger.Debug("capture: dictation ended")
	if l != nil {
		l.DictationEnded()
	}
	close(done)
}

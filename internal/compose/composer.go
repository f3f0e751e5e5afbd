// Package compose implements the note composition buffer and its save flow:
// deriving a title, falling back to dictation when there is nothing to save,
// and saving automatically once a requested dictation ends.
package compose

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/starford/murmur/internal/capture"
	"github.com/starford/murmur/internal/models"
)

// titleWords is how many leading words of the content make up a derived title.
const titleWords = 10

// Creator persists a new note.
type Creator interface {
	Create(ctx context.Context, title, content string) (models.Note, error)
}

// Outcome describes what a save request did.
type Outcome int

const (
	// Nothing happened: no content and no dictation could be started.
	Nothing Outcome = iota
	// Saved means a note was persisted and the buffer cleared.
	Saved
	// DictationStarted means there was no content, so dictation was started.
	DictationStarted
	// SavePending means dictation was stopped and the save will follow once
	// it has ended.
	SavePending
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case DictationStarted:
		return "dictation_started"
	case SavePending:
		return "save_pending"
	default:
		return "nothing"
	}
}

// Result is returned by Save and Submit.
type Result struct {
	Outcome Outcome
	Note    models.Note
}

// Composer holds the title/content being composed and drives the save flow.
// It is safe for concurrent use; dictation callbacks arrive on the bridge's
// goroutine.
type Composer struct {
	repo   Creator
	bridge capture.Bridge
	logger *slog.Logger
	ctx    context.Context
	onSave func(models.Note, error)

	mu            sync.Mutex
	title         string
	content       string
	saveAfterStop bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// WithContext sets the context used for saves triggered by dictation ending.
func WithContext(ctx context.Context) Option {
	return func(c *Composer) { c.ctx = ctx }
}

// WithSaveHook registers fn to observe saves triggered by dictation ending.
func WithSaveHook(fn func(models.Note, error)) Option {
	return func(c *Composer) { c.onSave = fn }
}

// New returns a Composer persisting through repo. A nil bridge means
// dictation is unavailable.
func New(repo Creator, bridge capture.Bridge, opts ...Option) *Composer {
	if bridge == nil {
		bridge = capture.Unsupported{}
	}
	c := &Composer{
		repo:   repo,
		bridge: bridge,
		logger: slog.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !bridge.Supported() {
		c.logger.Warn("compose: speech recognition not supported, dictation disabled")
	}
	return c
}

// CanDictate reports whether the dictation affordance should be offered.
func (c *Composer) CanDictate() bool {
	return c.bridge.Supported()
}

// SetTitle replaces the title field.
func (c *Composer) SetTitle(title string) {
	c.mu.Lock()
	c.title = title
	c.mu.Unlock()
}

// SetContent replaces the content field.
func (c *Composer) SetContent(content string) {
	c.mu.Lock()
	c.content = content
	c.mu.Unlock()
}

// Prefill fills both fields from a draft, e.g. a decoded share link.
// Nothing is persisted.
func (c *Composer) Prefill(d models.Draft) {
	c.mu.Lock()
	c.title, c.content = d.Title, d.Content
	c.mu.Unlock()
}

// Draft returns the current field values.
func (c *Composer) Draft() models.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Draft{Title: c.title, Content: c.content}
}

// RequestSaveOnEnd arranges for a save once the current or next dictation
// session ends.
func (c *Composer) RequestSaveOnEnd() {
	c.mu.Lock()
	c.saveAfterStop = true
	c.mu.Unlock()
}

// AppendTranscript implements capture.Listener.
func (c *Composer) AppendTranscript(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.content != "" && !endsWithSpace(c.content) && !unicode.IsSpace(rune(text[0])) {
		c.content += " "
	}
	c.content += text
}

// DictationEnded implements capture.Listener. If a save was requested while
// dictating, it is performed now; such a save never restarts dictation.
func (c *Composer) DictationEnded() {
	c.mu.Lock()
	pending := c.saveAfterStop
	c.saveAfterStop = false
	c.mu.Unlock()
	if !pending {
		return
	}

	res, err := c.save(c.ctx, false)
	if err != nil {
		c.logger.Error("compose: save after dictation failed", slog.String("error", err.Error()))
	}
	if c.onSave != nil && (err != nil || res.Outcome == Saved) {
		c.onSave(res.Note, err)
	}
}

// Submit is the "enter" action: while dictating it stops dictation and saves
// once it has ended, otherwise it saves immediately.
func (c *Composer) Submit(ctx context.Context) (Result, error) {
	if c.bridge.Active() {
		c.RequestSaveOnEnd()
		if err := c.bridge.Stop(); err != nil {
			return Result{}, err
		}
		return Result{Outcome: SavePending}, nil
	}
	return c.Save(ctx)
}

// Save persists the buffer. Without content it starts dictation instead,
// when available. Without a title, one is derived from the content and
// written back to the title field. After a successful save the saved text is
// cleared; anything appended to the buffer while the save ran is kept.
func (c *Composer) Save(ctx context.Context) (Result, error) {
	return c.save(ctx, true)
}

func (c *Composer) save(ctx context.Context, mayDictate bool) (Result, error) {
	c.mu.Lock()
	title := strings.TrimSpace(c.title)
	content := strings.TrimSpace(c.content)
	if content == "" {
		c.mu.Unlock()
		if !mayDictate || !c.bridge.Supported() || c.bridge.Active() {
			return Result{Outcome: Nothing}, nil
		}
		if err := c.bridge.Start(); err != nil {
			return Result{Outcome: Nothing}, err
		}
		return Result{Outcome: DictationStarted}, nil
	}
	if title == "" {
		title = DeriveTitle(content)
		c.title = title
	}
	savedTitle, savedContent := c.title, c.content
	c.mu.Unlock()

	note, err := c.repo.Create(ctx, title, content)
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	if c.title == savedTitle {
		c.title = ""
	}
	if rest, ok := strings.CutPrefix(c.content, savedContent); ok {
		c.content = strings.TrimLeftFunc(rest, unicode.IsSpace)
	}
	c.mu.Unlock()

	c.logger.Debug("compose: note saved", slog.String("id", note.ID))
	return Result{Outcome: Saved, Note: note}, nil
}

// DeriveTitle returns the first ten space-separated words of content.
func DeriveTitle(content string) string {
	words := strings.Split(content, " ")
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.Join(words, " ")
}

func endsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}

// Package speechin coordinates per-session streaming speech recognition.
//
// Each session has at most one live recognition stream. A stream ends in
// exactly one of four ways: a final transcript arrives, the finalization
// timeout fires, the transport fails, or the session is canceled. Whichever
// happens first wins; the callbacks fire at most once per stream.
package speechin

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kioskvoice/ordergate/pkg/speech"
)

const defaultFinalizeTimeout = 10 * time.Second

// Callbacks receives recognition output for one stream. OnFinal and OnError
// are mutually exclusive and fire at most once.
type Callbacks struct {
	OnPartial func(text string)
	OnFinal   func(text string)
	OnError   func(err error)
}

type streamSession struct {
	stream    speech.RecognitionStream
	timer     *time.Timer
	callbacks Callbacks

	// finalized guards the single finalization of this stream. Every
	// terminal path takes the same CompareAndSwap.
	finalized atomic.Bool
	// closing marks that end-of-input was signaled; later audio is dropped.
	closing atomic.Bool
}

// Coordinator owns the recognition streams of all connected sessions.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[string]*streamSession

	rec     speech.Recognizer
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Coordinator)

func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func NewCoordinator(rec speech.Recognizer, opts ...Option) *Coordinator {
	c := &Coordinator{
		sessions: make(map[string]*streamSession),
		rec:      rec,
		timeout:  defaultFinalizeTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a recognition stream for the session. An already-active
// stream is silently discarded first; its callbacks never fire again.
func (c *Coordinator) Start(ctx context.Context, sessionID string, cfg speech.StreamConfig, cb Callbacks) error {
	c.Cancel(sessionID)

	stream, err := c.rec.Open(ctx, cfg)
	if err != nil {
		return err
	}

	sess := &streamSession{stream: stream, callbacks: cb}
	sess.timer = time.AfterFunc(c.timeout, func() {
		if !sess.finalized.CompareAndSwap(false, true) {
			return
		}
		c.logger.Warn("recognition finalize timeout", "session_id", sessionID)
		c.drop(sessionID, sess)
		if cb.OnFinal != nil {
			cb.OnFinal("")
		}
	})

	c.mu.Lock()
	c.sessions[sessionID] = sess
	c.mu.Unlock()

	go c.pump(sessionID, sess)
	return nil
}

// Feed forwards audio to the session's stream. Audio for an unknown session
// or after end-of-input is dropped.
func (c *Coordinator) Feed(sessionID string, audio []byte) {
	c.mu.Lock()
	sess := c.sessions[sessionID]
	c.mu.Unlock()

	if sess == nil || sess.closing.Load() || sess.finalized.Load() {
		return
	}
	if err := sess.stream.Send(audio); err != nil {
		c.logger.Warn("send audio failed", "session_id", sessionID, "error", err)
	}
}

// End signals end-of-input. The stream stays open until the final
// transcript arrives or the finalization timeout fires.
func (c *Coordinator) End(sessionID string) {
	c.mu.Lock()
	sess := c.sessions[sessionID]
	c.mu.Unlock()

	if sess == nil || !sess.closing.CompareAndSwap(false, true) {
		return
	}
	if err := sess.stream.CloseSend(); err != nil {
		c.logger.Warn("close send failed", "session_id", sessionID, "error", err)
	}
}

// Cancel tears the session's stream down without firing any callback.
func (c *Coordinator) Cancel(sessionID string) {
	c.mu.Lock()
	sess := c.sessions[sessionID]
	c.mu.Unlock()

	if sess == nil {
		return
	}
	sess.finalized.Store(true)
	c.drop(sessionID, sess)
}

// Active reports whether the session has a live stream accepting audio.
func (c *Coordinator) Active(sessionID string) bool {
	c.mu.Lock()
	sess := c.sessions[sessionID]
	c.mu.Unlock()
	return sess != nil && !sess.closing.Load() && !sess.finalized.Load()
}

func (c *Coordinator) pump(sessionID string, sess *streamSession) {
	for res := range sess.stream.Results() {
		if res.Err != nil {
			if sess.finalized.CompareAndSwap(false, true) {
				c.logger.Warn("recognition failed", "session_id", sessionID, "error", res.Err)
				c.drop(sessionID, sess)
				if sess.callbacks.OnError != nil {
					sess.callbacks.OnError(res.Err)
				}
			}
			return
		}
		if res.IsFinal {
			if sess.finalized.CompareAndSwap(false, true) {
				c.drop(sessionID, sess)
				if sess.callbacks.OnFinal != nil {
					sess.callbacks.OnFinal(res.Text)
				}
			}
			return
		}
		if !sess.finalized.Load() && sess.callbacks.OnPartial != nil {
			sess.callbacks.OnPartial(res.Text)
		}
	}

	// Stream closed without a final transcript.
	if sess.finalized.CompareAndSwap(false, true) {
		c.drop(sessionID, sess)
		if sess.callbacks.OnFinal != nil {
			sess.callbacks.OnFinal("")
		}
	}
}

// drop removes the session entry, stops the timer and closes the stream.
func (c *Coordinator) drop(sessionID string, sess *streamSession) {
	c.mu.Lock()
	if c.sessions[sessionID] == sess {
		delete(c.sessions, sessionID)
	}
	c.mu.Unlock()

	sess.timer.Stop()
	if err := sess.stream.Close(); err != nil {
		c.logger.Debug("close stream", "session_id", sessionID, "error", err)
	}
}

// Package speechout renders bot replies to audio and streams them to
// sessions in small paced chunks.
package speechout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kioskvoice/ordergate/pkg/speech"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
	defaultChunkSize = 1024
	defaultDelay     = 20 * time.Millisecond
)

// Delivery receives the audio of one synthesis job. OnChunk returning false
// aborts the job; OnComplete then never fires.
type Delivery struct {
	OnChunk    func(chunk []byte) bool
	OnComplete func()
	OnError    func(err error)
}

type job struct {
	ctx       context.Context
	sessionID string
	text      string
	delivery  Delivery
}

// Streamer synthesizes text on a bounded worker pool and paces the audio
// out in fixed-size chunks so playback can start before the payload ends.
type Streamer struct {
	synth speech.Synthesizer

	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once

	workers   int
	chunkSize int
	delay     time.Duration
	logger    *slog.Logger
}

type Option func(*Streamer)

func WithWorkers(n int) Option {
	return func(s *Streamer) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithChunkSize(size int) Option {
	return func(s *Streamer) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

func WithChunkDelay(d time.Duration) Option {
	return func(s *Streamer) { s.delay = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Streamer) { s.logger = logger }
}

func NewStreamer(synth speech.Synthesizer, opts ...Option) *Streamer {
	s := &Streamer{
		synth:     synth,
		jobs:      make(chan job, defaultQueueSize),
		workers:   defaultWorkers,
		chunkSize: defaultChunkSize,
		delay:     defaultDelay,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Speak queues one synthesis job. It returns false when the queue is full;
// a stale reply is better dropped than delivered late.
func (s *Streamer) Speak(ctx context.Context, sessionID, text string, delivery Delivery) bool {
	select {
	case s.jobs <- job{ctx: ctx, sessionID: sessionID, text: text, delivery: delivery}:
		return true
	default:
		s.logger.Warn("synthesis queue full, dropping reply", "session_id", sessionID)
		return false
	}
}

// Close drains queued jobs and stops the workers.
func (s *Streamer) Close() {
	s.closeOnce.Do(func() { close(s.jobs) })
	s.wg.Wait()
}

func (s *Streamer) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		s.run(j)
	}
}

func (s *Streamer) run(j job) {
	audio, err := s.synth.Synthesize(j.ctx, j.text)
	if err != nil {
		s.logger.Warn("synthesis failed", "session_id", j.sessionID, "error", err)
		if j.delivery.OnError != nil {
			j.delivery.OnError(err)
		}
		return
	}

	for offset := 0; offset < len(audio); offset += s.chunkSize {
		if j.ctx.Err() != nil {
			return
		}
		end := offset + s.chunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if j.delivery.OnChunk != nil && !j.delivery.OnChunk(audio[offset:end]) {
			s.logger.Debug("chunk delivery aborted", "session_id", j.sessionID)
			return
		}
		if s.delay > 0 && end < len(audio) {
			time.Sleep(s.delay)
		}
	}

	if j.delivery.OnComplete != nil {
		j.delivery.OnComplete()
	}
}

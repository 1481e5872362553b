// Package cartesia provides speech recognition and synthesis backed by the
// Cartesia API.
package cartesia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kioskvoice/ordergate/pkg/speech"
)

const (
	baseURL    = "https://api.cartesia.ai"
	sttWSURL   = "wss://api.cartesia.ai/stt/websocket"
	apiVersion = "2025-04-16"

	sttModel = "ink-whisper"
)

// Recognizer opens streaming transcription sessions against Cartesia's
// websocket STT endpoint. It implements speech.Recognizer.
type Recognizer struct {
	apiKey string
	dialer *websocket.Dialer
}

func NewRecognizer(apiKey string) *Recognizer {
	return &Recognizer{
		apiKey: apiKey,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Open connects a new recognition stream. The returned stream delivers
// partial and final results on Results until CloseSend or Close.
func (r *Recognizer) Open(ctx context.Context, cfg speech.StreamConfig) (speech.RecognitionStream, error) {
	u, err := url.Parse(sttWSURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket URL: %w", err)
	}

	language := cfg.Language
	if language == "" {
		language = "ko"
	}
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "pcm_s16le"
	}
	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}

	q := u.Query()
	q.Set("model", sttModel)
	q.Set("language", language)
	q.Set("encoding", encoding)
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	q.Set("min_volume", "0.01")
	q.Set("api_key", r.apiKey)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("X-API-Key", r.apiKey)
	headers.Set("Cartesia-Version", apiVersion)

	conn, resp, err := r.dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("websocket connect (status %d): %s", resp.StatusCode, string(body))
			}
			return nil, fmt.Errorf("websocket connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	s := &recognitionStream{
		conn:    conn,
		results: make(chan speech.Result, 100),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type recognitionStream struct {
	conn    *websocket.Conn
	results chan speech.Result
	done    chan struct{}
	closed  atomic.Bool
	writeMu sync.Mutex
}

type sttResponse struct {
	Type    string `json:"type"` // "transcript", "flush_done", "done", "error"
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	Error   string `json:"error"`
}

func (s *recognitionStream) readLoop() {
	defer func() {
		close(s.results)
		close(s.done)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.emit(speech.Result{Err: fmt.Errorf("read transcript: %w", err)})
			return
		}

		var msg sttResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "transcript":
			if !s.emit(speech.Result{Text: msg.Text, IsFinal: msg.IsFinal}) {
				return
			}
		case "flush_done":
			continue
		case "done":
			return
		case "error":
			s.emit(speech.Result{Err: fmt.Errorf("cartesia stt: %s", msg.Error)})
			return
		}
	}
}

func (s *recognitionStream) emit(res speech.Result) bool {
	select {
	case s.results <- res:
		return true
	case <-s.done:
		return false
	}
}

func (s *recognitionStream) Send(audio []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, audio)
}

// CloseSend flushes buffered audio and asks for the final transcript. The
// session stays open until the recognizer reports done.
func (s *recognitionStream) CloseSend() error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte("finalize"))
}

func (s *recognitionStream) Results() <-chan speech.Result {
	return s.results
}

func (s *recognitionStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.writeMu.Lock()
	s.conn.WriteMessage(websocket.TextMessage, []byte("done"))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}

// Package speech defines the recognizer and synthesizer capabilities the
// chat layer consumes. Implementations live in subpackages.
package speech

import "context"

// StreamConfig describes the audio a recognition stream will receive.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Encoding   string
	Language   string
}

// Result is one recognition update. Err is set on transport failure, after
// which the channel closes.
type Result struct {
	Text    string
	IsFinal bool
	Err     error
}

// RecognitionStream is one open streaming-recognition session.
type RecognitionStream interface {
	// Send forwards raw audio bytes to the recognizer.
	Send(audio []byte) error
	// CloseSend signals end-of-input; a final result may still arrive.
	CloseSend() error
	// Results delivers partial and final results. The channel closes when
	// the stream ends, whether normally or on error.
	Results() <-chan Result
	// Close tears the stream down immediately.
	Close() error
}

// Recognizer opens streaming recognition sessions.
type Recognizer interface {
	Open(ctx context.Context, cfg StreamConfig) (RecognitionStream, error)
}

// Synthesizer converts text to a complete audio payload in one call.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

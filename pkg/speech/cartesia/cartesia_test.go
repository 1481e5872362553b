package cartesia

import (
	"net/http"
	"testing"
)

func TestNewSynthesizer_Defaults(t *testing.T) {
	s := NewSynthesizer("api-key")
	if s.httpClient == nil {
		t.Fatal("default synthesizer should initialize http client")
	}
	if s.voiceID == "" {
		t.Fatal("default voice id should be set")
	}
	if s.language != "ko" {
		t.Fatalf("language = %q, want ko", s.language)
	}
	if s.sampleRate != 24000 {
		t.Fatalf("sample rate = %d, want 24000", s.sampleRate)
	}
}

func TestNewSynthesizer_Options(t *testing.T) {
	client := &http.Client{}
	s := NewSynthesizer("api-key",
		WithHTTPClient(client),
		WithVoice("voice-123"),
		WithLanguage("en"),
	)
	if s.httpClient != client {
		t.Fatal("expected custom http client to be set")
	}
	if s.voiceID != "voice-123" {
		t.Fatalf("voice = %q, want voice-123", s.voiceID)
	}
	if s.language != "en" {
		t.Fatalf("language = %q, want en", s.language)
	}
}

func TestNewRecognizer(t *testing.T) {
	r := NewRecognizer("api-key")
	if r.dialer == nil {
		t.Fatal("recognizer should initialize dialer")
	}
}

package cartesia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const ttsModel = "sonic-3"

// Synthesizer produces complete audio payloads from Cartesia's batch TTS
// endpoint. It implements speech.Synthesizer.
type Synthesizer struct {
	apiKey     string
	voiceID    string
	language   string
	sampleRate int
	httpClient *http.Client
}

type SynthesizerOption func(*Synthesizer)

func WithHTTPClient(client *http.Client) SynthesizerOption {
	return func(s *Synthesizer) { s.httpClient = client }
}

func WithVoice(voiceID string) SynthesizerOption {
	return func(s *Synthesizer) { s.voiceID = voiceID }
}

func WithLanguage(language string) SynthesizerOption {
	return func(s *Synthesizer) { s.language = language }
}

func NewSynthesizer(apiKey string, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		apiKey:     apiKey,
		voiceID:    "a0e99841-438c-4a64-b679-ae501e7d6091",
		language:   "ko",
		sampleRate: 24000,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ttsRequest struct {
	ModelID      string          `json:"model_id"`
	Transcript   string          `json:"transcript"`
	Voice        ttsVoice        `json:"voice"`
	OutputFormat ttsOutputFormat `json:"output_format"`
	Language     string          `json:"language,omitempty"`
}

type ttsVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type ttsOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// Synthesize renders text into a single WAV payload.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	reqBody := ttsRequest{
		ModelID:    ttsModel,
		Transcript: text,
		Voice:      ttsVoice{Mode: "id", ID: s.voiceID},
		OutputFormat: ttsOutputFormat{
			Container:  "wav",
			Encoding:   "pcm_s16le",
			SampleRate: s.sampleRate,
		},
		Language: s.language,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/tts/bytes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Cartesia-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []byte{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cartesia error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

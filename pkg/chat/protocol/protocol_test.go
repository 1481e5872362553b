package protocol

import (
	"errors"
	"testing"
)

func TestDecodeClientMessage_Text(t *testing.T) {
	t.Parallel()

	msg, err := DecodeClientMessage([]byte(`{"type":"client.text","message":"아메리카노 주세요"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage error: %v", err)
	}
	text, ok := msg.(ClientText)
	if !ok {
		t.Fatalf("decoded %T, want ClientText", msg)
	}
	if text.Message != "아메리카노 주세요" {
		t.Fatalf("message=%q", text.Message)
	}
}

func TestDecodeClientMessage_CommandActions(t *testing.T) {
	t.Parallel()

	for _, action := range []string{"confirm", "cancel", "repeat"} {
		msg, err := DecodeClientMessage([]byte(`{"type":"client.command","action":" ` + action + ` "}`))
		if err != nil {
			t.Fatalf("action %q: %v", action, err)
		}
		cmd := msg.(ClientCommand)
		if cmd.Action != action {
			t.Fatalf("action=%q, want %q (trimmed)", cmd.Action, action)
		}
	}

	if _, err := DecodeClientMessage([]byte(`{"type":"client.command","action":"explode"}`)); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestDecodeClientMessage_AudioChunkRequiresData(t *testing.T) {
	t.Parallel()

	if _, err := DecodeClientMessage([]byte(`{"type":"audio.chunk"}`)); err == nil {
		t.Fatalf("expected error for missing audioData")
	}

	msg, err := DecodeClientMessage([]byte(`{"type":"audio.chunk","audioData":"AAAA"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage error: %v", err)
	}
	if chunk := msg.(AudioChunk); chunk.AudioData != "AAAA" {
		t.Fatalf("audioData=%q", chunk.AudioData)
	}
}

func TestDecodeClientMessage_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing type", `{"message":"hi"}`},
		{"unknown type", `{"type":"client.selfie"}`},
		{"empty text", `{"type":"client.text","message":"  "}`},
	}
	for _, tc := range cases {
		_, err := DecodeClientMessage([]byte(tc.data))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("%s: error type %T, want *DecodeError", tc.name, err)
		}
	}
}

func TestDecodeClientMessage_AudioStartConfigOptional(t *testing.T) {
	t.Parallel()

	msg, err := DecodeClientMessage([]byte(`{"type":"audio.start","config":{"sampleRate":16000,"channels":1,"encoding":"WEBM_OPUS"}}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage error: %v", err)
	}
	start := msg.(AudioStart)
	if start.Config == nil || start.Config.SampleRate != 16000 {
		t.Fatalf("config=%+v", start.Config)
	}

	if _, err := DecodeClientMessage([]byte(`{"type":"audio.start"}`)); err != nil {
		t.Fatalf("bare audio.start should decode: %v", err)
	}
}

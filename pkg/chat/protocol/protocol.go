// Package protocol owns the wire-level message taxonomy for the ordering
// websocket. Every frame is a JSON object with a "type" discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Client -> server frame types.
const (
	TypeClientText    = "client.text"
	TypeClientCommand = "client.command"
	TypeAudioStart    = "audio.start"
	TypeAudioChunk    = "audio.chunk"
	TypeAudioEnd      = "audio.end"
)

// Server -> client frame types.
const (
	TypeConnection           = "connection"
	TypeBotReply             = "bot.reply"
	TypeTranscriptPartial    = "transcript.partial"
	TypeTranscriptFinal      = "transcript.final"
	TypeTTSChunk             = "tts.chunk"
	TypeTTSComplete          = "tts.complete"
	TypeDialogState          = "dialog.state"
	TypeMacroTrigger         = "macro.trigger"
	TypeConversationComplete = "conversation.complete"
	TypeServerError          = "server.error"
)

// Command actions accepted on client.command frames.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
	ActionRepeat  = "repeat"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// AudioConfig describes the capture format announced on audio.start.
type AudioConfig struct {
	SampleRate int    `json:"sampleRate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

type ClientText struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ClientCommand struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type AudioStart struct {
	Type   string       `json:"type"`
	Config *AudioConfig `json:"config,omitempty"`
}

type AudioChunk struct {
	Type      string `json:"type"`
	AudioData string `json:"audioData"` // base64
}

type AudioEnd struct {
	Type string `json:"type"`
}

// DecodeClientMessage parses a raw inbound frame into one of the typed
// client messages, or returns a *DecodeError describing the rejection.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case TypeClientText:
		var msg ClientText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid client.text frame", "")
		}
		if strings.TrimSpace(msg.Message) == "" {
			return nil, badRequest("client.text.message is required", "message")
		}
		return msg, nil
	case TypeClientCommand:
		var msg ClientCommand
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid client.command frame", "")
		}
		action := strings.TrimSpace(msg.Action)
		switch action {
		case ActionConfirm, ActionCancel, ActionRepeat:
		case "":
			return nil, badRequest("client.command.action is required", "action")
		default:
			return nil, unsupported("unsupported command action", "action")
		}
		msg.Action = action
		return msg, nil
	case TypeAudioStart:
		var msg AudioStart
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio.start frame", "")
		}
		return msg, nil
	case TypeAudioChunk:
		var msg AudioChunk
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio.chunk frame", "")
		}
		if strings.TrimSpace(msg.AudioData) == "" {
			return nil, badRequest("audio.chunk.audioData is required", "audioData")
		}
		return msg, nil
	case TypeAudioEnd:
		var msg AudioEnd
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio.end frame", "")
		}
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

type ServerMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServerConnection is the ack sent right after a session registers.
type ServerConnection struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ServerTranscript struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
}

type ServerTTSChunk struct {
	Type      string `json:"type"`
	AudioData string `json:"audioData"` // base64
}

type ServerTTSComplete struct {
	Type string `json:"type"`
}

// ServerDialogState carries a dialog-state snapshot. The state payload is
// produced by the dialog package; the relay only wraps it.
type ServerDialogState struct {
	Type  string `json:"type"`
	State any    `json:"state"`
}

type ServerMacroTrigger struct {
	Type      string `json:"type"`
	OrderData any    `json:"orderData"`
}

type ServerError struct {
	Type      string `json:"type"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Encode marshals an outbound frame. Frames are built from the typed
// structs above, so a marshal failure is a programming error; it is
// returned anyway so callers can log it.
func Encode(frame any) ([]byte, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

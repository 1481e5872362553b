// Package relay ties one websocket session to the dialog engine and the
// speech pipelines. It owns the read loop, frame dispatch, and the fan-out
// of dialog events back over the wire.
package relay

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/kioskvoice/ordergate/pkg/chat/protocol"
	"github.com/kioskvoice/ordergate/pkg/chat/registry"
	"github.com/kioskvoice/ordergate/pkg/chat/speechin"
	"github.com/kioskvoice/ordergate/pkg/chat/speechout"
	"github.com/kioskvoice/ordergate/pkg/dialog"
	"github.com/kioskvoice/ordergate/pkg/speech"
)

const connectedMessage = "음성 주문 서비스에 연결되었습니다."

// ClientConn is the websocket surface the relay needs: the registry's write
// half plus the inbound read.
type ClientConn interface {
	registry.WireConn
	ReadMessage() (messageType int, p []byte, err error)
}

// OrderSink receives completed orders for fulfillment.
type OrderSink interface {
	Submit(ctx context.Context, ord dialog.Order) error
}

// Deps carries the relay's collaborators. Recognition, Speech and Orders
// are optional; a nil value disables that capability.
type Deps struct {
	Registry    *registry.Registry
	Searcher    dialog.Searcher
	Recognition *speechin.Coordinator
	Speech      *speechout.Streamer
	Orders      OrderSink
	Intents     dialog.IntentClassifier
	Logger      *slog.Logger
}

type Relay struct {
	registry    *registry.Registry
	engine      *dialog.Engine
	recognition *speechin.Coordinator
	speech      *speechout.Streamer
	orders      OrderSink
	logger      *slog.Logger
}

func New(deps Deps) *Relay {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		registry:    deps.Registry,
		recognition: deps.Recognition,
		speech:      deps.Speech,
		orders:      deps.Orders,
		logger:      logger,
	}

	engineOpts := []dialog.EngineOption{dialog.WithLogger(logger)}
	if deps.Intents != nil {
		engineOpts = append(engineOpts, dialog.WithIntents(deps.Intents))
	}
	r.engine = dialog.NewEngine(deps.Searcher, r, engineOpts...)
	return r
}

// HandleSession runs the session's read loop until the client disconnects,
// then releases every per-session resource exactly once.
func (r *Relay) HandleSession(ctx context.Context, sessionID string, conn ClientConn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.registry.Register(sessionID, conn)
	defer func() {
		if r.recognition != nil {
			r.recognition.Cancel(sessionID)
		}
		r.engine.Clear(sessionID)
		r.registry.Unregister(sessionID)
		r.logger.Info("session closed", "session_id", sessionID)
	}()

	r.send(sessionID, protocol.ServerConnection{
		Type:      protocol.TypeConnection,
		SessionID: sessionID,
		Message:   connectedMessage,
	})
	r.logger.Info("session opened", "session_id", sessionID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			r.rejectFrame(sessionID, err)
			continue
		}

		switch m := msg.(type) {
		case protocol.ClientText:
			r.handleUtterance(ctx, sessionID, m.Message)
		case protocol.ClientCommand:
			r.handleCommand(ctx, sessionID, m.Action)
		case protocol.AudioStart:
			r.handleAudioStart(ctx, sessionID, m.Config)
		case protocol.AudioChunk:
			r.handleAudioChunk(sessionID, m.AudioData)
		case protocol.AudioEnd:
			if r.recognition != nil {
				r.recognition.End(sessionID)
			}
		}
	}
}

func (r *Relay) handleUtterance(ctx context.Context, sessionID, text string) {
	reply := r.engine.Handle(ctx, sessionID, text)
	r.deliverReply(ctx, sessionID, reply)
}

func (r *Relay) handleCommand(ctx context.Context, sessionID, action string) {
	var reply dialog.Reply
	switch action {
	case protocol.ActionConfirm:
		reply = r.engine.Confirm(sessionID)
	case protocol.ActionCancel:
		reply = r.engine.Cancel(sessionID)
	case protocol.ActionRepeat:
		reply = r.engine.Repeat(sessionID)
	default:
		return
	}
	r.deliverReply(ctx, sessionID, reply)
}

func (r *Relay) deliverReply(ctx context.Context, sessionID string, reply dialog.Reply) {
	r.send(sessionID, protocol.ServerMessage{
		Type:    protocol.TypeBotReply,
		Message: reply.Message,
	})
	if reply.Kind == dialog.ReplyCompleted {
		r.send(sessionID, protocol.ServerMessage{
			Type:    protocol.TypeConversationComplete,
			Message: reply.Message,
		})
		// The conversation is over; the goodbye is not synthesized.
		return
	}
	r.speak(ctx, sessionID, reply.Message)
}

func (r *Relay) handleAudioStart(ctx context.Context, sessionID string, cfg *protocol.AudioConfig) {
	if r.recognition == nil {
		r.sendError(sessionID, "stt_disabled", "음성 인식 서비스가 비활성화되어 있습니다.", false)
		return
	}

	streamCfg := speech.StreamConfig{}
	if cfg != nil {
		streamCfg.SampleRate = cfg.SampleRate
		streamCfg.Channels = cfg.Channels
		streamCfg.Encoding = cfg.Encoding
	}

	err := r.recognition.Start(ctx, sessionID, streamCfg, speechin.Callbacks{
		OnPartial: func(text string) {
			r.send(sessionID, protocol.ServerTranscript{
				Type:       protocol.TypeTranscriptPartial,
				Transcript: text,
			})
		},
		OnFinal: func(text string) {
			r.onFinalTranscript(ctx, sessionID, text)
		},
		OnError: func(err error) {
			r.logger.Warn("recognition error", "session_id", sessionID, "error", err)
			r.sendError(sessionID, "stt_failed", "음성 인식에 실패했습니다. 다시 시도해 주세요.", true)
		},
	})
	if err != nil {
		r.logger.Warn("open recognition failed", "session_id", sessionID, "error", err)
		r.sendError(sessionID, "stt_failed", "음성 인식을 시작할 수 없습니다.", true)
	}
}

func (r *Relay) handleAudioChunk(sessionID, audioData string) {
	if r.recognition == nil {
		return
	}
	audio, err := base64.StdEncoding.DecodeString(audioData)
	if err != nil {
		r.sendError(sessionID, "bad_request", "audioData must be base64", false)
		return
	}
	r.recognition.Feed(sessionID, audio)
}

// onFinalTranscript is the recognition finalization path. A blank final
// transcript means nothing usable was heard; the dialog state must not move.
func (r *Relay) onFinalTranscript(ctx context.Context, sessionID, text string) {
	if text == "" {
		r.logger.Info("blank final transcript, skipping dialog", "session_id", sessionID)
		return
	}
	r.send(sessionID, protocol.ServerTranscript{
		Type:       protocol.TypeTranscriptFinal,
		Transcript: text,
	})
	r.handleUtterance(ctx, sessionID, text)
}

func (r *Relay) speak(ctx context.Context, sessionID, text string) {
	if r.speech == nil || text == "" {
		return
	}
	r.speech.Speak(ctx, sessionID, text, speechout.Delivery{
		OnChunk: func(chunk []byte) bool {
			return r.send(sessionID, protocol.ServerTTSChunk{
				Type:      protocol.TypeTTSChunk,
				AudioData: base64.StdEncoding.EncodeToString(chunk),
			})
		},
		OnComplete: func() {
			r.send(sessionID, protocol.ServerTTSComplete{Type: protocol.TypeTTSComplete})
		},
		OnError: func(err error) {
			r.sendError(sessionID, "tts_failed", "음성 합성에 실패했습니다.", true)
		},
	})
}

// DialogStateChanged implements dialog.EventSink.
func (r *Relay) DialogStateChanged(sessionID string, snapshot dialog.Snapshot) {
	r.send(sessionID, protocol.ServerDialogState{
		Type:  protocol.TypeDialogState,
		State: snapshot,
	})
}

// OrderSubmitted implements dialog.EventSink. The webhook runs detached:
// the customer's goodbye must not wait on the fulfillment endpoint.
func (r *Relay) OrderSubmitted(sessionID string, ord dialog.Order) {
	r.send(sessionID, protocol.ServerMacroTrigger{
		Type:      protocol.TypeMacroTrigger,
		OrderData: ord,
	})
	if r.orders != nil {
		go func() {
			if err := r.orders.Submit(context.Background(), ord); err != nil {
				r.logger.Warn("order submission failed", "session_id", sessionID, "error", err)
			}
		}()
	}
}

func (r *Relay) rejectFrame(sessionID string, err error) {
	code, message := "bad_request", "invalid frame"
	if de, ok := err.(*protocol.DecodeError); ok {
		code, message = de.Code, de.Error()
	}
	r.sendError(sessionID, code, message, false)
}

func (r *Relay) sendError(sessionID, code, message string, retryable bool) {
	r.send(sessionID, protocol.ServerError{
		Type:      protocol.TypeServerError,
		ErrorCode: code,
		Message:   message,
		Retryable: retryable,
	})
}

func (r *Relay) send(sessionID string, frame any) bool {
	data, err := protocol.Encode(frame)
	if err != nil {
		r.logger.Error("encode frame failed", "session_id", sessionID, "error", err)
		return false
	}
	return r.registry.Send(sessionID, data)
}

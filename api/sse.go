package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/saptarishi/jyotishai/internal/agent"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// sseWriter emits server-sent events. Each event is a single JSON object on
// its own data line; markup inside answer text must reach the client
// unescaped, so HTML escaping is turned off on the encoder.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) Send(payload map[string]interface{}) error {
	buf, err := marshalUnescaped(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", buf); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// marshalUnescaped marshals without HTML-escaping so <br> and <strong>
// survive intact.
func marshalUnescaped(v interface{}) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// ── Chat ──

// ChatAskRequest is the body of POST /api/v1/chat/ask.
type ChatAskRequest struct {
	Birth      models.BirthData `json:"birth_data"`
	Question   string           `json:"question"`
	Language   string           `json:"language"`
	ForceReady bool             `json:"force_ready"`
}

func (r *ChatAskRequest) birth() models.BirthData { return r.Birth }

// handleChatAsk streams a chat answer over SSE. Insufficient credits is a
// plain 402 before the stream opens; later failures become a terminal error
// event on the stream.
func (s *Server) handleChatAsk(w http.ResponseWriter, r *http.Request) {
	var req ChatAskRequest
	if !decodeBirth(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusUnprocessableEntity, "question is required")
		return
	}

	uid := userID(r)
	bal, err := s.ledger.Balance(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bal < int64(s.cfg.Credits.Cost("chat")) {
		writeError(w, http.StatusPaymentRequired, "insufficient credits")
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	err = s.orch.Ask(r.Context(), agent.AskInput{
		UserID:     uid,
		Question:   req.Question,
		Birth:      req.Birth,
		Language:   req.Language,
		ForceReady: req.ForceReady,
	}, func(ev agent.Event) error {
		return sse.Send(chatWireEvent(ev))
	})
	if err != nil {
		if r.Context().Err() != nil {
			return // client gone, nothing to tell it
		}
		s.log.WithError(err).WithField("user_id", uid).Warn("chat stream failed")
		msg := "internal error"
		if errors.Is(err, agent.ErrUnparseable) {
			msg = "the model reply could not be parsed; you were not charged"
		} else if errors.Is(err, agent.ErrInsufficientCredits) {
			msg = "insufficient credits"
		}
		_ = sse.Send(map[string]interface{}{"status": agent.EventError, "message": msg})
	}
}

// chatWireEvent translates an orchestrator event into the status-keyed
// JSON object the clients consume.
func chatWireEvent(ev agent.Event) map[string]interface{} {
	out := map[string]interface{}{"status": ev.Type}
	switch ev.Type {
	case agent.EventClarify:
		if m, ok := ev.Data.(map[string]interface{}); ok {
			out["question"] = m["clarification"]
			out["category"] = m["category"]
		}
	case agent.EventToken:
		out["chunk"] = ev.Data
	case agent.EventComplete:
		out["data"] = ev.Data
	default:
		if ev.Data != nil {
			out["data"] = ev.Data
		}
	}
	return out
}

// ── Topic Reports ──

// TopicRequest is the body of the per-topic report endpoints.
type TopicRequest struct {
	Birth   models.BirthData `json:"birth_data"`
	Refresh bool             `json:"refresh"`
}

func (r *TopicRequest) birth() models.BirthData { return r.Birth }

// topicHandler builds the SSE handler for one long-form report topic. The
// stream carries a processing marker followed by exactly one terminal
// event, complete or error.
func (s *Server) topicHandler(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cost := int64(s.cfg.Credits.Cost(topic))
		var req TopicRequest
		if !decodeBirth(w, r, &req) {
			return
		}

		uid := userID(r)
		// A stored report is served free, so the credit gate only applies
		// when generation is actually needed.
		_, _, cached, err := s.store.Insight(r.Context(), topic, req.Birth.Hash())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !cached || req.Refresh {
			bal, err := s.ledger.Balance(r.Context(), uid)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if bal < cost {
				writeError(w, http.StatusPaymentRequired, "insufficient credits")
				return
			}
		}

		sse, ok := newSSEWriter(w)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		if err := sse.Send(map[string]interface{}{"status": "processing", "topic": topic}); err != nil {
			return
		}

		report, err := s.orch.TopicAnalysis(r.Context(), agent.TopicInput{
			UserID:  uid,
			Topic:   topic,
			Birth:   req.Birth,
			Refresh: req.Refresh,
		})
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			s.log.WithError(err).WithFields(map[string]interface{}{
				"user_id": uid, "topic": topic,
			}).Warn("topic report failed")
			msg := "internal error"
			if errors.Is(err, agent.ErrInsufficientCredits) {
				msg = "insufficient credits"
			} else if errors.Is(err, agent.ErrUnparseable) {
				msg = "the model reply could not be parsed; you were not charged"
			} else if errors.Is(err, agent.ErrUnknownTopic) {
				msg = "unknown topic"
			}
			_ = sse.Send(map[string]interface{}{"status": agent.EventError, "message": msg})
			return
		}

		_ = sse.Send(map[string]interface{}{
			"status": agent.EventComplete,
			"data":   map[string]interface{}{"analysis": report.Analysis},
			"cached": report.Cached,
		})
	}
}

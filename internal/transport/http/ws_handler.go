package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	attempts *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	TimeLimit  int    `json:"timeLimit"`
}

type answerPayload struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type quizPayload struct {
	Questions []domain.QuizQuestion `json:"questions"`
	TimeLimit int                   `json:"timeLimit"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	_, msg := statusFor(err)
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

func eventMessage(ev app.Event) outboundMessage[any] {
	switch ev.Type {
	case app.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: ev.Remaining}}
	case app.EventSubmitted:
		return outboundMessage[any]{Type: "submitted", Payload: ev.Result}
	default:
		return errorMessage(ev.Err)
	}
}

// Serve upgrades an authenticated request and drives one attempt session over the socket.
func (h *WSHandler) Serve(c *gin.Context) {
	user := currentUser(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	events := make(chan app.Event, 16)
	closeSignals := make(chan struct{})

	// The countdown may outlive this handler briefly; emit never blocks once closeSignals is closed.
	session, err := h.attempts.Open(ctx, user, func(ev app.Event) {
		select {
		case events <- ev:
		case <-closeSignals:
		}
	})
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.attempts.Close(closeCtx, session)
	}()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})
	out := outbox{send: send, done: writerDone}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev := <-events:
				select {
				case send <- eventMessage(ev):
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if out.push(outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: session.ID()}}) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			reply, ok := dispatch(ctx, session, inbound)
			if ok && !out.push(reply) {
				break
			}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

// outbox hands messages to the socket writer and reports false once the writer has stopped.
type outbox struct {
	send chan<- outboundMessage[any]
	done <-chan struct{}
}

func (o outbox) push(msg outboundMessage[any]) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

// dispatch applies one client message to the session and returns the direct reply, if any.
func dispatch(ctx context.Context, session *app.AttemptSession, inbound inboundMessage) (outboundMessage[any], bool) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}}, true
		}
		difficulty, err := domain.ParseDifficulty(payload.Difficulty)
		if err != nil {
			return errorMessage(err), true
		}
		questions, err := session.Start(ctx, app.StartRequest{
			Topic:      payload.Topic,
			Difficulty: difficulty,
			Count:      payload.Count,
			TimeLimit:  payload.TimeLimit,
		})
		if err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{Type: "quiz", Payload: quizPayload{Questions: questions, TimeLimit: payload.TimeLimit}}, true
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}, true
		}
		if err := session.SelectAnswer(payload.Index, payload.Option); err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{}, false
	case "submit":
		// Success and persistence failures arrive through the session's events.
		if _, err := session.Submit(ctx); err != nil &&
			(errors.Is(err, domain.ErrAlreadySubmitted) || errors.Is(err, domain.ErrSessionState)) {
			return errorMessage(err), true
		}
		return outboundMessage[any]{}, false
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}, true
	}
}

package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"civicquiz-service/internal/app"
	"civicquiz-service/internal/domain"
	"civicquiz-service/internal/mode"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID  string `json:"questionId"`
	OptionID    string `json:"optionId"`
	TimeSpentMs int64  `json:"timeSpentMs"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// session use cases. The mode query parameter selects the game mode for
// the first joiner; later joiners inherit the session's mode.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	modeID := mode.ID(r.URL.Query().Get("mode"))
	if quizID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing quizId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	joined, err := h.service.Join(r.Context(), quizID, userID, displayName, modeID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events, cancel, err := h.service.Subscribe(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(r.Context(), quizID, userID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow
	// concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundEvent(event):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			h.handleAnswer(r, quizID, userID, inbound.Payload, send)
		case "ready":
			if _, err := h.service.MarkReady(r.Context(), quizID, userID); err != nil {
				send <- errorMessage(err)
			}
		case "start":
			if _, err := h.service.StartGame(r.Context(), quizID, userID); err != nil {
				send <- errorMessage(err)
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleAnswer(r *http.Request, quizID, userID string, payload json.RawMessage, send chan<- outboundMessage[any]) {
	var answer answerPayload
	if err := json.Unmarshal(payload, &answer); err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
		return
	}
	outcome, err := h.service.SubmitAnswer(r.Context(), quizID, userID, domain.AnswerSubmission{
		QuestionID: answer.QuestionID,
		OptionID:   answer.OptionID,
		TimeSpent:  time.Duration(answer.TimeSpentMs) * time.Millisecond,
	})
	if err != nil {
		send <- errorMessage(err)
		return
	}
	send <- outboundMessage[any]{Type: "answerResult", Payload: outcome.Result}
}

func outboundEvent(event app.Event) outboundMessage[any] {
	switch event.Type {
	case app.EventToast:
		return outboundMessage[any]{Type: "toast", Payload: event.Toast}
	default:
		return outboundMessage[any]{Type: "snapshot", Payload: event.Snapshot}
	}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicquiz-service/internal/app"
	"civicquiz-service/internal/domain"
	"civicquiz-service/internal/infra/memory"
	"civicquiz-service/internal/mode"
	"github.com/gorilla/websocket"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect joined event first.
	msgType, payload := readNext(conn, t, "joined")
	if msgType != "joined" {
		t.Fatalf("expected joined, got %s", msgType)
	}
	if payload == nil {
		t.Fatalf("expected joined payload, got nil")
	}

	// Send an answer.
	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionId": "q1",
			"optionId":   "o2",
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// Expect answerResult and a snapshot with the updated score.
	answerSeen := false
	snapshotSeen := false
	for i := 0; i < 6; i++ {
		typ, _ := readNext(conn, t, "")
		switch typ {
		case "answerResult":
			answerSeen = true
		case "snapshot":
			snapshotSeen = true
		}
		if answerSeen && snapshotSeen {
			break
		}
	}
	if !answerSeen || !snapshotSeen {
		t.Fatalf("expected answerResult and snapshot, got answerResult=%v snapshot=%v", answerSeen, snapshotSeen)
	}
}

func TestWebSocketRejectsUnknownMode(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1&name=Alice&mode=arcade"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "error")
	if msgType != "error" {
		t.Fatalf("expected error, got %s", msgType)
	}
	if payload["message"] != domain.ErrModeNotFound.Error() {
		t.Fatalf("expected mode error, got %v", payload)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newTestRouter() http.Handler {
	store := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	registry := mode.DefaultRegistry(mode.SpeedConfig{})
	service := app.NewSessionService(store, quizRepo, registry)
	return NewRouter(service, registry)
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Constitution Basics",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "How many branches does the federal government have?",
					Options: []domain.Option{
						{ID: "o1", Text: "Two", Correct: false},
						{ID: "o2", Text: "Three", Correct: true},
						{ID: "o3", Text: "Four", Correct: false},
					},
					Points: 1,
				},
			},
		},
	}
}

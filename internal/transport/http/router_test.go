package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestListModes(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/modes")
	if err != nil {
		t.Fatalf("get modes: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var configs []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&configs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(configs) != 3 {
		t.Fatalf("expected 3 modes, got %d", len(configs))
	}
	if configs[0]["id"] != "classic" {
		t.Fatalf("expected classic first, got %v", configs[0]["id"])
	}
}

func TestSessionSnapshotEndpoint(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	// No session yet.
	resp, err := http.Get(server.URL + "/api/quizzes/quiz-1/session")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before join, got %d", resp.StatusCode)
	}

	// Join over websocket, then the snapshot is served.
	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "joined")

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get(server.URL + "/api/quizzes/quiz-1/session")
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if resp.StatusCode == http.StatusOK {
			break
		}
		resp.Body.Close()
		if time.Now().After(deadline) {
			t.Fatalf("session snapshot never became available")
		}
		time.Sleep(10 * time.Millisecond)
	}
	defer resp.Body.Close()

	var snap struct {
		QuizID  string `json:"quizId"`
		Mode    string `json:"mode"`
		Started bool   `json:"started"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.QuizID != "quiz-1" || snap.Mode != "classic" || !snap.Started {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

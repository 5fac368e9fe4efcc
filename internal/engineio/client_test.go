package engineio

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestParseTurn(t *testing.T) {
	data := map[string]any{
		"shared":     "catdo",
		"private":    "gs",
		"turn":       float64(3),
		"history":    []any{"cab", "DOG"},
		"candidates": []any{"cat", "DOG"},
	}

	s, candidates := parseTurn(data)
	if string(s.Shared) != "CATDO" {
		t.Errorf("shared = %q, want CATDO", string(s.Shared))
	}
	if string(s.Private) != "GS" {
		t.Errorf("private = %q, want GS", string(s.Private))
	}
	if s.Turn != 3 {
		t.Errorf("turn = %d, want 3", s.Turn)
	}
	if len(s.History) != 2 || s.History[0] != "CAB" || s.History[1] != "DOG" {
		t.Errorf("history = %v", s.History)
	}
	if len(candidates) != 2 || candidates[0] != "CAT" {
		t.Errorf("candidates = %v", candidates)
	}
}

func TestParseTurnMissingFields(t *testing.T) {
	s, candidates := parseTurn(map[string]any{})
	if len(s.Shared) != 0 || len(s.Private) != 0 || s.Turn != 0 {
		t.Errorf("empty payload produced non-zero state: %+v", s)
	}
	if candidates != nil {
		t.Errorf("empty payload produced candidates: %v", candidates)
	}
}

func TestParseOutcome(t *testing.T) {
	out := parseOutcome(map[string]any{
		"word":     "cat",
		"accepted": true,
		"score":    float64(5),
	})
	if out.Word != "CAT" || !out.Accepted || out.Score != 5 {
		t.Errorf("parseOutcome = %+v", out)
	}

	out = parseOutcome(map[string]any{"word": "zzz", "accepted": false})
	if out.Accepted || out.Score != 0 {
		t.Errorf("rejected outcome = %+v", out)
	}
}

func TestCloseUnblocksReadLoop(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Flood well past the client's event buffer, then keep the
		// connection open so only Close can unstick the reader.
		for i := 0; i < 200; i++ {
			if err := conn.WriteJSON(Event{Type: "turn"}); err != nil {
				return
			}
		}
		<-hold
	}))
	defer srv.Close()

	c, err := Dial("bot", srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	// Nothing consumes events, so the read loop fills the buffer and parks.
	time.Sleep(100 * time.Millisecond)
	c.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return // read loop exited and closed the channel
			}
		case <-deadline:
			t.Fatal("read loop still running after Close")
		}
	}
}

func TestStringSliceSkipsNonStrings(t *testing.T) {
	got := stringSlice([]any{"cat", 7, "dog", nil})
	if len(got) != 2 || got[0] != "CAT" || got[1] != "DOG" {
		t.Errorf("stringSlice = %v", got)
	}
	if got := stringSlice("not a slice"); got != nil {
		t.Errorf("non-slice input = %v, want nil", got)
	}
}

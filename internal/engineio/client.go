// Package engineio connects the decision core to an external game engine
// over a WebSocket session: turn events in, moves out, resolved results
// back in as training signal.
package engineio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wordduelgame/wordduel/internal/ai"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// Event is one engine-to-client message.
type Event struct {
	Type   string         `json:"type"`
	GameID string         `json:"game_id"`
	Data   map[string]any `json:"data"`
}

// Move is the client-to-engine move submission.
type Move struct {
	Type       string  `json:"type"`
	GameID     string  `json:"game_id"`
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
}

// Client is a WebSocket client for one bot seat at the engine.
type Client struct {
	name   string
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// Dial opens the engine session and starts the read loop. The engine URL
// may be given as http(s); it is rewritten to the ws scheme.
func Dial(name, engineURL string) (*Client, error) {
	wsURL := strings.Replace(strings.TrimRight(engineURL, "/"), "http", "ws", 1) +
		"/play?name=" + url.QueryEscape(name)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("engine dial: %w", err)
	}
	c := &Client{
		name:   name,
		conn:   conn,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events returns the channel of incoming engine events. It is closed when
// the connection drops.
func (c *Client) Events() <-chan Event { return c.events }

// SendMove submits a move for the current turn.
func (c *Client) SendMove(gameID, word string, confidence float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Move{
		Type:       "move",
		GameID:     gameID,
		Word:       word,
		Confidence: confidence,
	})
}

// Close shuts the session down cleanly.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Debug().Err(err).Str("bot", c.name).Msg("engine read error")
			}
			return
		}
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		// Never park on a full buffer past Close, or the loop leaks when
		// the consumer has already returned.
		select {
		case c.events <- event:
		case <-c.done:
			return
		}
	}
}

// Run drives the decision loop for one engine session: on every "turn"
// event it decides and submits a move, on every "result" event it feeds
// the outcome back to the models, and on "game_over" it checkpoints and
// returns. Returns nil on a clean game end, the context error on cancel.
func Run(ctx context.Context, c *Client, coord *ai.Coordinator) error {
	for {
		select {
		case <-ctx.Done():
			coord.Checkpoint(context.Background())
			return ctx.Err()
		case event, ok := <-c.events:
			if !ok {
				return fmt.Errorf("engine connection lost")
			}
			switch event.Type {
			case "turn":
				if err := handleTurn(ctx, c, coord, event); err != nil {
					log.Warn().Err(err).Str("gameId", event.GameID).Msg("turn skipped")
				}
			case "result":
				coord.Observe(ctx, parseOutcome(event.Data))
			case "game_over":
				if err := coord.Checkpoint(ctx); err != nil {
					return fmt.Errorf("final checkpoint: %w", err)
				}
				log.Info().Str("gameId", event.GameID).Msg("game over")
				return nil
			}
		}
	}
}

func handleTurn(ctx context.Context, c *Client, coord *ai.Coordinator, event Event) error {
	state, candidates := parseTurn(event.Data)
	if len(candidates) == 0 {
		candidates = wordgame.LegalWords(state.Available())
	}
	decision, err := coord.Decide(ctx, state, candidates)
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}
	return c.SendMove(event.GameID, decision.Word, decision.Confidence)
}

func parseTurn(data map[string]any) (*wordgame.State, []string) {
	s := &wordgame.State{}
	if v, ok := data["shared"].(string); ok {
		s.Shared = []rune(strings.ToUpper(v))
	}
	if v, ok := data["private"].(string); ok {
		s.Private = []rune(strings.ToUpper(v))
	}
	if v, ok := data["turn"].(float64); ok {
		s.Turn = int(v)
	}
	s.History = stringSlice(data["history"])
	return s, stringSlice(data["candidates"])
}

func parseOutcome(data map[string]any) wordgame.Outcome {
	out := wordgame.Outcome{}
	if v, ok := data["word"].(string); ok {
		out.Word = strings.ToUpper(v)
	}
	if v, ok := data["accepted"].(bool); ok {
		out.Accepted = v
	}
	if v, ok := data["score"].(float64); ok {
		out.Score = int(v)
	}
	return out
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

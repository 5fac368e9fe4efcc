package ai

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/internal/store"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// rolloutScale converts accumulated rollout game points into the [0,~1]
// reward range backpropagated through the tree.
const rolloutScale = 100.0

// mctsNode is one node of the per-decision search tree. The tree itself is
// ephemeral; only aggregate (visit, reward) statistics survive a turn, as
// store-backed priors that seed the next search of the same state.
type mctsNode struct {
	word     string // action that led here; empty at the root
	state    *wordgame.State
	parent   *mctsNode
	children []*mctsNode
	untried  []string
	visits   float64
	reward   float64
}

func (n *mctsNode) avgReward() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.reward / n.visits
}

// uct scores a child for selection: exploitation plus the upper-confidence
// exploration bonus. Unvisited children sort first.
func (n *mctsNode) uct(c float64) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	return n.avgReward() + c*math.Sqrt(math.Log(n.parent.visits)/n.visits)
}

// MCTSModel estimates move value by bounded-time random rollouts. The
// budget (wall clock and iteration count) is a hard ceiling: the search is
// cancellable and always yields a best-effort answer from whatever was
// explored.
type MCTSModel struct {
	p   Params
	st  store.Store
	enc *StateEncoder
	log zerolog.Logger

	mu           sync.Mutex
	priors       map[string][2]float64 // "<state>|<word>" -> {visits, reward}
	pending      map[string]float64
	observations uint64
}

// NewMCTSModel creates an MCTS model persisting aggregate statistics under
// store.KindMCTS.
func NewMCTSModel(p Params, st store.Store, enc *StateEncoder) *MCTSModel {
	return &MCTSModel{
		p:       p,
		st:      st,
		enc:     enc,
		log:     logger.ForModel("mcts"),
		priors:  make(map[string][2]float64),
		pending: make(map[string]float64),
	}
}

func (m *MCTSModel) Name() string { return "mcts" }

// Load warms search priors from persisted aggregates.
func (m *MCTSModel) Load(ctx context.Context) error {
	entries, err := m.st.Scan(ctx, store.KindMCTS, "")
	if err != nil {
		m.log.Warn().Err(err).Msg("mcts priors load failed, starting cold")
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		parts := store.SplitKey(k)
		if len(parts) != 3 {
			continue
		}
		pair := parts[1] + "|" + parts[2]
		pv := m.priors[pair]
		switch parts[0] {
		case "n":
			pv[0] += v
		case "w":
			pv[1] += v
		}
		m.priors[pair] = pv
	}
	return nil
}

// ChooseMove runs the search and returns the root child with the highest
// average reward, ties broken by visit count. If the budget expires before
// a single rollout completes, it falls back to a random legal candidate
// rather than failing the turn.
func (m *MCTSModel) ChooseMove(ctx context.Context, s *wordgame.State, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	root, completed := m.search(ctx, s, candidates)
	if completed == 0 || len(root.children) == 0 {
		// Budget exhausted with nothing explored; recovered, not surfaced.
		m.log.Debug().Int("candidates", len(candidates)).Msg("zero rollouts completed, random fallback")
		return candidates[aiIntn(len(candidates))], nil
	}

	best := root.children[0]
	for _, c := range root.children[1:] {
		switch {
		case c.avgReward() > best.avgReward(),
			c.avgReward() == best.avgReward() && c.visits > best.visits,
			c.avgReward() == best.avgReward() && c.visits == best.visits && c.word < best.word:
			best = c
		}
	}
	return best.word, nil
}

// Score rates candidates by their average rollout reward at the root.
// Unexplored candidates score zero.
func (m *MCTSModel) Score(ctx context.Context, s *wordgame.State, candidates []string) (map[string]float64, error) {
	out := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		out[c] = 0
	}
	if len(candidates) == 0 {
		return out, nil
	}
	root, _ := m.search(ctx, s, candidates)
	for _, c := range root.children {
		out[c.word] = c.avgReward()
	}
	return out, nil
}

// search runs selection, expansion, rollout, and backpropagation cycles
// until the wall-clock or iteration budget is exhausted or ctx is
// cancelled. Returns the root and the number of completed rollouts.
func (m *MCTSModel) search(ctx context.Context, s *wordgame.State, candidates []string) (*mctsNode, int) {
	untried := make([]string, len(candidates))
	copy(untried, candidates)
	aiShuffle(len(untried), func(i, j int) { untried[i], untried[j] = untried[j], untried[i] })

	root := &mctsNode{state: s, untried: untried}
	stateKey, _ := m.enc.Encode(s)
	m.seedRoot(root, stateKey)

	deadline := time.Now().Add(m.p.MCTSBudget)
	completed := 0

	for i := 0; i < m.p.MCTSMaxIters; i++ {
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return root, completed
		default:
		}

		node := root

		// Selection: descend through fully expanded nodes by UCT.
		for len(node.untried) == 0 && len(node.children) > 0 {
			best := node.children[0]
			for _, c := range node.children[1:] {
				if c.uct(m.p.UCTConstant) > best.uct(m.p.UCTConstant) {
					best = c
				}
			}
			node = best
		}

		// Expansion: add one untried action as a new child.
		if len(node.untried) > 0 {
			word := node.untried[len(node.untried)-1]
			node.untried = node.untried[:len(node.untried)-1]
			child := &mctsNode{
				word:   word,
				state:  applyWord(node.state, word),
				parent: node,
			}
			child.untried = wordgame.LegalWords(child.state.Available())
			node.children = append(node.children, child)
			node = child
		}

		// Rollout: cheap random continuation, depth bounded.
		reward := m.rollout(node.state)

		// Backpropagation.
		for n := node; n != nil; n = n.parent {
			n.visits++
			n.reward += reward
		}
		completed++
	}

	m.recordRoot(root, stateKey)
	return root, completed
}

// seedRoot pre-creates root children from persisted aggregates so earlier
// sessions bias selection before the first rollout lands.
func (m *MCTSModel) seedRoot(root *mctsNode, stateKey StateKey) {
	if stateKey == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := root.untried[:0]
	for _, word := range root.untried {
		pv, ok := m.priors[string(stateKey)+"|"+strings.ToUpper(word)]
		if !ok || pv[0] == 0 {
			kept = append(kept, word)
			continue
		}
		child := &mctsNode{
			word:   word,
			state:  applyWord(root.state, word),
			parent: root,
			visits: pv[0],
			reward: pv[1],
		}
		child.untried = wordgame.LegalWords(child.state.Available())
		root.children = append(root.children, child)
		root.visits += pv[0]
		root.reward += pv[1]
	}
	root.untried = kept
}

// recordRoot folds this search's new root statistics into the priors and
// the checkpoint buffer.
func (m *MCTSModel) recordRoot(root *mctsNode, stateKey StateKey) {
	if stateKey == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range root.children {
		pair := string(stateKey) + "|" + strings.ToUpper(c.word)
		prev := m.priors[pair]
		dn, dw := c.visits-prev[0], c.reward-prev[1]
		if dn <= 0 {
			continue
		}
		m.priors[pair] = [2]float64{c.visits, c.reward}
		m.pending[store.Key("n", string(stateKey), strings.ToUpper(c.word))] += dn
		m.pending[store.Key("w", string(stateKey), strings.ToUpper(c.word))] += dw
	}
}

// rollout plays random legal words until the depth bound or a dead pool,
// and scores the continuation.
func (m *MCTSModel) rollout(s *wordgame.State) float64 {
	avail := s.Available()
	total := 0.0
	for depth := 0; depth < m.p.MCTSMaxDepth; depth++ {
		legal := wordgame.LegalWords(avail)
		if len(legal) == 0 {
			break
		}
		word := legal[aiIntn(len(legal))]
		total += float64(wordgame.ScoreWord(word))
		avail = wordgame.Consume(avail, word)
	}
	reward := total / rolloutScale
	if reward > 1 {
		reward = 1
	}
	return reward
}

// applyWord simulates playing a word: the letters leave the pool and the
// word joins the history.
func applyWord(s *wordgame.State, word string) *wordgame.State {
	next := &wordgame.State{
		Shared:  wordgame.Consume(s.Available(), word),
		Turn:    s.Turn + 1,
		History: append(append([]string(nil), s.History...), strings.ToUpper(word)),
	}
	return next
}

// Observe folds the actual move into the aggregate statistics so future
// searches of this state start warmer.
func (m *MCTSModel) Observe(_ context.Context, s *wordgame.State, out wordgame.Outcome) {
	m.mu.Lock()
	m.observations++
	m.mu.Unlock()

	if s == nil || out.Word == "" || !out.Accepted {
		return
	}
	stateKey, err := m.enc.Encode(s)
	if err != nil {
		return
	}
	reward := float64(out.Score) / rolloutScale

	m.mu.Lock()
	defer m.mu.Unlock()
	pair := string(stateKey) + "|" + strings.ToUpper(out.Word)
	pv := m.priors[pair]
	m.priors[pair] = [2]float64{pv[0] + 1, pv[1] + reward}
	m.pending[store.Key("n", string(stateKey), strings.ToUpper(out.Word))]++
	m.pending[store.Key("w", string(stateKey), strings.ToUpper(out.Word))] += reward
}

// Observations reports how many outcomes this model has been fed.
func (m *MCTSModel) Observations() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observations
}

// Checkpoint flushes buffered aggregate deltas to the store.
func (m *MCTSModel) Checkpoint(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[string]float64)
	m.mu.Unlock()

	for k, delta := range pending {
		if _, err := m.st.Increment(ctx, store.KindMCTS, k, delta); err != nil {
			m.log.Warn().Err(err).Str("key", k).Msg("mcts checkpoint write failed")
			m.mu.Lock()
			for k2, d2 := range pending {
				m.pending[k2] += d2
			}
			m.mu.Unlock()
			return nil
		}
		delete(pending, k)
	}
	return nil
}

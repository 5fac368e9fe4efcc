package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/internal/store"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// QEntry is the learned record for one (state, action) pair. QValue is
// only ever mutated through the Bellman update in Update; VisitCount only
// grows.
type QEntry struct {
	QValue           float64
	VisitCount       float64
	CumulativeReward float64
}

// QLearningModel is a tabular Q-learner over (state key, word) pairs. A
// second instance with the "meta" namespace serves as the ensemble's
// meta-selector, where the action space is which base model to trust.
type QLearningModel struct {
	p   Params
	ns  string // key namespace: "base" or "meta"
	st  store.Store
	enc *StateEncoder
	log zerolog.Logger

	mu           sync.Mutex
	entries      map[string]*QEntry // "<state>|<action>" -> entry
	pendingQ     map[string]float64 // absolute Q values to Put
	pendingN     map[string]float64 // visit deltas to Increment
	pendingR     map[string]float64 // reward deltas to Increment
	observations uint64
}

// NewQLearningModel creates the base word-selection learner.
func NewQLearningModel(p Params, st store.Store, enc *StateEncoder) *QLearningModel {
	return newQLearning(p, st, enc, "base")
}

// NewMetaSelector creates the meta-level learner whose actions are base
// model names.
func NewMetaSelector(p Params, st store.Store, enc *StateEncoder) *QLearningModel {
	return newQLearning(p, st, enc, "meta")
}

func newQLearning(p Params, st store.Store, enc *StateEncoder, ns string) *QLearningModel {
	return &QLearningModel{
		p:        p,
		ns:       ns,
		st:       st,
		enc:      enc,
		log:      logger.ForModel("qlearning-" + ns),
		entries:  make(map[string]*QEntry),
		pendingQ: make(map[string]float64),
		pendingN: make(map[string]float64),
		pendingR: make(map[string]float64),
	}
}

func (q *QLearningModel) Name() string {
	if q.ns == "meta" {
		return "qlearning-meta"
	}
	return "qlearning"
}

func pairKey(state StateKey, action string) string {
	return string(state) + "|" + strings.ToUpper(action)
}

// Load warms the Q-table from the store.
func (q *QLearningModel) Load(ctx context.Context) error {
	entries, err := q.st.Scan(ctx, store.KindQLearning, q.ns+"|")
	if err != nil {
		q.log.Warn().Err(err).Msg("q-table load failed, starting cold")
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = make(map[string]*QEntry)
	for k, v := range entries {
		// <ns>|<field>|<state>|<action>
		parts := store.SplitKey(k)
		if len(parts) != 4 {
			continue
		}
		e := q.entryLocked(pairKey(StateKey(parts[2]), parts[3]))
		switch parts[1] {
		case "q":
			e.QValue = v
		case "n":
			e.VisitCount = v
		case "r":
			e.CumulativeReward = v
		}
	}
	return nil
}

func (q *QLearningModel) entryLocked(pair string) *QEntry {
	e, ok := q.entries[pair]
	if !ok {
		e = &QEntry{}
		q.entries[pair] = e
	}
	return e
}

// Update applies the Bellman rule
//
//	Q(s,a) <- Q(s,a) + α·(reward + γ·max_a' Q(s',a') − Q(s,a))
//
// Rewards outside the accepted range are clamped and logged, never
// rejected; a malformed training signal must not interrupt play.
func (q *QLearningModel) Update(state StateKey, action string, reward float64, next StateKey) {
	clamped := clampReward(reward)
	if clamped != reward {
		q.log.Warn().Float64("reward", reward).Float64("clamped", clamped).
			Str("action", action).Msg("out-of-range reward clamped")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	pair := pairKey(state, action)
	e := q.entryLocked(pair)
	maxNext := q.maxQLocked(next)
	e.QValue += q.p.LearningRate * (clamped + q.p.DiscountFactor*maxNext - e.QValue)
	e.VisitCount++
	e.CumulativeReward += clamped

	q.pendingQ[store.Key(q.ns, "q", string(state), strings.ToUpper(action))] = e.QValue
	q.pendingN[store.Key(q.ns, "n", string(state), strings.ToUpper(action))]++
	q.pendingR[store.Key(q.ns, "r", string(state), strings.ToUpper(action))] += clamped
}

// MaxQ returns the highest Q-value recorded for a state, 0 when unseen.
func (q *QLearningModel) MaxQ(state StateKey) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxQLocked(state)
}

func (q *QLearningModel) maxQLocked(state StateKey) float64 {
	prefix := string(state) + "|"
	max, found := 0.0, false
	for pair, e := range q.entries {
		if !strings.HasPrefix(pair, prefix) {
			continue
		}
		if !found || e.QValue > max {
			max = e.QValue
			found = true
		}
	}
	return max
}

// Entry returns the current record for a pair, zero-valued when unseen.
func (q *QLearningModel) Entry(state StateKey, action string) QEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[pairKey(state, action)]; ok {
		return *e
	}
	return QEntry{}
}

// SelectAction picks a candidate ε-greedily. With probability epsilon it
// explores uniformly; otherwise it exploits the max Q-value, breaking ties
// toward the higher visit count - the more validated choice - which is
// deliberately the inverse of the Markov tie-break: explore under
// uncertainty, exploit under confidence.
func (q *QLearningModel) SelectAction(state StateKey, candidates []string, epsilon float64) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	if epsilon > 0 && aiFloat64() < epsilon {
		return candidates[aiIntn(len(candidates))], nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	best := ""
	var bestE QEntry
	for _, cand := range candidates {
		var e QEntry
		if p, ok := q.entries[pairKey(state, cand)]; ok {
			e = *p
		}
		switch {
		case best == "",
			e.QValue > bestE.QValue,
			e.QValue == bestE.QValue && e.VisitCount > bestE.VisitCount,
			e.QValue == bestE.QValue && e.VisitCount == bestE.VisitCount && cand < best:
			best, bestE = cand, e
		}
	}
	return best, nil
}

// Score rates candidates by their current Q-values for the encoded state.
func (q *QLearningModel) Score(_ context.Context, s *wordgame.State, candidates []string) (map[string]float64, error) {
	state, err := q.enc.Encode(s)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]float64, len(candidates))
	for _, cand := range candidates {
		var v float64
		if e, ok := q.entries[pairKey(state, cand)]; ok {
			v = e.QValue
		}
		out[cand] = v
	}
	return out, nil
}

// Observe converts the outcome into a reward and applies the Bellman
// update from the decision state to the post-move state.
func (q *QLearningModel) Observe(_ context.Context, s *wordgame.State, out wordgame.Outcome) {
	q.mu.Lock()
	q.observations++
	q.mu.Unlock()

	if s == nil || out.Word == "" {
		return
	}
	state, err := q.enc.Encode(s)
	if err != nil {
		q.log.Debug().Err(err).Msg("observe on unencodable state dropped")
		return
	}

	reward := float64(out.Score) / rewardScale
	if !out.Accepted {
		reward = minReward
	}

	next := s.Clone()
	next.Shared = wordgame.Consume(next.Shared, out.Word)
	next.Turn++
	next.History = append(next.History, strings.ToUpper(out.Word))
	nextKey, err := q.enc.Encode(next)
	if err != nil {
		nextKey = state // terminal: pool exhausted
	}

	q.Update(state, out.Word, reward, nextKey)
}

// Observations reports how many outcomes this model has been fed.
func (q *QLearningModel) Observations() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.observations
}

// Checkpoint flushes buffered Q-values (absolute puts) and visit/reward
// deltas (increments) to the store.
func (q *QLearningModel) Checkpoint(ctx context.Context) error {
	q.mu.Lock()
	puts, incN, incR := q.pendingQ, q.pendingN, q.pendingR
	q.pendingQ = make(map[string]float64)
	q.pendingN = make(map[string]float64)
	q.pendingR = make(map[string]float64)
	q.mu.Unlock()

	restore := func() {
		q.mu.Lock()
		for k, v := range puts {
			q.pendingQ[k] = v
		}
		for k, v := range incN {
			q.pendingN[k] += v
		}
		for k, v := range incR {
			q.pendingR[k] += v
		}
		q.mu.Unlock()
	}

	for k, v := range puts {
		if err := q.st.Put(ctx, store.KindQLearning, k, v); err != nil {
			q.log.Warn().Err(err).Msg("q checkpoint write failed")
			restore()
			return nil
		}
		delete(puts, k)
	}
	for k, v := range incN {
		if _, err := q.st.Increment(ctx, store.KindQLearning, k, v); err != nil {
			q.log.Warn().Err(err).Msg("q checkpoint write failed")
			restore()
			return nil
		}
		delete(incN, k)
	}
	for k, v := range incR {
		if _, err := q.st.Increment(ctx, store.KindQLearning, k, v); err != nil {
			q.log.Warn().Err(err).Msg("q checkpoint write failed")
			restore()
			return nil
		}
		delete(incR, k)
	}
	return nil
}

// SnapshotAs checkpoints and then saves the whole Q table (both
// namespaces) under a named backup, so a training run can be rolled back
// without losing the live table.
func (q *QLearningModel) SnapshotAs(ctx context.Context, name string) error {
	if err := q.Checkpoint(ctx); err != nil {
		return err
	}
	return q.st.Snapshot(ctx, store.KindQLearning, name)
}

// RestoreFrom replaces the live Q table with a named backup and reloads
// the in-memory view from it.
func (q *QLearningModel) RestoreFrom(ctx context.Context, name string) error {
	if err := q.st.Restore(ctx, store.KindQLearning, name); err != nil {
		return err
	}
	q.mu.Lock()
	q.pendingQ = make(map[string]float64)
	q.pendingN = make(map[string]float64)
	q.pendingR = make(map[string]float64)
	q.mu.Unlock()
	return q.Load(ctx)
}

package ai

import "github.com/wordduelgame/wordduel/pkg/wordgame"

func wordgameOutcome(word string, accepted bool, score int) wordgame.Outcome {
	return wordgame.Outcome{Word: word, Accepted: accepted, Score: score}
}

package gbdt

import "math"

// earlyStopping tracks the best score of a minimised metric.
type earlyStopping struct {
	rounds          int
	bestScore       float64
	bestRound       int
	roundsNoImprove int
}

func newEarlyStopping(rounds int) *earlyStopping {
	if rounds <= 0 {
		return nil
	}
	return &earlyStopping{rounds: rounds, bestScore: math.Inf(1)}
}

// update records the score of round and reports whether training should stop.
func (es *earlyStopping) update(round int, score float64) bool {
	if score < es.bestScore {
		es.bestScore = score
		es.bestRound = round
		es.roundsNoImprove = 0
	} else {
		es.roundsNoImprove++
	}
	return es.roundsNoImprove >= es.rounds
}

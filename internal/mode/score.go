package mode

import (
	"math"

	"civicquiz-service/internal/domain"
)

// BaseScore returns the accuracy score (correct/total * 100) before any
// mode bonus. Zero questions score zero.
func BaseScore(answers []domain.AnswerRecord, questions []domain.Question) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(questions)) * 100
}

// ClampScore rounds base+bonus and clamps the result to [0, 100].
func ClampScore(base, bonus float64) int {
	score := int(math.Round(base + bonus))
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

package triage

// ScoreResult is the derived urgency of a completed interview. It is never
// stored; it is recomputed deterministically from the session's answers.
type ScoreResult struct {
	UrgencyScore  float64
	PriorityLevel int
}

// emergencyWeights maps each boolean question to its score contribution when
// the answer points in that question's urgent direction (see
// QuestionDef.UrgentOnYes).
var emergencyWeights = map[string]float64{
	QuestionBleeding:  0.4,
	QuestionBreathing: 0.4,
	QuestionChestPain: 0.3,
	QuestionMobility:  0.3,
}

const baseScore = 0.3

// calculateUrgency computes the additive, capped urgency score.
//
// An absent flag defaults to the non-urgent direction: bleeding, breathing
// and chest pain default to "No", mobility defaults to "Yes" (can walk).
func calculateUrgency(flags map[string]bool, age int) float64 {
	score := baseScore

	for _, q := range catalog {
		if q.Kind != AnswerYesNo {
			continue
		}
		weight, ok := emergencyWeights[q.ID]
		if !ok {
			continue
		}
		flag, present := flags[q.ID]
		if !present {
			flag = !q.UrgentOnYes
		}
		if flag == q.UrgentOnYes {
			score += weight
		}
	}

	if age > 65 {
		score += 0.1
	} else if age < 5 {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// priorityFromScore maps a score to the discrete 1-5 priority level
// (1 = most urgent). Thresholds are half-open and checked from highest to
// lowest; the first match wins.
func priorityFromScore(score float64) int {
	switch {
	case score >= 0.8:
		return 1
	case score >= 0.6:
		return 2
	case score >= 0.4:
		return 3
	case score >= 0.2:
		return 4
	default:
		return 5
	}
}

// Score derives the urgency score and priority level from emergency flags
// and age.
func Score(flags map[string]bool, age int) ScoreResult {
	score := calculateUrgency(flags, age)
	return ScoreResult{
		UrgencyScore:  score,
		PriorityLevel: priorityFromScore(score),
	}
}

// priorityNames are the spoken names for each priority level.
var priorityNames = map[int]string{
	1: "Critical (Level 1)",
	2: "Emergent (Level 2)",
	3: "Urgent (Level 3)",
	4: "Less Urgent (Level 4)",
	5: "Non-Urgent (Level 5)",
}

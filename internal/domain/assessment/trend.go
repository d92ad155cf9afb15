package assessment

// ══════════════════════════════════════════════════════════════════════════════
// TREND ANALYZER
// Classifies a subject's score trajectory using only its first and last
// recorded values. This is a deliberate point-to-point comparison, not a
// regression: a dip or spike in the middle of the series never affects
// the result.
// ══════════════════════════════════════════════════════════════════════════════

// Trend classifies the trajectory of a score sequence.
type Trend string

const (
	// TrendImproving - the last score is higher than the first.
	TrendImproving Trend = "Improving"

	// TrendDeclining - the last score is lower than the first.
	TrendDeclining Trend = "Declining"

	// TrendStable - first and last scores are equal.
	TrendStable Trend = "Stable"

	// TrendInsufficientData - fewer than two scores recorded.
	// This is a valid classification result, not an error.
	TrendInsufficientData Trend = "Not enough data"
)

// IsValid checks that the trend is one of the defined values.
func (t Trend) IsValid() bool {
	switch t {
	case TrendImproving, TrendDeclining, TrendStable, TrendInsufficientData:
		return true
	default:
		return false
	}
}

// String returns the display form of the trend.
func (t Trend) String() string {
	return string(t)
}

// AnalyzeTrend classifies an ordered score sequence. The input must be in
// chronological order; only the first and last elements are consulted.
func AnalyzeTrend(scores []int) Trend {
	if len(scores) < 2 {
		return TrendInsufficientData
	}

	first, last := scores[0], scores[len(scores)-1]
	switch {
	case last > first:
		return TrendImproving
	case last < first:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// SubjectTrends computes one trend per subject for a score history.
// The subject list is derived from the first record (bookkeeping keys
// excluded); records missing a subject are skipped for that subject.
func SubjectTrends(history ScoreHistory) map[string]Trend {
	trends := make(map[string]Trend)
	for _, subject := range history.Subjects() {
		trends[subject] = AnalyzeTrend(history.SubjectScores(subject))
	}
	return trends
}

package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformResponses answers every question with the given rating.
func uniformResponses(rating int) Responses {
	r := make(Responses, QuestionCount)
	for _, q := range AllQuestions() {
		r[q] = rating
	}
	return r
}

func TestDefaultWeightMap_PartitionsAllQuestions(t *testing.T) {
	weights := DefaultWeightMap()

	seen := make(map[QuestionID]Domain)
	for domain, questions := range weights {
		for _, q := range questions {
			prev, dup := seen[q]
			require.Falsef(t, dup, "%s assigned to both %s and %s", q, prev, domain)
			seen[q] = domain
		}
	}

	// Every question belongs to exactly one domain.
	assert.Len(t, seen, QuestionCount)
	for _, q := range AllQuestions() {
		assert.Contains(t, seen, q)
	}
}

func TestClassify_EngineeringVector(t *testing.T) {
	// All engineering questions at 5, everything else at 1: the
	// engineering sum is 25 while no other domain can exceed 6.
	responses := uniformResponses(1)
	for _, q := range []QuestionID{Q(1), Q(3), Q(8), Q(11), Q(22)} {
		responses[q] = 5
	}

	result := Classify(responses, DefaultWeightMap())
	assert.Equal(t, DomainEngineering, result.Winner)
	assert.Equal(t, 25, result.Scores[DomainEngineering])
}

func TestClassify_OrderIndependent(t *testing.T) {
	// Build the same logical response set twice with different insertion
	// orders; the sums and the winner must not change.
	forward := make(Responses, QuestionCount)
	for n := 1; n <= QuestionCount; n++ {
		forward[Q(n)] = (n % 5) + 1
	}
	backward := make(Responses, QuestionCount)
	for n := QuestionCount; n >= 1; n-- {
		backward[Q(n)] = (n % 5) + 1
	}

	a := Classify(forward, DefaultWeightMap())
	b := Classify(backward, DefaultWeightMap())
	assert.Equal(t, a.Winner, b.Winner)
	assert.Equal(t, a.Scores, b.Scores)
}

func TestClassify_TieBreakFirstDeclaredWins(t *testing.T) {
	// Uniform answers give every five-question domain the same sum;
	// Science & Research carries six questions and scores higher, so pin
	// it down to force a tie among the rest.
	responses := uniformResponses(3)
	result := Classify(responses, DefaultWeightMap())

	// 15 for each five-question domain, 18 for Science & Research.
	assert.Equal(t, DomainScience, result.Winner)

	// Flatten Science below 15 to tie the five five-question domains at
	// 15 each: the first declared domain wins the tie deterministically.
	for _, q := range DefaultWeightMap()[DomainScience] {
		responses[q] = 1
	}
	result = Classify(responses, DefaultWeightMap())
	assert.Equal(t, DomainEngineering, result.Winner)
	assert.Equal(t, result.Scores[DomainEngineering], result.Scores[DomainMedical])
}

func TestResponses_Validate(t *testing.T) {
	valid := uniformResponses(3)
	assert.NoError(t, valid.Validate())

	incomplete := uniformResponses(3)
	delete(incomplete, Q(17))
	assert.ErrorIs(t, incomplete.Validate(), ErrIncompleteResponses)

	outOfRange := uniformResponses(3)
	outOfRange[Q(4)] = 6
	assert.ErrorIs(t, outOfRange.Validate(), ErrRatingOutOfRange)

	outOfRange[Q(4)] = 0
	assert.ErrorIs(t, outOfRange.Validate(), ErrRatingOutOfRange)

	unknown := uniformResponses(3)
	delete(unknown, Q(31))
	unknown["Q32"] = 3
	assert.ErrorIs(t, unknown.Validate(), ErrUnknownQuestion)
}

func TestNewResponse_ClassifiesOnConstruction(t *testing.T) {
	responses := uniformResponses(1)
	for _, q := range DefaultWeightMap()[DomainMedical] {
		responses[q] = 5
	}

	resp, err := NewResponse("student-1", responses)
	require.NoError(t, err)
	assert.Equal(t, DomainMedical, resp.WinningDomain)
	assert.Equal(t, 25, resp.DomainScores[DomainMedical])
	assert.False(t, resp.SubmittedAt.IsZero())
}

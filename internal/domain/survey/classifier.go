package survey

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN CLASSIFIER
// Sums the Likert responses belonging to each career domain and picks the
// domain with the maximum sum. Each question belongs to exactly one domain.
// Ties resolve to the first domain in declaration order, which makes the
// classifier fully deterministic.
// ══════════════════════════════════════════════════════════════════════════════

// Domain is one of the fixed career-aptitude categories.
type Domain string

const (
	DomainEngineering Domain = "Engineering & Technology"
	DomainMedical     Domain = "Medical & Life Sciences"
	DomainCommerce    Domain = "Commerce & Management"
	DomainArts        Domain = "Arts & Humanities"
	DomainLaw         Domain = "Law & Public Service"
	DomainScience     Domain = "Science & Research"
)

// AllDomains lists the six domains in declaration order. This order is
// the tie-break order: when two domains share the maximum sum, the one
// listed first wins.
func AllDomains() []Domain {
	return []Domain{
		DomainEngineering,
		DomainMedical,
		DomainCommerce,
		DomainArts,
		DomainLaw,
		DomainScience,
	}
}

// IsValid checks the domain is one of the declared categories.
func (d Domain) IsValid() bool {
	for _, known := range AllDomains() {
		if d == known {
			return true
		}
	}
	return false
}

// String returns the display form of the domain.
func (d Domain) String() string {
	return string(d)
}

// WeightMap assigns each question to the single domain it scores for.
type WeightMap map[Domain][]QuestionID

// DefaultWeightMap returns the fixed question-to-domain assignment.
// The 31 questions partition across the six domains with no overlap.
func DefaultWeightMap() WeightMap {
	return WeightMap{
		DomainEngineering: {Q(1), Q(3), Q(8), Q(11), Q(22)},
		DomainMedical:     {Q(2), Q(7), Q(13), Q(19), Q(26)},
		DomainCommerce:    {Q(4), Q(9), Q(15), Q(21), Q(28)},
		DomainArts:        {Q(5), Q(12), Q(17), Q(24), Q(29)},
		DomainLaw:         {Q(6), Q(14), Q(20), Q(27), Q(31)},
		DomainScience:     {Q(10), Q(16), Q(18), Q(23), Q(25), Q(30)},
	}
}

// Result holds the classification outcome: per-domain sums and the winner.
type Result struct {
	Scores map[Domain]int
	Winner Domain
}

// Classify sums the responses per domain and selects the maximum.
// The sum is order-independent in the response map; the winner is
// deterministic because domains are scanned in declaration order and
// only a strictly greater sum displaces the current leader.
func Classify(responses Responses, weights WeightMap) Result {
	scores := make(map[Domain]int, len(weights))

	var winner Domain
	best := -1
	for _, domain := range AllDomains() {
		sum := 0
		for _, q := range weights[domain] {
			sum += responses[q]
		}
		scores[domain] = sum

		if sum > best {
			best = sum
			winner = domain
		}
	}

	return Result{Scores: scores, Winner: winner}
}

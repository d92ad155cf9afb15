// Package guidance contains the career guidance domain model: the prompt
// builder that turns a student's identity, score history and trends into
// a natural-language instruction block, and the append-only guidance
// archive fed by the external model.
// This is core business logic - there are no external dependencies here.
package guidance

import (
	"fmt"
	"strings"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// Request aggregates everything the prompt needs. It is a value object:
// never persisted directly, only its rendered prompt and the returned
// text are archived.
type Request struct {
	// StudentName is how the model should address the student.
	StudentName string

	// History is the chronological score history.
	History assessment.ScoreHistory

	// Trends maps subject to its classified trend.
	Trends map[string]assessment.Trend

	// Location is the student's state/region.
	Location string

	// Interest is the stated career interest or requirement.
	Interest string
}

// NewRequest derives trends from the history and assembles a request.
func NewRequest(studentName string, history assessment.ScoreHistory, location, interest string) Request {
	return Request{
		StudentName: studentName,
		History:     history,
		Trends:      assessment.SubjectTrends(history),
		Location:    location,
		Interest:    interest,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMPT BUILDER
// BuildPrompt is a pure function: identical inputs yield byte-identical
// prompt text. Subjects render in sorted order to keep map iteration out
// of the output.
// ══════════════════════════════════════════════════════════════════════════════

// BuildPrompt renders the instruction block sent to the guidance model.
func BuildPrompt(req Request) string {
	subjects := req.History.Subjects()

	var b strings.Builder

	fmt.Fprintf(&b, "The student %s has the following details:\n", req.StudentName)

	b.WriteString("- Test Scores:\n")
	for i, record := range req.History.Records {
		fmt.Fprintf(&b, "  Test %d: %s\n", i+1, formatRecord(record, subjects))
	}

	b.WriteString("- Trends:\n")
	for _, subject := range subjects {
		trend, ok := req.Trends[subject]
		if !ok {
			trend = assessment.TrendInsufficientData
		}
		fmt.Fprintf(&b, "  %s: %s\n", subject, trend)
	}

	fmt.Fprintf(&b, "- Location: %s\n", req.Location)
	fmt.Fprintf(&b, "- Requirement: %s\n", req.Interest)

	b.WriteString(`
Based on these, provide:
1. Address the student by name and give personalised career guidance with areas needed to improve and the ways to do it.
2. Mention if their marks trend shows improvement, decline, or stability.
3. Markdown table of Top 10 suitable colleges for a bachelor's degree, and the option for masters suggestions also as one markdown table (near their state or nationally reputed).
   - Columns: College Name | Course | Eligibility | Application Process
4. Give a note to check the respective college website for further details/clarification.
5. Do NOT return JSON. Format in plain text + valid markdown tables.
`)

	return b.String()
}

// formatRecord renders one score record with subjects in sorted order.
// Subjects absent from a record are skipped, not defaulted.
func formatRecord(record *assessment.ScoreRecord, subjects []string) string {
	parts := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if score, ok := record.Score(subject); ok {
			parts = append(parts, fmt.Sprintf("%s=%d", subject, score))
		}
	}
	return strings.Join(parts, ", ")
}

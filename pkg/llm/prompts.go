package llm

import (
	"fmt"
	"strings"

	"github.com/nikogura/sop-writer/pkg/profile"
)

// promptLabels are the labels the model sees for each profile field.
//
//nolint:gochecknoglobals // static lookup
var promptLabels = []struct {
	key   string
	label string
}{
	{profile.KeyAnecdote, "Inspiring anecdote"},
	{profile.KeyAcademicBackground, "Academic background"},
	{profile.KeyProfessionalExperience, "Professional experience"},
	{profile.KeyMotivation, "Motivation for Masters"},
	{profile.KeyShortTermGoals, "Short-term career goals"},
	{profile.KeyLongTermGoals, "Long-term career goals"},
	{profile.KeyInstitutionReasons, "Reasons for choosing this university"},
	{profile.KeyExtracurriculars, "Extracurricular activities"},
	{profile.KeyConclusion, "Conclusion"},
	{profile.KeyAdditionalDetails, "Additional details"},
}

// BuildSOPPrompt creates the base instruction for a Statement of Purpose.
// The word range appears twice: inline and as a closing directive.
func BuildSOPPrompt(p profile.ApplicantProfile, b profile.WordBudget) (prompt string) {
	var details strings.Builder
	for _, l := range promptLabels {
		fmt.Fprintf(&details, "- %s: %s\n", l.label, p.Value(l.key))
	}

	prompt = fmt.Sprintf(`Create a compelling and well-structured Statement of Purpose (SOP) essay for %s's application to the %s program at %s. The essay MUST be between %d and %d words. Use the following information to craft a cohesive narrative:

%s
Write a comprehensive, flowing essay that incorporates all the provided information seamlessly. The essay should not be divided into sections or have any headings or question-like structures. Instead, it should read as a single, coherent narrative that naturally progresses through the applicant's journey, motivations, and aspirations.

Begin with the inspiring anecdote and use it to transition into the applicant's academic and professional background. Weave in their motivations for pursuing this specific Masters program, connecting it to their past experiences and future goals. Discuss both short-term and long-term career objectives, showing how they align with the program and the university's offerings.

Highlight the reasons for choosing this particular university, mentioning specific faculty, research areas, or curriculum aspects that appeal to the applicant. Incorporate information about extracurricular activities and their impact, demonstrating a well-rounded personality.

Throughout the essay, maintain a tone that is professional yet personal, showcasing the applicant's passion for the field and readiness for graduate study. Conclude by summarizing the key points and reinforcing why the applicant is an excellent fit for the program.

IMPORTANT: The final SOP MUST be between %d and %d words. Craft a cohesive narrative that fits within this word count while covering all key information provided.`,
		p.Name, p.Program, p.Institution, b.Min, b.Max,
		details.String(),
		b.Min, b.Max)

	return prompt
}

// ExpandClause asks for a longer essay on the next attempt.
func ExpandClause(minWords int) (clause string) {
	clause = fmt.Sprintf("The previous essay was too short. Please expand on the content to reach at least %d words while maintaining a cohesive narrative.", minWords)
	return clause
}

// CondenseClause asks for a shorter essay on the next attempt.
func CondenseClause(maxWords int) (clause string) {
	clause = fmt.Sprintf("The previous essay was too long. Please condense the content to stay under %d words while maintaining all key points and a flowing narrative.", maxWords)
	return clause
}

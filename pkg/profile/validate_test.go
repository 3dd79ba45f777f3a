package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeProfile() ApplicantProfile {
	return ApplicantProfile{
		Name:               "Ada Lovelace",
		Institution:        "University of Edinburgh",
		Program:            "MSc Informatics",
		Anecdote:           "Debugging a loom pattern with my grandmother.",
		AcademicBackground: "BSc Mathematics, thesis on numerical methods.",
		Motivation:         "I want formal training in programming languages.",
		ShortTermGoals:     "Join a compiler team.",
		LongTermGoals:      "Lead research on verified compilers.",
		InstitutionReasons: "The LFCS group and its type theory seminars.",
	}
}

func TestValidateComplete(t *testing.T) {
	err := Validate(completeProfile(), DefaultBudget())
	assert.NoError(t, err)
}

func TestValidateMissingFields(t *testing.T) {
	p := completeProfile()
	p.Program = ""
	p.Name = "   "
	p.LongTermGoals = ""
	// optional fields never count as missing
	p.Extracurriculars = ""

	err := Validate(p, DefaultBudget())
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{KeyName, KeyProgram, KeyLongTermGoals}, verr.Missing)
	assert.False(t, verr.InvalidRange)
	assert.True(t, verr.IsMissing(KeyProgram))
	assert.False(t, verr.IsMissing(KeyAnecdote))
	assert.Contains(t, err.Error(), "missing required fields: name, program, long_term_goals")
}

func TestValidateEveryRequiredField(t *testing.T) {
	for _, f := range Fields {
		if !f.Required {
			continue
		}
		t.Run(f.Key, func(t *testing.T) {
			p := completeProfile()
			require.True(t, p.Set(f.Key, ""))

			err := Validate(p, DefaultBudget())
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{f.Key}, verr.Missing)
		})
	}
}

func TestValidateBudget(t *testing.T) {
	tests := []struct {
		name    string
		budget  WordBudget
		invalid bool
	}{
		{name: "default", budget: WordBudget{Min: 800, Max: 1000}},
		{name: "equal bounds", budget: WordBudget{Min: 900, Max: 900}, invalid: true},
		{name: "inverted", budget: WordBudget{Min: 1000, Max: 800}, invalid: true},
		{name: "zero minimum", budget: WordBudget{Min: 0, Max: 800}, invalid: true},
		{name: "negative", budget: WordBudget{Min: -5, Max: -1}, invalid: true},
		{name: "off-step but ordered", budget: WordBudget{Min: 10, Max: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(completeProfile(), tt.budget)
			if !tt.invalid {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.InvalidRange)
			assert.Empty(t, verr.Missing)
		})
	}
}

func TestValidateReportsBothProblems(t *testing.T) {
	p := completeProfile()
	p.Anecdote = ""

	err := Validate(p, WordBudget{Min: 1000, Max: 1000})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{KeyAnecdote}, verr.Missing)
	assert.True(t, verr.InvalidRange)

	lines := verr.Messages()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], MissingFieldsMessage))
	assert.Contains(t, lines[0], "An anecdote that inspired you")
	assert.Equal(t, InvalidRangeMessage, lines[1])
}

func TestValidateForm(t *testing.T) {
	tests := []struct {
		name        string
		budget      WordBudget
		outOfBounds bool
		invalid     bool
	}{
		{name: "defaults", budget: WordBudget{Min: 800, Max: 1000}},
		{name: "extremes", budget: WordBudget{Min: 500, Max: 2000}},
		{name: "below floor", budget: WordBudget{Min: 450, Max: 1000}, outOfBounds: true},
		{name: "above ceiling", budget: WordBudget{Min: 800, Max: 2050}, outOfBounds: true},
		{name: "off step", budget: WordBudget{Min: 820, Max: 1000}, outOfBounds: true},
		{name: "inverted in bounds", budget: WordBudget{Min: 1000, Max: 800}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForm(completeProfile(), tt.budget)
			if !tt.outOfBounds && !tt.invalid {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.outOfBounds, verr.OutOfBounds)
			assert.Equal(t, tt.invalid, verr.InvalidRange)
		})
	}
}

func TestWordBudgetContains(t *testing.T) {
	b := WordBudget{Min: 800, Max: 1000}
	assert.True(t, b.Contains(800))
	assert.True(t, b.Contains(1000))
	assert.True(t, b.Contains(900))
	assert.False(t, b.Contains(799))
	assert.False(t, b.Contains(1001))
}

func TestProfileKeyedAccess(t *testing.T) {
	var p ApplicantProfile
	for _, f := range Fields {
		require.True(t, p.Set(f.Key, "value for "+f.Key), f.Key)
	}
	for _, f := range Fields {
		assert.Equal(t, "value for "+f.Key, p.Value(f.Key))
	}

	assert.False(t, p.Set("unknown", "x"))
	assert.Equal(t, "", p.Value("unknown"))
}

func TestNormalize(t *testing.T) {
	p := ApplicantProfile{Name: "  Ada  ", Conclusion: "\n done \t"}
	p.Normalize()
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "done", p.Conclusion)
}

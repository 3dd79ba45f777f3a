package profile

import "strings"

// Word budget bounds offered by the input forms.
const (
	FormMinWords    = 500
	FormMaxWords    = 2000
	DefaultMinWords = 800
	DefaultMaxWords = 1000
	WordStep        = 50
)

// Profile field keys. These double as JSON/YAML keys and HTML form names.
const (
	KeyName                   = "name"
	KeyInstitution            = "institution"
	KeyProgram                = "program"
	KeyAnecdote               = "anecdote"
	KeyAcademicBackground     = "academic_background"
	KeyProfessionalExperience = "professional_experience"
	KeyMotivation             = "motivation"
	KeyShortTermGoals         = "short_term_goals"
	KeyLongTermGoals          = "long_term_goals"
	KeyInstitutionReasons     = "institution_reasons"
	KeyExtracurriculars       = "extracurriculars"
	KeyConclusion             = "conclusion"
	KeyAdditionalDetails      = "additional_details"
)

// ApplicantProfile holds the free-text answers an applicant supplies.
type ApplicantProfile struct {
	Name                   string `json:"name" yaml:"name" validate:"notblank"`
	Institution            string `json:"institution" yaml:"institution" validate:"notblank"`
	Program                string `json:"program" yaml:"program" validate:"notblank"`
	Anecdote               string `json:"anecdote" yaml:"anecdote" validate:"notblank"`
	AcademicBackground     string `json:"academic_background" yaml:"academic_background" validate:"notblank"`
	ProfessionalExperience string `json:"professional_experience,omitempty" yaml:"professional_experience,omitempty"`
	Motivation             string `json:"motivation" yaml:"motivation" validate:"notblank"`
	ShortTermGoals         string `json:"short_term_goals" yaml:"short_term_goals" validate:"notblank"`
	LongTermGoals          string `json:"long_term_goals" yaml:"long_term_goals" validate:"notblank"`
	InstitutionReasons     string `json:"institution_reasons" yaml:"institution_reasons" validate:"notblank"`
	Extracurriculars       string `json:"extracurriculars,omitempty" yaml:"extracurriculars,omitempty"`
	Conclusion             string `json:"conclusion,omitempty" yaml:"conclusion,omitempty"`
	AdditionalDetails      string `json:"additional_details,omitempty" yaml:"additional_details,omitempty"`
}

// WordBudget is the inclusive target range for the essay length.
type WordBudget struct {
	Min int `json:"min_words" yaml:"min_words" validate:"gt=0"`
	Max int `json:"max_words" yaml:"max_words" validate:"gtfield=Min"`
}

// DefaultBudget returns the 800-1000 word range the form starts with.
func DefaultBudget() (b WordBudget) {
	b = WordBudget{Min: DefaultMinWords, Max: DefaultMaxWords}
	return b
}

// Contains reports whether n lies within [Min, Max].
func (b WordBudget) Contains(n int) (ok bool) {
	ok = n >= b.Min && n <= b.Max
	return ok
}

// Field describes one profile input.
type Field struct {
	Key       string
	Label     string
	Help      string
	Required  bool
	Multiline bool
}

// Fields lists every profile field in the order it is asked for and rendered.
//
//nolint:gochecknoglobals // static catalog
var Fields = []Field{
	{Key: KeyName, Label: "Your Full Name", Required: true},
	{Key: KeyInstitution, Label: "University Name", Required: true},
	{Key: KeyProgram, Label: "Program You're Applying To", Required: true},
	{Key: KeyAnecdote, Label: "An anecdote that inspired you to take up this course", Required: true, Multiline: true},
	{Key: KeyAcademicBackground, Label: "Academic Background", Help: "include college name, course, subjects, projects, internships", Required: true, Multiline: true},
	{Key: KeyProfessionalExperience, Label: "Professional Experience", Help: "if any", Multiline: true},
	{Key: KeyMotivation, Label: "Why do you want to pursue this Masters program and why now?", Required: true, Multiline: true},
	{Key: KeyShortTermGoals, Label: "Short-term Career Goals", Help: "0-5 years after graduation", Required: true, Multiline: true},
	{Key: KeyLongTermGoals, Label: "Long-term Career Goals", Help: "10-15 years after graduation", Required: true, Multiline: true},
	{Key: KeyInstitutionReasons, Label: "Why this specific university?", Help: "mention faculty, research areas, curriculum", Required: true, Multiline: true},
	{Key: KeyExtracurriculars, Label: "Extracurricular Activities and their impact", Multiline: true},
	{Key: KeyConclusion, Label: "Brief conclusion on why you should be accepted", Multiline: true},
	{Key: KeyAdditionalDetails, Label: "Any additional details you'd like to include", Multiline: true},
}

// Lookup returns the catalog entry for key.
func Lookup(key string) (field Field, ok bool) {
	for _, f := range Fields {
		if f.Key == key {
			field = f
			ok = true
			return field, ok
		}
	}
	return field, ok
}

// Value returns the value stored under key, or "" for unknown keys.
func (p ApplicantProfile) Value(key string) (value string) {
	ptr := p.fieldPtr(key)
	if ptr != nil {
		value = *ptr
	}
	return value
}

// Set stores value under key. It returns false for unknown keys.
func (p *ApplicantProfile) Set(key, value string) (ok bool) {
	ptr := p.fieldPtr(key)
	if ptr == nil {
		return ok
	}
	*ptr = value
	ok = true
	return ok
}

// Normalize trims surrounding whitespace from every field.
func (p *ApplicantProfile) Normalize() {
	for _, f := range Fields {
		ptr := p.fieldPtr(f.Key)
		*ptr = strings.TrimSpace(*ptr)
	}
}

func (p *ApplicantProfile) fieldPtr(key string) (ptr *string) {
	switch key {
	case KeyName:
		ptr = &p.Name
	case KeyInstitution:
		ptr = &p.Institution
	case KeyProgram:
		ptr = &p.Program
	case KeyAnecdote:
		ptr = &p.Anecdote
	case KeyAcademicBackground:
		ptr = &p.AcademicBackground
	case KeyProfessionalExperience:
		ptr = &p.ProfessionalExperience
	case KeyMotivation:
		ptr = &p.Motivation
	case KeyShortTermGoals:
		ptr = &p.ShortTermGoals
	case KeyLongTermGoals:
		ptr = &p.LongTermGoals
	case KeyInstitutionReasons:
		ptr = &p.InstitutionReasons
	case KeyExtracurriculars:
		ptr = &p.Extracurriculars
	case KeyConclusion:
		ptr = &p.Conclusion
	case KeyAdditionalDetails:
		ptr = &p.AdditionalDetails
	}
	return ptr
}

package profile

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	// MissingFieldsMessage is shown when any required field is empty.
	MissingFieldsMessage = "Please fill in all required fields before generating the SOP."
	// InvalidRangeMessage is shown when the word budget is inverted or empty.
	InvalidRangeMessage = "Minimum word count must be less than maximum word count."
)

// ValidationError reports every problem found in a submission.
type ValidationError struct {
	Missing      []string
	InvalidRange bool
	OutOfBounds  bool
}

func (e *ValidationError) Error() (msg string) {
	parts := make([]string, 0, 3)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if e.InvalidRange {
		parts = append(parts, "minimum words must be less than maximum words")
	}
	if e.OutOfBounds {
		parts = append(parts, fmt.Sprintf("word counts must be between %d and %d in steps of %d", FormMinWords, FormMaxWords, WordStep))
	}
	msg = "validation failed: " + strings.Join(parts, "; ")
	return msg
}

// Messages returns user-facing lines, naming fields by their labels.
func (e *ValidationError) Messages() (lines []string) {
	if len(e.Missing) > 0 {
		labels := make([]string, 0, len(e.Missing))
		for _, key := range e.Missing {
			field, ok := Lookup(key)
			if ok {
				labels = append(labels, field.Label)
				continue
			}
			labels = append(labels, key)
		}
		lines = append(lines, MissingFieldsMessage+" Missing: "+strings.Join(labels, "; "))
	}
	if e.InvalidRange {
		lines = append(lines, InvalidRangeMessage)
	}
	if e.OutOfBounds {
		lines = append(lines, fmt.Sprintf("Word counts must be between %d and %d, in steps of %d.", FormMinWords, FormMaxWords, WordStep))
	}
	return lines
}

// IsMissing reports whether key is among the missing fields.
func (e *ValidationError) IsMissing(key string) (missing bool) {
	for _, k := range e.Missing {
		if k == key {
			missing = true
			return missing
		}
	}
	return missing
}

func (e *ValidationError) empty() (empty bool) {
	empty = len(e.Missing) == 0 && !e.InvalidRange && !e.OutOfBounds
	return empty
}

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() (v *validator.Validate) {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) (name string) {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				name = ""
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) (ok bool) {
			ok = strings.TrimSpace(fl.Field().String()) != ""
			return ok
		})
	})
	v = validate
	return v
}

// Validate checks the required fields of p and the invariant 0 < Min < Max.
// It returns a *ValidationError, or nil when the submission can be generated.
func Validate(p ApplicantProfile, b WordBudget) (err error) {
	verr := &ValidationError{}

	err = collect(getValidator().Struct(p), func(fe validator.FieldError) {
		verr.Missing = append(verr.Missing, fe.Field())
	})
	if err != nil {
		return err
	}

	err = collect(getValidator().Struct(b), func(validator.FieldError) {
		verr.InvalidRange = true
	})
	if err != nil {
		return err
	}

	if verr.empty() {
		return err
	}

	sortByCatalog(verr.Missing)
	err = verr
	return err
}

// ValidateForm applies Validate plus the form limits: each bound within
// [FormMinWords, FormMaxWords] and a multiple of WordStep.
func ValidateForm(p ApplicantProfile, b WordBudget) (err error) {
	err = Validate(p, b)
	verr := &ValidationError{}
	if err != nil {
		var ok bool
		verr, ok = err.(*ValidationError)
		if !ok {
			return err
		}
	}

	if !inFormBounds(b.Min) || !inFormBounds(b.Max) {
		verr.OutOfBounds = true
	}

	if verr.empty() {
		err = nil
		return err
	}

	err = verr
	return err
}

func inFormBounds(n int) (ok bool) {
	ok = n >= FormMinWords && n <= FormMaxWords && n%WordStep == 0
	return ok
}

// collect feeds each field failure to fn. Anything other than field failures is
// returned as an error.
func collect(result error, fn func(validator.FieldError)) (err error) {
	if result == nil {
		return err
	}

	fieldErrs, ok := result.(validator.ValidationErrors)
	if !ok {
		err = errors.Wrap(result, "validator failed")
		return err
	}

	for _, fe := range fieldErrs {
		fn(fe)
	}
	return err
}

func sortByCatalog(keys []string) {
	order := make(map[string]int, len(Fields))
	for i, f := range Fields {
		order[f.Key] = i
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return order[keys[i]] < order[keys[j]]
	})
}

package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// JSON field names of the client-owned report fields.
const (
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldPollutionType = "pollutionType"
	FieldSeverity      = "severity"
	FieldDescription   = "description"
	FieldDateObserved  = "dateObserved"
	FieldTimeObserved  = "timeObserved"
	FieldName          = "name"
	FieldEmail         = "email"
)

const (
	MinDescriptionLength = 10
	MaxDescriptionLength = 1000
)

// dateObservedRe checks the shape of a calendar date only; impossible dates
// such as 2024-02-31 still match.
var dateObservedRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// emailRules is safe for concurrent use.
var emailRules = validator.New()

// fieldRule validates one field and stores the typed value on the patch. It
// returns a non-empty message when the value is rejected.
// Nullable fields set clear instead, which records an explicit null.
type fieldRule struct {
	name        string
	required    bool
	requiredMsg string
	apply       func(raw any, p *ReportPatch) string
	clear       func(p *ReportPatch)
}

// reportRules lists the schema in field order; violations are reported in
// this order.
var reportRules = []fieldRule{
	{name: FieldLatitude, required: true, apply: func(raw any, p *ReportPatch) string {
		v, msg := rangedNumber(raw, -90, 90, "Latitude must be between -90 and 90")
		if msg == "" {
			p.Latitude = &v
		}
		return msg
	}},
	{name: FieldLongitude, required: true, apply: func(raw any, p *ReportPatch) string {
		v, msg := rangedNumber(raw, -180, 180, "Longitude must be between -180 and 180")
		if msg == "" {
			p.Longitude = &v
		}
		return msg
	}},
	{name: FieldPollutionType, required: true, requiredMsg: "Please select a pollution type", apply: func(raw any, p *ReportPatch) string {
		v, msg := enumValue(raw, PollutionTypes)
		if msg == "" {
			p.PollutionType = &v
		}
		return msg
	}},
	{name: FieldSeverity, required: true, requiredMsg: "Please select a severity level", apply: func(raw any, p *ReportPatch) string {
		v, msg := enumValue(raw, Severities)
		if msg == "" {
			p.Severity = &v
		}
		return msg
	}},
	{name: FieldDescription, required: true, apply: func(raw any, p *ReportPatch) string {
		v, msg := description(raw)
		if msg == "" {
			p.Description = &v
		}
		return msg
	}},
	{name: FieldDateObserved, required: true, apply: func(raw any, p *ReportPatch) string {
		v, msg := stringValue(raw)
		if msg != "" {
			return msg
		}
		if !dateObservedRe.MatchString(v) {
			return "Invalid date format"
		}
		p.DateObserved = &v
		return ""
	}},
	{name: FieldTimeObserved, apply: func(raw any, p *ReportPatch) string {
		v, msg := stringValue(raw)
		if msg == "" {
			p.TimeObserved = &v
		}
		return msg
	}, clear: func(p *ReportPatch) { p.ClearTimeObserved = true }},
	{name: FieldName, apply: func(raw any, p *ReportPatch) string {
		v, msg := stringValue(raw)
		if msg == "" {
			p.Name = &v
		}
		return msg
	}, clear: func(p *ReportPatch) { p.ClearName = true }},
	{name: FieldEmail, apply: func(raw any, p *ReportPatch) string {
		v, msg := stringValue(raw)
		if msg != "" {
			return msg
		}
		// An empty string means "no email" and skips the format check.
		if v != "" && emailRules.Var(v, "email") != nil {
			return "Invalid email address"
		}
		p.Email = &v
		return ""
	}},
}

// ValidateCreate checks a full report submission. Unknown keys, including id
// and createdAt, are ignored. On failure it returns a *ValidationError
// listing every violated field.
func ValidateCreate(input map[string]any) (ReportInput, error) {
	patch, violations := applyRules(input, true)
	if len(violations) > 0 {
		return ReportInput{}, &ValidationError{Violations: violations}
	}
	return ReportInput{
		Latitude:      *patch.Latitude,
		Longitude:     *patch.Longitude,
		PollutionType: *patch.PollutionType,
		Severity:      *patch.Severity,
		Description:   *patch.Description,
		DateObserved:  *patch.DateObserved,
		TimeObserved:  patch.TimeObserved,
		Name:          patch.Name,
		Email:         patch.Email,
	}, nil
}

// ValidatePartial checks a partial update. Every field is optional; fields
// that are present follow the same rules as ValidateCreate.
func ValidatePartial(input map[string]any) (ReportPatch, error) {
	patch, violations := applyRules(input, false)
	if len(violations) > 0 {
		return ReportPatch{}, &ValidationError{Violations: violations}
	}
	return patch, nil
}

// ValidateInput re-checks an already typed submission, e.g. one assembled by
// a client before it is sent.
func ValidateInput(in ReportInput) error {
	_, err := ValidateCreate(in.Fields())
	return err
}

// Fields returns the input as the untyped record the validators consume.
// Nil optional fields are omitted.
func (in ReportInput) Fields() map[string]any {
	m := map[string]any{
		FieldLatitude:      in.Latitude,
		FieldLongitude:     in.Longitude,
		FieldPollutionType: string(in.PollutionType),
		FieldSeverity:      string(in.Severity),
		FieldDescription:   in.Description,
		FieldDateObserved:  in.DateObserved,
	}
	if in.TimeObserved != nil {
		m[FieldTimeObserved] = *in.TimeObserved
	}
	if in.Name != nil {
		m[FieldName] = *in.Name
	}
	if in.Email != nil {
		m[FieldEmail] = *in.Email
	}
	return m
}

func applyRules(input map[string]any, full bool) (ReportPatch, []Violation) {
	var (
		patch      ReportPatch
		violations []Violation
	)
	for _, rule := range reportRules {
		raw, present := input[rule.name]
		if raw == nil {
			switch {
			case present && rule.clear != nil:
				rule.clear(&patch)
			case present:
				violations = append(violations, violation(rule.name, typeMismatch(expectedType(rule.name), raw)))
			case rule.required && full:
				msg := rule.requiredMsg
				if msg == "" {
					msg = "Required"
				}
				violations = append(violations, violation(rule.name, msg))
			}
			continue
		}
		if msg := rule.apply(raw, &patch); msg != "" {
			violations = append(violations, violation(rule.name, msg))
		}
	}
	return patch, violations
}

func violation(field, msg string) Violation {
	return Violation{Path: []string{field}, Message: msg}
}

func expectedType(field string) string {
	if field == FieldLatitude || field == FieldLongitude {
		return "number"
	}
	return "string"
}

func rangedNumber(raw any, lo, hi float64, rangeMsg string) (float64, string) {
	v, ok := toFloat(raw)
	if !ok {
		return 0, typeMismatch("number", raw)
	}
	if math.IsNaN(v) {
		return 0, "Expected number, received nan"
	}
	if v < lo || v > hi {
		return 0, rangeMsg
	}
	return v, ""
}

func enumValue[T ~string](raw any, allowed []T) (T, string) {
	s, msg := stringValue(raw)
	if msg != "" {
		return "", msg
	}
	for _, a := range allowed {
		if string(a) == s {
			return a, ""
		}
	}
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = "'" + string(a) + "'"
	}
	return "", fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", strings.Join(quoted, " | "), s)
}

func description(raw any) (string, string) {
	s, msg := stringValue(raw)
	if msg != "" {
		return "", msg
	}
	// Length is measured in code points, so an emoji counts once rather than
	// as a UTF-16 surrogate pair.
	n := utf8.RuneCountInString(s)
	if n < MinDescriptionLength {
		return "", fmt.Sprintf("Description must be at least %d characters", MinDescriptionLength)
	}
	if n > MaxDescriptionLength {
		return "", fmt.Sprintf("Description must be less than %d characters", MaxDescriptionLength)
	}
	return s, ""
}

func stringValue(raw any) (string, string) {
	s, ok := raw.(string)
	if !ok {
		return "", typeMismatch("string", raw)
	}
	return s, ""
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func typeMismatch(expected string, raw any) string {
	return fmt.Sprintf("Expected %s, received %s", expected, jsonTypeName(raw))
}

// jsonTypeName names the JSON type of a decoded value.
func jsonTypeName(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

// Package validation compiles form schemas into JSON Schema documents and
// validates drafts against them.
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/xeipuuv/gojsonschema"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// JSONSchema is the compiled document handed to gojsonschema.
type JSONSchema struct {
	Schema               string              `json:"$schema,omitempty"`
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type             string        `json:"type,omitempty"`
	Description      string        `json:"description,omitempty"`
	Default          interface{}   `json:"default,omitempty"`
	Minimum          *float64      `json:"minimum,omitempty"`
	ExclusiveMinimum *float64      `json:"exclusiveMinimum,omitempty"`
	Maximum          *float64      `json:"maximum,omitempty"`
	Enum             []interface{} `json:"enum,omitempty"`
	Pattern          *string       `json:"pattern,omitempty"`
	MinLength        *int          `json:"minLength,omitempty"`
	MaxLength        *int          `json:"maxLength,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const (
	CodeRequired    = "REQUIRED_FIELD_MISSING"
	CodeInvalidType = "INVALID_TYPE"
	CodeFormat      = "INVALID_FORMAT"
	CodePositive    = "POSITIVE_VIOLATION"
	CodeMinimum     = "MINIMUM_VIOLATION"
	CodeMinLength   = "MIN_LENGTH_VIOLATION"
	CodeEnum        = "INVALID_ENUM_VALUE"
	CodeCrossField  = "CROSS_FIELD_VIOLATION"
	CodeSchema      = "SCHEMA_INVALID"
)

// FieldKind selects type coercion and the compiled constraint of a field.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindURL      FieldKind = "url"
	KindNumber   FieldKind = "number"
	KindInteger  FieldKind = "integer"
	KindDate     FieldKind = "date"
	KindFile     FieldKind = "file"
	KindPassword FieldKind = "password"
)

// Messages overrides the default message per failed rule.
type Messages struct {
	Required  string
	Type      string
	Format    string
	Positive  string
	Min       string
	MinLength string
	OneOf     string
}

// Field describes one form field.
type Field struct {
	Name      string
	Label     string
	Kind      FieldKind
	Required  bool
	Positive  bool
	Min       *float64
	MinLength int
	OneOf     []string
	Pattern   string
	Default   interface{}
	Messages  Messages
}

// CrossFieldRule checks relations between already valid fields.
type CrossFieldRule interface {
	Fields() []string
	Check(values map[string]interface{}) []ValidationError
}

// NamedFile is satisfied by uploaded file values.
type NamedFile interface {
	FileName() string
}

// Schema is a compiled, reusable form schema.
type Schema struct {
	fields []Field
	byName map[string]Field
	rules  []CrossFieldRule

	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

func NewSchema(fields []Field, rules ...CrossFieldRule) (*Schema, error) {
	s := &Schema{
		fields: fields,
		byName: make(map[string]Field, len(fields)),
		rules:  rules,
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema field without name")
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate schema field %q", f.Name)
		}
		s.byName[f.Name] = f
	}
	for _, r := range rules {
		for _, name := range r.Fields() {
			if _, ok := s.byName[name]; !ok {
				return nil, fmt.Errorf("cross-field rule references unknown field %q", name)
			}
		}
	}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema panics on an invalid static schema definition.
func MustSchema(fields []Field, rules ...CrossFieldRule) *Schema {
	s, err := NewSchema(fields, rules...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Defaults returns the explicit default values of the schema.
func (s *Schema) Defaults() map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range s.fields {
		if f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

// Document returns the JSON Schema document the form compiles to.
func (s *Schema) Document() JSONSchema {
	doc := JSONSchema{
		Schema:               draft07,
		Type:                 "object",
		Properties:           make(map[string]Property, len(s.fields)),
		AdditionalProperties: true,
	}
	for _, f := range s.fields {
		if f.Required {
			doc.Required = append(doc.Required, f.Name)
		}
		doc.Properties[f.Name] = f.property()
	}
	return doc
}

func (s *Schema) load() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		raw, err := json.Marshal(s.Document())
		if err != nil {
			s.err = fmt.Errorf("failed to encode schema: %w", err)
			return
		}
		s.compiled, s.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if s.err != nil {
			s.err = fmt.Errorf("failed to compile schema: %w", s.err)
		}
	})
	return s.compiled, s.err
}

// Validate checks values against the schema. Empty strings, whitespace and nil
// count as missing. At most one error is reported per field.
func (s *Schema) Validate(values map[string]interface{}) *ValidationResult {
	compiled, err := s.load()
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Message: err.Error(), Code: CodeSchema}}}
	}

	doc, coerced, errs := s.normalize(values)

	result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Message: err.Error(), Code: CodeSchema}}}
	}

	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		seen[e.Field] = true
	}
	for _, re := range result.Errors() {
		field := re.Field()
		if re.Type() == "required" {
			if p, ok := re.Details()["property"].(string); ok {
				field = p
			}
		}
		if seen[field] {
			continue
		}
		seen[field] = true
		errs = append(errs, s.translate(field, re.Type()))
	}

	for _, rule := range s.rules {
		if !s.ruleApplies(rule, coerced, seen) {
			continue
		}
		for _, e := range rule.Check(coerced) {
			if seen[e.Field] {
				continue
			}
			seen[e.Field] = true
			errs = append(errs, e)
		}
	}

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// normalize drops missing values and coerces the rest to their field kind.
// doc is the gojsonschema input, coerced feeds cross-field rules.
func (s *Schema) normalize(values map[string]interface{}) (map[string]interface{}, map[string]interface{}, []ValidationError) {
	doc := make(map[string]interface{}, len(values))
	coerced := make(map[string]interface{}, len(values))
	var errs []ValidationError

	for name, raw := range values {
		if IsEmpty(raw) {
			continue
		}
		f, known := s.byName[name]
		if !known {
			doc[name] = raw
			continue
		}

		switch f.Kind {
		case KindNumber, KindInteger:
			n, ok := ToNumber(raw)
			if !ok {
				errs = append(errs, ValidationError{Field: name, Message: f.message(f.Messages.Type, "%s must be a number"), Code: CodeInvalidType})
				continue
			}
			doc[name] = n
			coerced[name] = n
		case KindDate:
			str := strings.TrimSpace(fmt.Sprint(raw))
			d, ok := ParseDate(str)
			if !ok {
				errs = append(errs, ValidationError{Field: name, Message: f.message(f.Messages.Type, "%s must be a valid date"), Code: CodeInvalidType})
				continue
			}
			doc[name] = str
			coerced[name] = d
		case KindFile:
			if nf, ok := raw.(NamedFile); ok {
				doc[name] = nf.FileName()
			} else {
				doc[name] = fmt.Sprint(raw)
			}
			coerced[name] = raw
		default:
			str, ok := raw.(string)
			if !ok {
				str = fmt.Sprint(raw)
			}
			doc[name] = str
			coerced[name] = str
		}
	}
	return doc, coerced, errs
}

func (s *Schema) ruleApplies(rule CrossFieldRule, coerced map[string]interface{}, failed map[string]bool) bool {
	for _, name := range rule.Fields() {
		if failed[name] {
			return false
		}
		if _, ok := coerced[name]; !ok {
			return false
		}
	}
	return true
}

func (s *Schema) translate(field, errType string) ValidationError {
	f := s.byName[field]
	switch errType {
	case "required":
		return ValidationError{Field: field, Message: f.message(f.Messages.Required, "%s is required"), Code: CodeRequired}
	case "number_gt":
		return ValidationError{Field: field, Message: f.message(f.Messages.Positive, "%s must be a positive number"), Code: CodePositive}
	case "number_gte":
		return ValidationError{Field: field, Message: f.message(f.Messages.Min, "%s is below the minimum"), Code: CodeMinimum}
	case "string_gte":
		return ValidationError{Field: field, Message: f.message(f.Messages.MinLength, "%s is too short"), Code: CodeMinLength}
	case "enum":
		return ValidationError{Field: field, Message: f.message(f.Messages.OneOf, "%s must be one of "+strings.Join(f.OneOf, ", ")), Code: CodeEnum}
	case "invalid_type", "multiple_of":
		if f.Kind == KindInteger {
			return ValidationError{Field: field, Message: f.message(f.Messages.Type, "%s must be an integer"), Code: CodeInvalidType}
		}
		return ValidationError{Field: field, Message: f.message(f.Messages.Type, "%s has an invalid type"), Code: CodeInvalidType}
	default:
		return ValidationError{Field: field, Message: f.message(f.Messages.Format, formatFallback(f)), Code: CodeFormat}
	}
}

func formatFallback(f Field) string {
	switch f.Kind {
	case KindEmail:
		return "Invalid email"
	case KindURL:
		return "Must be a valid URL"
	default:
		return "%s has an invalid format"
	}
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func (f Field) message(override, fallback string) string {
	if override != "" {
		return override
	}
	if strings.Contains(fallback, "%s") {
		return fmt.Sprintf(fallback, f.label())
	}
	return fallback
}

var (
	emailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	urlPattern   = `^(https?|ftp)://[^\s/$.?#].[^\s]*$`
)

func (f Field) property() Property {
	p := Property{Description: f.Label, Default: f.Default}
	switch f.Kind {
	case KindNumber:
		p.Type = "number"
	case KindInteger:
		p.Type = "integer"
	default:
		p.Type = "string"
	}

	switch f.Kind {
	case KindEmail:
		p.Pattern = strPtr(emailPattern)
	case KindURL:
		p.Pattern = strPtr(urlPattern)
	}
	if f.Pattern != "" {
		p.Pattern = strPtr(f.Pattern)
	}
	if f.Positive {
		p.ExclusiveMinimum = floatPtr(0)
	}
	if f.Min != nil {
		p.Minimum = f.Min
	}
	if f.MinLength > 0 {
		p.MinLength = intPtr(f.MinLength)
	}
	for _, v := range f.OneOf {
		p.Enum = append(p.Enum, v)
	}
	return p
}

// ==========================
// Cross-field rules
// ==========================

// DateOrder requires End to fall strictly after Start.
type DateOrder struct {
	Start         string
	End           string
	EqualMessage  string
	BeforeMessage string
}

func (r DateOrder) Fields() []string { return []string{r.Start, r.End} }

func (r DateOrder) Check(values map[string]interface{}) []ValidationError {
	start, ok1 := values[r.Start].(time.Time)
	end, ok2 := values[r.End].(time.Time)
	if !ok1 || !ok2 {
		return nil
	}
	switch {
	case end.Equal(start):
		return []ValidationError{{Field: r.End, Message: r.EqualMessage, Code: CodeCrossField}}
	case end.Before(start):
		return []ValidationError{{Field: r.End, Message: r.BeforeMessage, Code: CodeCrossField}}
	}
	return nil
}

// Matches requires Field to equal Other.
type Matches struct {
	Field   string
	Other   string
	Message string
}

func (r Matches) Fields() []string { return []string{r.Field, r.Other} }

func (r Matches) Check(values map[string]interface{}) []ValidationError {
	if values[r.Field] != values[r.Other] {
		return []ValidationError{{Field: r.Field, Message: r.Message, Code: CodeCrossField}}
	}
	return nil
}

// PasswordStrength requires upper and lower case letters, a digit and a
// special character.
type PasswordStrength struct {
	Field   string
	Message string
}

func (r PasswordStrength) Fields() []string { return []string{r.Field} }

func (r PasswordStrength) Check(values map[string]interface{}) []ValidationError {
	pw, _ := values[r.Field].(string)
	var upper, lower, digit, special bool
	for _, c := range pw {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			special = true
		}
	}
	if upper && lower && digit && special {
		return nil
	}
	return []ValidationError{{Field: r.Field, Message: r.Message, Code: CodeFormat}}
}

// ==========================
// Helpers
// ==========================

// IsEmpty reports whether a draft value counts as missing.
func IsEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case NamedFile:
		return t == nil || t.FileName() == ""
	}
	return false
}

// ToNumber coerces numeric draft values, including numeric strings.
func ToNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns the day.
func ParseDate(s string) (time.Time, bool) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// FieldErrors maps each failing field to its message.
func (vr *ValidationResult) FieldErrors() map[string]string {
	out := make(map[string]string, len(vr.Errors))
	for _, err := range vr.Errors {
		if _, ok := out[err.Field]; !ok {
			out[err.Field] = err.Message
		}
	}
	return out
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

// FloatPtr is used by schema definitions for Min.
func FloatPtr(f float64) *float64 { return &f }

// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testFile struct{ name string }

func (f *testFile) FileName() string {
	if f == nil {
		return ""
	}
	return f.name
}

func couponSchema(t *testing.T) *Schema {
	s, err := NewSchema([]Field{
		{Name: "code", Label: "Code", Kind: KindText, Required: true},
		{Name: "details", Label: "Details", Kind: KindText, Required: true},
		{Name: "amount", Label: "Amount", Kind: KindNumber, Required: true, Positive: true,
			Messages: Messages{Positive: "Amount must be a positive number"}},
		{Name: "status", Label: "Status", Kind: KindText, Required: true, OneOf: []string{"Active", "Inactive"}, Default: "Active"},
	})
	require.NoError(t, err)
	return s
}

func projectSchema(t *testing.T) *Schema {
	s, err := NewSchema([]Field{
		{Name: "title", Kind: KindText, Required: true},
		{Name: "start_date", Kind: KindDate, Required: true},
		{Name: "end_date", Kind: KindDate, Required: true},
	}, DateOrder{
		Start:         "start_date",
		End:           "end_date",
		EqualMessage:  "End date cannot be the same as start date",
		BeforeMessage: "End date must be after start date",
	})
	require.NoError(t, err)
	return s
}

// ==========================
// Schema Construction Tests
// ==========================

func TestNewSchema_RejectsBadDefinitions(t *testing.T) {
	_, err := NewSchema([]Field{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)

	_, err = NewSchema([]Field{{Name: ""}})
	assert.Error(t, err)

	_, err = NewSchema([]Field{{Name: "a"}}, Matches{Field: "a", Other: "missing"})
	assert.Error(t, err)
}

func TestSchema_DocumentAndDefaults(t *testing.T) {
	s := couponSchema(t)

	doc := s.Document()
	assert.Equal(t, "object", doc.Type)
	assert.ElementsMatch(t, []string{"code", "details", "amount", "status"}, doc.Required)
	assert.Equal(t, "number", doc.Properties["amount"].Type)
	require.NotNil(t, doc.Properties["amount"].ExclusiveMinimum)
	assert.Equal(t, 0.0, *doc.Properties["amount"].ExclusiveMinimum)

	assert.Equal(t, map[string]interface{}{"status": "Active"}, s.Defaults())
}

// ==========================
// Required Field Tests
// ==========================

func TestSchema_Validate_MissingFieldsAreExactlyReported(t *testing.T) {
	s := couponSchema(t)

	tests := []struct {
		name     string
		values   map[string]interface{}
		expected []string
	}{
		{
			name:     "all present",
			values:   map[string]interface{}{"code": "SAVE10", "details": "10% off", "amount": 10, "status": "Active"},
			expected: nil,
		},
		{
			name:     "code absent",
			values:   map[string]interface{}{"details": "10% off", "amount": 10, "status": "Active"},
			expected: []string{"code"},
		},
		{
			name:     "empty string counts as missing",
			values:   map[string]interface{}{"code": "", "details": "   ", "amount": 10, "status": "Active"},
			expected: []string{"code", "details"},
		},
		{
			name:     "nil counts as missing",
			values:   map[string]interface{}{"code": "X", "details": "d", "amount": nil, "status": "Active"},
			expected: []string{"amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Validate(tt.values)
			errs := result.FieldErrors()

			keys := make([]string, 0, len(errs))
			for k := range errs {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.expected, keys)
			assert.Equal(t, len(tt.expected) == 0, result.Valid)
			for _, field := range tt.expected {
				assert.Contains(t, errs[field], "required")
			}
		})
	}
}

// ==========================
// Constraint Tests
// ==========================

func TestSchema_Validate_Constraints(t *testing.T) {
	s, err := NewSchema([]Field{
		{Name: "email", Kind: KindEmail, Required: true},
		{Name: "websiteURL", Kind: KindURL, Required: true},
		{Name: "noOfReaders", Kind: KindInteger, Required: true, Positive: true},
		{Name: "count", Kind: KindInteger, Min: FloatPtr(1), Messages: Messages{Min: "Count must be at least 1"}},
		{Name: "type", Kind: KindText, OneOf: []string{"calls", "months"}},
	})
	require.NoError(t, err)

	valid := map[string]interface{}{
		"email":       "admin@example.com",
		"websiteURL":  "https://example.com/banner",
		"noOfReaders": "12",
		"count":       3,
		"type":        "calls",
	}
	assert.True(t, s.Validate(valid).Valid)

	tests := []struct {
		name  string
		field string
		value interface{}
		code  string
	}{
		{"bad email", "email", "not-an-email", CodeFormat},
		{"bad url", "websiteURL", "example.com", CodeFormat},
		{"zero is not positive", "noOfReaders", 0, CodePositive},
		{"negative is not positive", "noOfReaders", "-4", CodePositive},
		{"fraction is not an integer", "noOfReaders", 2.5, CodeInvalidType},
		{"non numeric string", "noOfReaders", "many", CodeInvalidType},
		{"below minimum", "count", 0, CodeMinimum},
		{"not in enum", "type", "weeks", CodeEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make(map[string]interface{}, len(valid))
			for k, v := range valid {
				values[k] = v
			}
			values[tt.field] = tt.value

			result := s.Validate(values)
			require.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, tt.code, result.Errors[0].Code)
		})
	}
}

func TestSchema_Validate_FileField(t *testing.T) {
	s, err := NewSchema([]Field{{Name: "image", Kind: KindFile, Required: true}})
	require.NoError(t, err)

	assert.True(t, s.Validate(map[string]interface{}{"image": &testFile{name: "a.png"}}).Valid)

	var missing *testFile
	result := s.Validate(map[string]interface{}{"image": missing})
	assert.True(t, result.HasErrors("image"))
}

// ==========================
// Cross-field Rule Tests
// ==========================

func TestSchema_Validate_DateOrder(t *testing.T) {
	s := projectSchema(t)

	tests := []struct {
		name    string
		end     string
		valid   bool
		message string
	}{
		{"same day rejected", "2024-01-01", false, "End date cannot be the same as start date"},
		{"before start rejected", "2023-12-31", false, "End date must be after start date"},
		{"day after accepted", "2024-01-02", true, ""},
		{"timestamp form accepted", "2024-02-01T00:00:00.000Z", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Validate(map[string]interface{}{
				"title":      "Short film",
				"start_date": "2024-01-01",
				"end_date":   tt.end,
			})
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, tt.message, result.FieldErrors()["end_date"])
			}
		})
	}
}

func TestSchema_Validate_DateOrderSkippedWhenDateMissing(t *testing.T) {
	s := projectSchema(t)

	result := s.Validate(map[string]interface{}{"title": "x", "start_date": "2024-01-01"})
	assert.Equal(t, map[string]string{"end_date": "end_date is required"}, result.FieldErrors())
}

func TestSchema_Validate_Matches(t *testing.T) {
	s, err := NewSchema([]Field{
		{Name: "newPassword", Kind: KindPassword, Required: true},
		{Name: "confirmPassword", Kind: KindPassword, Required: true},
	}, Matches{Field: "confirmPassword", Other: "newPassword", Message: "Passwords must match"})
	require.NoError(t, err)

	result := s.Validate(map[string]interface{}{"newPassword": "Secret#123", "confirmPassword": "Secret#124"})
	assert.Equal(t, "Passwords must match", result.FieldErrors()["confirmPassword"])

	result = s.Validate(map[string]interface{}{"newPassword": "Secret#123", "confirmPassword": "Secret#123"})
	assert.True(t, result.Valid)
}

func TestSchema_Validate_PasswordStrength(t *testing.T) {
	s, err := NewSchema([]Field{
		{Name: "newPassword", Kind: KindPassword, Required: true, MinLength: 8},
	}, PasswordStrength{Field: "newPassword", Message: "Password is too weak"})
	require.NoError(t, err)

	tests := []struct {
		password string
		expected string
	}{
		{"Secret#123", ""},
		{"secret#123", "Password is too weak"},
		{"Secret1234", "Password is too weak"},
		{"Sh#1", "newPassword is too short"},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			result := s.Validate(map[string]interface{}{"newPassword": tt.password})
			assert.Equal(t, tt.expected, result.FieldErrors()["newPassword"])
		})
	}
}

// ==========================
// Helper Tests
// ==========================

func TestValidateHelpers(t *testing.T) {
	n, ok := ToNumber("10.5")
	assert.True(t, ok)
	assert.Equal(t, 10.5, n)

	_, ok = ParseDate("01/02/2024")
	assert.False(t, ok)
}

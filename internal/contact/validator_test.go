package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() Form {
	return Form{
		Name:    "Ada Lovelace",
		Email:   "user@example.com",
		Subject: "Project enquiry",
		Message: "I would like to talk about a project.",
	}
}

func TestValidateFieldRequired(t *testing.T) {
	for _, field := range Fields {
		for _, v := range []string{"", "   ", "\t\n"} {
			r := ValidateField(field, v)
			assert.False(t, r.Valid, field)
			assert.Equal(t, MsgRequired, r.Message, field)
		}
	}
}

func TestValidateFieldEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"user@example.com", true},
		{"  user@example.com  ", true},
		{"userexample.com", false},
		{"user@example", false},
		{"user@@example.com", false},
		{"us er@example.com", false},
		{"@example.com", false},
	}
	for _, tt := range tests {
		r := ValidateField(FieldEmail, tt.in)
		assert.Equal(t, tt.valid, r.Valid, tt.in)
		if !tt.valid {
			assert.Equal(t, MsgInvalidFormat, r.Message, tt.in)
		}
	}
}

func TestValidateFieldMessageLength(t *testing.T) {
	r := ValidateField(FieldMessage, strings.Repeat("a", 9))
	assert.False(t, r.Valid)
	assert.Equal(t, "Minimum 10 characters required", r.Message)

	assert.True(t, ValidateField(FieldMessage, strings.Repeat("a", 10)).Valid)
	assert.True(t, ValidateField(FieldMessage, strings.Repeat("a", 1000)).Valid)

	r = ValidateField(FieldMessage, strings.Repeat("a", 1001))
	assert.False(t, r.Valid)
	assert.Equal(t, "Maximum 1000 characters allowed", r.Message)
}

func TestValidateFieldCountsCharacters(t *testing.T) {
	// 100 two-byte characters is still within the name limit
	assert.True(t, ValidateField(FieldName, strings.Repeat("é", 100)).Valid)
	assert.False(t, ValidateField(FieldName, strings.Repeat("é", 101)).Valid)
}

func TestValidateFieldRuleOrder(t *testing.T) {
	// length is checked before the pattern
	long := strings.Repeat("a", 260) + "@example.com"
	r := ValidateField(FieldEmail, long)
	assert.Equal(t, "Maximum 255 characters allowed", r.Message)

	r = ValidateField(FieldSubject, "Hi")
	assert.Equal(t, "Minimum 5 characters required", r.Message)
}

func TestValidateFieldUnknown(t *testing.T) {
	assert.True(t, ValidateField("website", "").Valid)
}

func TestValidateFormChecksEveryField(t *testing.T) {
	res := ValidateForm(Form{Name: "A", Email: "nope", Subject: "Hey", Message: "short"})
	assert.False(t, res.Valid())
	assert.Len(t, res.Errors(), 4)
	assert.Equal(t,
		"Name: Minimum 2 characters required, Email: Invalid format, Subject: Minimum 5 characters required, Message: Minimum 10 characters required",
		res.Summary())

	ok := ValidateForm(validForm())
	assert.True(t, ok.Valid())
	assert.Empty(t, ok.Errors())
	assert.Empty(t, ok.Summary())
}

func TestValidateMessageAfterSanitize(t *testing.T) {
	f := validForm()
	f.Name = "<>a<>"
	assert.True(t, ValidateForm(f).Valid())

	msg := NewMessage(f, fixedNow)
	res := ValidateMessage(msg)
	assert.False(t, res.Valid())
	assert.Contains(t, res.Errors(), FieldName)
}

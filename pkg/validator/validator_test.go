package validator

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type organizationPayload struct {
	Name    string `json:"name" validate:"required,max=16"`
	Contact string `json:"contact_email" validate:"required,email"`
	Code    string `json:"code" validate:"omitempty,orgcode"`
}

type registrationPayload struct {
	Phone     string `json:"phone" validate:"required,phone"`
	Signature string `json:"signature" validate:"required,signature"`
	ShortCode string `json:"short_code" validate:"omitempty,shortcode"`
}

func TestValidateStructAcceptsValidPayloads(t *testing.T) {
	require.NoError(t, ValidateStruct(organizationPayload{Name: "Acme", Contact: "ops@acme.example", Code: "aau-cs"}))
	require.NoError(t, ValidateStruct(registrationPayload{
		Phone:     "+251 911 234 567",
		Signature: "data:image/png;base64,iVBORw0KGgo=",
		ShortCode: "abcdefgh",
	}))
}

func TestValidateStructDescribesFailures(t *testing.T) {
	err := ValidateStruct(organizationPayload{Name: "a very long organization name", Contact: "nope", Code: "-x"})

	var failures FieldErrors
	require.True(t, errors.As(err, &failures))
	require.Len(t, failures, 3)

	fields := failures.ByField()
	require.Equal(t, "name must be at most 16 characters", fields["name"])
	require.Equal(t, "contact email must be a valid email address", fields["contact_email"])
	require.Equal(t, "code must be 2 to 64 letters, digits, dashes or underscores", fields["code"])
	require.Contains(t, err.Error(), "; ")
}

func TestDomainRuleMessages(t *testing.T) {
	err := ValidateStruct(registrationPayload{Phone: "12345", Signature: "iVBORw0KGgo=", ShortCode: "ABC"})

	var failures FieldErrors
	require.True(t, errors.As(err, &failures))
	fields := failures.ByField()
	require.Equal(t, "phone must contain 9 to 15 digits", fields["phone"])
	require.Equal(t, "Signature missing or invalid.", fields["signature"])
	require.Equal(t, "short code must be 8 lowercase letters", fields["short_code"])

	missing := ValidateStruct(registrationPayload{})
	require.Equal(t, "phone is required; signature is required", missing.Error())
}

func TestAsAppError(t *testing.T) {
	appErr := AsAppError(ValidateStruct(registrationPayload{Phone: "1", Signature: "data:image/png;base64,AA=="}))
	require.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
	require.Equal(t, "phone must contain 9 to 15 digits", appErr.Message)
	require.Equal(t, map[string]string{"phone": "phone must contain 9 to 15 digits"}, appErr.Fields)

	other := AsAppError(errors.New("validator: unsupported type"))
	require.Equal(t, "invalid request payload", other.Message)
	require.Nil(t, other.Fields)
}

func TestIsPhone(t *testing.T) {
	require.True(t, IsPhone("0911 234 567"))
	require.False(t, IsPhone("12-34"))
	require.False(t, IsPhone("+1 234 567 890 123 456"))
}

package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	orgCodePattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{1,63}$`)
	shortCodePattern = regexp.MustCompile(`^[a-z]{8}$`)
)

type rule struct {
	tag     string
	check   validator.Func
	message func(field, param string) string
}

var domainRules = []rule{
	{
		tag:     "phone",
		check:   func(fl validator.FieldLevel) bool { return IsPhone(fl.Field().String()) },
		message: func(field, _ string) string { return field + " must contain 9 to 15 digits" },
	},
	{
		tag:     "signature",
		check:   func(fl validator.FieldLevel) bool { return IsSignatureDataURI(fl.Field().String()) },
		message: func(string, string) string { return "Signature missing or invalid." },
	},
	{
		tag:   "orgcode",
		check: func(fl validator.FieldLevel) bool { return orgCodePattern.MatchString(fl.Field().String()) },
		message: func(field, _ string) string {
			return field + " must be 2 to 64 letters, digits, dashes or underscores"
		},
	},
	{
		tag:     "shortcode",
		check:   func(fl validator.FieldLevel) bool { return shortCodePattern.MatchString(fl.Field().String()) },
		message: func(field, _ string) string { return field + " must be 8 lowercase letters" },
	},
}

// builtinMessages covers the stock tags used by request payloads.
var builtinMessages = map[string]func(field, param string) string{
	"required": func(field, _ string) string { return field + " is required" },
	"email":    func(field, _ string) string { return field + " must be a valid email address" },
	"max":      func(field, param string) string { return fmt.Sprintf("%s must be at most %s characters", field, param) },
	"min": func(field, param string) string {
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	},
	"uuid":  func(field, _ string) string { return field + " must be a valid id" },
	"oneof": func(field, param string) string { return fmt.Sprintf("%s must be one of: %s", field, param) },
}

func describe(field, tag, param string) string {
	label := strings.ToLower(strings.ReplaceAll(field, "_", " "))
	if label == "" {
		label = "field"
	}
	for _, r := range domainRules {
		if r.tag == tag {
			return r.message(label, param)
		}
	}
	if msg, ok := builtinMessages[tag]; ok {
		return msg(label, param)
	}
	if param != "" {
		return fmt.Sprintf("%s failed validation: %s=%s", label, tag, param)
	}
	return fmt.Sprintf("%s failed validation: %s", label, tag)
}

// IsPhone reports whether value carries between 9 and 15 digits once separators are removed.
func IsPhone(value string) bool {
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 9 && digits <= 15
}

// IsSignatureDataURI reports whether value is a base64 image data URI.
func IsSignatureDataURI(value string) bool {
	value = strings.TrimSpace(value)
	return strings.HasPrefix(value, "data:image") && strings.Contains(value, ";base64,")
}

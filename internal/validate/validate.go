// Package validate holds the pure field validators for registration input.
// Each validator returns the normalized value plus every reason the raw value
// was rejected, so callers can accumulate all violations instead of failing on
// the first one.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	"healthfirst/internal/domain"
)

// FieldErrors accumulates violations per field.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field string, reasons ...string) {
	if len(reasons) == 0 {
		return
	}
	fe[field] = append(fe[field], reasons...)
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{1,15}$`)
	licensePattern = regexp.MustCompile(`^[A-Z0-9]+$`)
	zipPattern     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
)

// Email normalizes to lower case and checks an RFC-plausible shape.
func Email(raw string) (string, []string) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return email, []string{"Email is required."}
	}
	if len(email) > 254 || !govalidator.IsEmail(email) {
		return email, []string{"Invalid email format."}
	}
	return email, nil
}

// Phone accepts an optional leading + followed by 1-15 digits, after
// stripping spaces, parentheses, and hyphens.
func Phone(raw string) (string, []string) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return phone, []string{"Phone number is required."}
	}
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '(', ')', '-':
			return -1
		}
		return r
	}, phone)
	if !phonePattern.MatchString(stripped) {
		return stripped, []string{"Invalid phone number format. Please use international format (e.g., +1234567890)."}
	}
	return stripped, nil
}

// License uppercases and requires 5-20 alphanumeric characters.
func License(raw string) (string, []string) {
	license := strings.ToUpper(strings.TrimSpace(raw))
	if license == "" {
		return license, []string{"License number is required."}
	}
	var reasons []string
	if !licensePattern.MatchString(license) {
		reasons = append(reasons, "License number must contain only letters and numbers.")
	}
	if n := utf8.RuneCountInString(license); n < 5 || n > 20 {
		reasons = append(reasons, "License number must be between 5 and 20 characters.")
	}
	return license, reasons
}

// Zip accepts US ZIP codes: 12345 or 12345-6789.
func Zip(raw string) (string, []string) {
	zip := strings.TrimSpace(raw)
	if zip == "" {
		return zip, []string{"ZIP/Postal code is required."}
	}
	if !zipPattern.MatchString(zip) {
		return zip, []string{"Invalid US ZIP code format. Use 12345 or 12345-6789."}
	}
	return zip, nil
}

// Name validates a person or place name: 2-50 characters of letters, spaces,
// hyphens, and apostrophes, title-cased on the way out.
func Name(raw, label string) (string, []string) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name, []string{label + " is required."}
	}
	var reasons []string
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		reasons = append(reasons, label+" must be between 2 and 50 characters.")
	}
	if !namePattern.MatchString(name) {
		reasons = append(reasons, label+" can only contain letters, spaces, hyphens, and apostrophes.")
	}
	if len(reasons) > 0 {
		return name, reasons
	}
	return titleCase(name), nil
}

// Specialization checks membership of the known choice list.
func Specialization(raw string) (string, []string) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return value, []string{"Specialization is required."}
	}
	if !domain.IsValidSpecialization(value) {
		return value, []string{"Invalid specialization selected."}
	}
	return value, nil
}

// YearsOfExperience must fall in [0, 50].
func YearsOfExperience(years int) []string {
	if years < 0 || years > 50 {
		return []string{"Years of experience must be between 0 and 50."}
	}
	return nil
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

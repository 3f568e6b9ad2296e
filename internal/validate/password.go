package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// specialChars is the accepted special-character class for passwords.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// Password strength labels. The label is advisory feedback for clients; the
// hard gate is the five composition rules, independent of the score.
const (
	LabelWeak   = "weak"
	LabelMedium = "medium"
	LabelStrong = "strong"
)

// PasswordReport carries the gate result and the advisory score.
type PasswordReport struct {
	// Violations lists every composition rule the password failed. Empty
	// means the password passes the hard gate.
	Violations []string

	// Score (0-5) and Label grade the password for client feedback only.
	Score int
	Label string
}

func (r PasswordReport) OK() bool { return len(r.Violations) == 0 }

// Password checks the composition gate: length >= 8 plus lowercase,
// uppercase, digit, and special-character classes. Every failing rule is
// reported, not just the first.
func Password(raw string) PasswordReport {
	var (
		hasLower, hasUpper, hasDigit, hasSpecial bool
	)
	for _, r := range raw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	var report PasswordReport
	score := 0
	if utf8.RuneCountInString(raw) >= 8 {
		score++
	} else {
		report.Violations = append(report.Violations, "Password must be at least 8 characters long.")
	}
	if hasUpper {
		score++
	} else {
		report.Violations = append(report.Violations, "Password must contain at least one uppercase letter.")
	}
	if hasLower {
		score++
	} else {
		report.Violations = append(report.Violations, "Password must contain at least one lowercase letter.")
	}
	if hasDigit {
		score++
	} else {
		report.Violations = append(report.Violations, "Password must contain at least one number.")
	}
	if hasSpecial {
		score++
	} else {
		report.Violations = append(report.Violations, "Password must contain at least one special character.")
	}

	report.Score = score
	switch {
	case score <= 2:
		report.Label = LabelWeak
	case score == 3:
		report.Label = LabelMedium
	default:
		report.Label = LabelStrong
	}
	return report
}

// PasswordsMatch reports whether the password and its confirmation agree.
func PasswordsMatch(password, confirm string) bool {
	return password == confirm
}

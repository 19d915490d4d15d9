package validation

import "strings"

// CountryCode prefixes numbers of the only supported region.
const (
	CountryCode    = "+81"
	verifyCodeSize = 6
)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizePhone drops spaces, hyphens and parentheses.
func NormalizePhone(raw string) string {
	return phoneSeparators.Replace(strings.TrimSpace(raw))
}

// PhoneNumber accepts E.164 numbers in the supported region (9-10 digits
// after the country code) or national numbers of 10-11 digits.
func PhoneNumber(raw string) error {
	s := NormalizePhone(raw)
	if s == "" {
		return fail(ReasonInvalidPhoneNumber, "phoneNumber", "phone number is required")
	}
	if strings.HasPrefix(s, "+") {
		rest, ok := strings.CutPrefix(s, CountryCode)
		if !ok || !isDigits(rest) || len(rest) < 9 || len(rest) > 10 {
			return fail(ReasonInvalidPhoneNumber, "phoneNumber", "not a valid %s number", CountryCode)
		}
		return nil
	}
	if !isDigits(s) || len(s) < 10 || len(s) > 11 {
		return fail(ReasonInvalidPhoneNumber, "phoneNumber", "national number must be 10-11 digits")
	}
	return nil
}

// FormatToE164 converts a national number to E.164 by dropping a leading 0
// and prefixing the country code. Numbers already starting with + are
// returned unchanged apart from separator removal.
func FormatToE164(raw string) string {
	s := NormalizePhone(raw)
	if strings.HasPrefix(s, "+") {
		return s
	}
	return CountryCode + strings.TrimPrefix(s, "0")
}

// VerificationCode requires a non-empty session id and a code of exactly six
// decimal digits.
func VerificationCode(sessionID, code string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fail(ReasonInvalidVerificationCode, "verificationId", "verification session is required")
	}
	if len(code) != verifyCodeSize || !isDigits(code) {
		return fail(ReasonInvalidVerificationCode, "code", "code must be %d digits", verifyCodeSize)
	}
	return nil
}

package otp

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultCountryCode is used when no prefix is configured
const DefaultCountryCode = "+91"

// Normalize returns raw in canonical E.164 form: whitespace stripped and,
// when there is no leading +, defaultPrefix prepended. It is idempotent.
func Normalize(raw, defaultPrefix string) string {
	phone := stripSpace(raw)
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return canonicalPrefix(defaultPrefix) + phone
}

// IsCanonical reports whether phone is already normalized and is a possible
// E.164 number.
func IsCanonical(phone string) bool {
	if len(phone) < 2 || phone[0] != '+' || stripSpace(phone) != phone {
		return false
	}
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

func canonicalPrefix(prefix string) string {
	prefix = strings.TrimLeft(stripSpace(prefix), "+")
	if prefix == "" {
		prefix = strings.TrimLeft(DefaultCountryCode, "+")
	}
	return "+" + prefix
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

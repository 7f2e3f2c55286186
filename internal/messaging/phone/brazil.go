// Package phone normalizes phone numbers with country-specific rules,
// chiefly Brazil's 8 to 9 digit mobile migration (completed in 2016). All
// Brazilian mobile numbers now carry a leading 9, but legacy data and some
// external systems still use the old 8-digit form.
package phone

import (
	"strconv"
	"strings"
)

const (
	brazilCountryCode = "55"

	// First digits that mark a local number as mobile (historically 9, 8,
	// 7 and 6).
	brazilMobilePrefixes = "9876"
)

// validBrazilAreaCode reports whether the two-digit DDD code is in the
// assigned 11-99 range.
func validBrazilAreaCode(area string) bool {
	n, err := strconv.Atoi(area)
	if err != nil {
		return false
	}
	return n >= 11 && n <= 99
}

// NormalizeBrazil normalizes a Brazilian phone number to E.164 with the
// 9th digit, preserving a "whatsapp:" channel prefix when present.
//
//	NormalizeBrazil("+555198644323")          == "+5551998644323"
//	NormalizeBrazil("5198644323")             == "+5551998644323"
//	NormalizeBrazil("whatsapp:+555198644323") == "whatsapp:+5551998644323"
//
// Returns "" when the input is empty or unparseable.
func NormalizeBrazil(raw string) string {
	if raw == "" {
		return ""
	}

	prefix, rest := splitWhatsAppPrefix(strings.TrimSpace(raw))

	digits := extractDigits(rest)
	if digits == "" {
		return ""
	}

	// Strip the country code when present.
	if strings.HasPrefix(digits, brazilCountryCode) && len(digits) > 11 {
		digits = digits[2:]
	}

	// DDD plus an 8 or 9 digit local number.
	if len(digits) < 10 || len(digits) > 11 {
		return ""
	}

	area := digits[:2]
	local := digits[2:]

	if !validBrazilAreaCode(area) {
		// Unrecognized area code: fail open, keep the digits verbatim.
		return prefix + "+" + brazilCountryCode + digits
	}

	// An 8-digit local number starting with a mobile prefix is a legacy
	// mobile number missing its 9th digit.
	if len(local) == 8 && strings.ContainsRune(brazilMobilePrefixes, rune(local[0])) {
		local = "9" + local
	}

	return prefix + "+" + brazilCountryCode + area + local
}

// DenormalizeBrazil converts a 9-digit Brazilian mobile number back to the
// legacy 8-digit form. This is the fallback encoding tried when the
// canonical 9-digit form is rejected (some WhatsApp accounts are still
// registered under the old format).
//
//	DenormalizeBrazil("+5551998644323") == "+555198644323"
//	DenormalizeBrazil("+555133224455") == "+555133224455"
//
// Landlines, non-Brazilian numbers and already-8-digit numbers come back
// unchanged. Returns "" for empty or digit-less input.
func DenormalizeBrazil(raw string) string {
	if raw == "" {
		return ""
	}

	prefix, rest := splitWhatsAppPrefix(strings.TrimSpace(raw))

	digits := extractDigits(rest)
	if digits == "" {
		return ""
	}

	// Must be a full Brazilian number: 55 + DDD + 9-digit mobile.
	if !strings.HasPrefix(digits, brazilCountryCode) || len(digits) != 13 {
		return prefix + rest
	}

	area := digits[2:4]
	local := digits[4:]

	if len(local) == 9 && local[0] == '9' && strings.ContainsRune(brazilMobilePrefixes, rune(local[1])) {
		return prefix + "+" + brazilCountryCode + area + local[1:]
	}

	return prefix + rest
}

// phonesMatchBrazil reports whether two numbers normalize to the same
// Brazilian canonical form. The channel prefix is ignored: a number is
// the same destination with or without "whatsapp:". Empty or unparseable
// inputs never match.
func phonesMatchBrazil(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	_, na := splitWhatsAppPrefix(NormalizeBrazil(a))
	_, nb := splitWhatsAppPrefix(NormalizeBrazil(b))
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

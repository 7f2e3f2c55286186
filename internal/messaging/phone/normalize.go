package phone

import "strings"

const whatsAppPrefix = "whatsapp:"

// Normalize canonicalizes a free-form phone number to E.164, applying the
// rules of defaultCountry for numbers without a country code. Numbers
// starting with country code 55 are always treated as Brazilian, and
// explicit international numbers ("+" prefix, other country) are never
// rewritten to Brazilian form just because defaultCountry is "BR".
//
// Returns "" for empty or digit-less input.
func Normalize(raw, defaultCountry string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return ""
	}

	prefix, rest := splitWhatsAppPrefix(candidate)
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ""
	}

	digits := extractDigits(rest)
	if digits == "" {
		return ""
	}

	if strings.HasPrefix(digits, brazilCountryCode) {
		return NormalizeBrazil(prefix + rest)
	}

	// International number with an explicit country code.
	if strings.HasPrefix(rest, "+") {
		return prefix + "+" + digits
	}

	// Local number: follow the default country.
	if strings.EqualFold(defaultCountry, "BR") {
		return NormalizeBrazil(prefix + rest)
	}

	return prefix + "+" + digits
}

// NormalizeWhatsAppID normalizes a WhatsApp ID, which is a phone number
// optionally prefixed with "whatsapp:". The prefix is preserved on the
// output when the input carried one.
func NormalizeWhatsAppID(id, defaultCountry string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	hasPrefix := strings.HasPrefix(strings.ToLower(id), whatsAppPrefix)
	raw := id
	if hasPrefix {
		raw = id[len(whatsAppPrefix):]
	}

	normalized := Normalize(raw, defaultCountry)
	if normalized == "" {
		return ""
	}

	if hasPrefix && !strings.HasPrefix(strings.ToLower(normalized), whatsAppPrefix) {
		return whatsAppPrefix + normalized
	}
	return normalized
}

// Denormalize converts a normalized number to the alternate encoding used
// for retry. For Brazil this is the legacy 8-digit mobile form; for other
// countries the number comes back unchanged.
func Denormalize(number, country string) string {
	if number == "" {
		return ""
	}
	if country == "BR" {
		return DenormalizeBrazil(number)
	}
	return number
}

// PhonesMatch reports whether two numbers refer to the same destination
// after country-specific normalization. The channel prefix is ignored;
// empty inputs never match.
func PhonesMatch(a, b, country string) bool {
	if country == "BR" {
		return phonesMatchBrazil(a, b)
	}
	_, na := splitWhatsAppPrefix(Normalize(a, country))
	_, nb := splitWhatsAppPrefix(Normalize(b, country))
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// FormatWhatsAppNumber formats a raw number as "whatsapp:+<digits>" with
// no country-specific logic: exactly 10 digits are assumed to be a North
// American number and get a leading 1. This deliberately simpler formatter
// is not interchangeable with Normalize/NormalizeWhatsAppID, which apply
// the Brazilian rule set.
func FormatWhatsAppNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(number), whatsAppPrefix) {
		number = number[len(whatsAppPrefix):]
	}

	digits := extractDigits(number)
	if digits == "" {
		return ""
	}

	if len(digits) == 10 {
		digits = "1" + digits
	}

	return whatsAppPrefix + "+" + digits
}

// splitWhatsAppPrefix splits off a leading "whatsapp:" marker, returning
// the canonical lowercase prefix and the remainder.
func splitWhatsAppPrefix(value string) (prefix, rest string) {
	if strings.HasPrefix(strings.ToLower(value), whatsAppPrefix) {
		return whatsAppPrefix, value[len(whatsAppPrefix):]
	}
	return "", value
}

// extractDigits strips every non-digit rune.
func extractDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

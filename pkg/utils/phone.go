package utils

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// MinPhoneDigits is the shortest digit-only number accepted as an individual recipient.
const MinPhoneDigits = 10

// IsGroupJID reports whether the target is an already-qualified group identifier (xxx@g.us).
func IsGroupJID(target string) bool {
	target = strings.TrimSpace(target)
	if !strings.Contains(target, "@") {
		return false
	}
	jid, err := types.ParseJID(target)
	if err != nil {
		return false
	}
	return jid.Server == types.GroupServer
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// NormalizeRecipient returns the form used both on the wire and as blacklist key.
// Group targets are kept as-is, individual contacts are reduced to digits.
func NormalizeRecipient(target string) string {
	target = strings.TrimSpace(target)
	if IsGroupJID(target) {
		return target
	}
	return DigitsOnly(target)
}

package domain

import "strings"

// Alphabet is the fixed set of symbols an identity key can be built from.
// Order matters only for display; keys may repeat symbols.
var Alphabet = []string{
	"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯",
	"🦁", "🐮", "🐷", "🐸", "🐵", "🐔", "🐧", "🐦", "🦄", "🐙",
}

// KeyLength is the number of symbols in an identity key.
const KeyLength = 3

var alphabetSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Alphabet))
	for _, s := range Alphabet {
		set[s] = struct{}{}
	}
	return set
}()

// ValidSymbols reports whether symbols form a legal key: exactly KeyLength
// entries, each drawn from Alphabet. Repetition is allowed and order is
// significant, so [A,B,A] and [A,A,B] are different keys.
func ValidSymbols(symbols []string) bool {
	if len(symbols) != KeyLength {
		return false
	}
	for _, s := range symbols {
		if _, ok := alphabetSet[s]; !ok {
			return false
		}
	}
	return true
}

// DeriveKey concatenates the chosen symbols in selection order.
func DeriveKey(symbols []string) string {
	return strings.Join(symbols, "")
}

// ValidPIN checks the shared-secret shape: 4 to 8 ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

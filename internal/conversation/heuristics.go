package conversation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	priceIntentPoints    = 10
	purchaseIntentPoints = 20

	// nameProbeMaxRunes bounds which messages are treated as a short greeting
	// worth probing for a name.
	nameProbeMaxRunes = 50
)

var (
	priceIntentKeywords    = []string{"preço", "custo", "quanto", "valor"}
	purchaseIntentKeywords = []string{"contratar", "quero", "preciso"}

	greetingStopwords = map[string]struct{}{
		"oi": {}, "olá": {}, "ola": {}, "bom": {}, "dia": {},
		"tarde": {}, "noite": {}, "tudo": {}, "bem": {},
	}

	// Basic latin plus the accented letters used in Brazilian Portuguese.
	nameExtraLetters = "áàâãéèêíïóôõöúçñ"
)

// ScoreDelta returns the lead score increment for a user-authored message.
// Each keyword set contributes at most once; matching is substring-based over
// the lowercased text, so "quanto" also fires inside "quantos".
func ScoreDelta(text string) int {
	lower := strings.ToLower(text)
	delta := 0
	if containsAny(lower, priceIntentKeywords) {
		delta += priceIntentPoints
	}
	if containsAny(lower, purchaseIntentKeywords) {
		delta += purchaseIntentPoints
	}
	return delta
}

// DetectName looks for a plausible first name in a short greeting such as
// "oi, sou a Carla". It never runs once a name is already known.
func DetectName(text string, alreadyKnown bool) (string, bool) {
	if alreadyKnown || utf8.RuneCountInString(text) >= nameProbeMaxRunes {
		return "", false
	}
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if _, stop := greetingStopwords[token]; stop {
			continue
		}
		if utf8.RuneCountInString(token) <= 2 || !isNameToken(token) {
			continue
		}
		return capitalize(token), true
	}
	return "", false
}

// MaskSender hides all but the last four characters of a sender identifier.
func MaskSender(id string) string {
	runes := []rune(id)
	if len(runes) <= 4 {
		return id
	}
	masked := make([]rune, len(runes))
	for i, r := range runes {
		if i < len(runes)-4 {
			masked[i] = '*'
			continue
		}
		masked[i] = r
	}
	return string(masked)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isNameToken(token string) bool {
	for _, r := range token {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if strings.ContainsRune(nameExtraLetters, r) {
			continue
		}
		return false
	}
	return true
}

func capitalize(token string) string {
	r, size := utf8.DecodeRuneInString(token)
	if r == utf8.RuneError {
		return token
	}
	return string(unicode.ToUpper(r)) + token[size:]
}

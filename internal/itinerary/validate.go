package itinerary

import (
	"fmt"
	"strings"
)

type VerdictKind int

const (
	VerdictOK VerdictKind = iota
	VerdictFix
)

// Verdict is either OK or a FIX carrying exactly one correction instruction.
type Verdict struct {
	Kind        VerdictKind
	Instruction string
}

func OK() Verdict {
	return Verdict{Kind: VerdictOK}
}

func Fix(instruction string) Verdict {
	return Verdict{Kind: VerdictFix, Instruction: instruction}
}

func (v Verdict) IsOK() bool {
	return v.Kind == VerdictOK
}

func (v Verdict) String() string {
	if v.IsOK() {
		return "OK"
	}
	return "FIX: " + v.Instruction
}

const (
	missingPlacesInstruction    = "Add a final section 'Places Used:' with bullet list of ALL places used (only allowed list)."
	disallowedPlacesInstruction = "Replace non-allowed place names in itinerary and Places Used with the closest allowed places."
	controlTokenInstruction     = "Return only the itinerary text starting at Day 1, without any OK or FIX: line."
)

func dayCountInstruction(days int) string {
	return fmt.Sprintf("Itinerary must contain exactly Day 1 through Day %d with YYYY-MM-DD (no missing days).", days)
}

// Validate applies the day-count, Places Used presence and allowed-name checks
// in that order and reports the first failure.
func Validate(text string, allowed []string, requiredDays int) Verdict {
	return ValidateDraft(Parse(text), allowed, requiredDays)
}

// ValidateReply is Validate for raw model output. A reply that is itself a
// control token never passes, whatever follows the token.
func ValidateReply(text string, allowed []string, requiredDays int) Verdict {
	if IsControlToken(text) {
		return Fix(controlTokenInstruction)
	}
	return Validate(text, allowed, requiredDays)
}

func ValidateDraft(draft *Draft, allowed []string, requiredDays int) Verdict {
	if len(draft.Days) != requiredDays {
		return Fix(dayCountInstruction(requiredDays))
	}

	if !draft.HasPlacesSection || len(draft.PlacesUsed) == 0 {
		return Fix(missingPlacesInstruction)
	}

	if len(DisallowedPlaces(draft.PlacesUsed, allowed)) > 0 {
		return Fix(disallowedPlacesInstruction)
	}

	return OK()
}

// DisallowedPlaces returns the entries of used that are not in allowed, using
// trimmed case-insensitive comparison.
func DisallowedPlaces(used, allowed []string) []string {
	set := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		set[normalizeName(name)] = true
	}

	var bad []string
	for _, name := range used {
		if !set[normalizeName(name)] {
			bad = append(bad, name)
		}
	}
	return bad
}

// IsControlToken reports whether a model reply is a validator token rather
// than itinerary text. Empty replies count as control tokens.
func IsControlToken(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if strings.EqualFold(trimmed, "OK") {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(trimmed), "FIX:")
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package handle

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Violation identifies which format rule a handle broke.
type Violation string

const (
	ViolationNone                 Violation = ""
	ViolationTooShort             Violation = "tooShort"
	ViolationTooLong              Violation = "tooLong"
	ViolationInvalidChars         Violation = "invalidChars"
	ViolationConsecutivePeriods   Violation = "consecutivePeriods"
	ViolationStartsWithUnderscore Violation = "startsWithUnderscore"
	ViolationAllNumbers           Violation = "allNumbers"
	ViolationReserved             Violation = "reserved"
)

const (
	MinLength = 3
	MaxLength = 30
)

var reserved = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"support":   {},
	"help":      {},
	"moderator": {},
	"system":    {},
	"api":       {},
	"about":     {},
	"settings":  {},
	"official":  {},
}

var violationMessages = map[Violation]string{
	ViolationTooShort:             fmt.Sprintf("handle must be at least %d characters", MinLength),
	ViolationTooLong:              fmt.Sprintf("handle must be at most %d characters", MaxLength),
	ViolationInvalidChars:         "handle may only contain letters, numbers, periods, and underscores",
	ViolationConsecutivePeriods:   "handle may not contain consecutive periods",
	ViolationStartsWithUnderscore: "handle may not start with an underscore",
	ViolationAllNumbers:           "handle must contain at least one letter",
	ViolationReserved:             "this handle is reserved",
}

// Message renders a violation as a user-displayable string.
func (v Violation) Message() string {
	if msg, ok := violationMessages[v]; ok {
		return msg
	}
	return "invalid handle"
}

// Validate checks a handle against the format rules. Length checks run
// first and take precedence over character-set checks.
func Validate(h string) Violation {
	if len(h) < MinLength {
		return ViolationTooShort
	}
	if len(h) > MaxLength {
		return ViolationTooLong
	}

	hasLetter := false
	for _, r := range h {
		switch {
		case unicode.IsLetter(r) && r < 128:
			hasLetter = true
		case r >= '0' && r <= '9', r == '.', r == '_':
		default:
			return ViolationInvalidChars
		}
	}
	if strings.Contains(h, "..") {
		return ViolationConsecutivePeriods
	}
	if strings.HasPrefix(h, "_") {
		return ViolationStartsWithUnderscore
	}
	if !hasLetter {
		return ViolationAllNumbers
	}
	if _, ok := reserved[strings.ToLower(h)]; ok {
		return ViolationReserved
	}
	return ViolationNone
}

// IsReserved reports whether the handle is on the reserved list.
func IsReserved(h string) bool {
	_, ok := reserved[strings.ToLower(h)]
	return ok
}

// SuggestionCount is how many alternatives Suggest aims to produce.
const SuggestionCount = 5

// Suggest generates alternative handles for a taken or reserved base:
// numeric suffixes, an underscore suffix, the current year, and "123",
// topping up with further numeric suffixes. Candidates that would break
// the format rules (typically by exceeding the length cap) are skipped.
// Availability filtering is the caller's concern.
func Suggest(base string, now time.Time) []string {
	base = strings.ToLower(strings.TrimSpace(base))

	candidates := []string{
		base + "_",
		base + "123",
		fmt.Sprintf("%s%d", base, now.Year()),
	}
	for i := 1; len(candidates) < SuggestionCount*3; i++ {
		candidates = append(candidates, fmt.Sprintf("%s%d", base, i))
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if Validate(c) != ViolationNone {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

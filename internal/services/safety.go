package services

import (
	"regexp"
	"strings"
)

// SafeFallbackReply is the fixed response used whenever restricted content
// blocks an input or survives output salvage. It must itself pass the
// battery.
const SafeFallbackReply = "I can share general information about our services, " +
	"but for specific concerns our team will be happy to help you directly. " +
	"Is there anything else I can do for you? 💆"

// InputVerdict is the result of filtering inbound customer text.
type InputVerdict struct {
	Allowed      bool
	BlockedTerms []string
}

// OutputVerdict is the result of filtering generated text. When Safe is
// false Filtered holds the fixed safe response; otherwise Filtered holds the
// (possibly substituted) deliverable text.
type OutputVerdict struct {
	Safe         bool
	Substituted  bool
	Filtered     string
	BlockedTerms []string
}

// restrictedCategory is one battery entry. Patterns match against the
// normalized copy of the text.
type restrictedCategory struct {
	name     string
	patterns []*regexp.Regexp
}

func mustPatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// The fixed battery. Order is stable so BlockedTerms is deterministic.
var restrictedBattery = []restrictedCategory{
	{
		name: "regulatory_claims",
		patterns: mustPatterns(
			`\bfda[ -]?approved\b`,
			`\banvisa[ -]?approved\b`,
			`\bclinically proven\b`,
			`\bmedical[ -]?grade\b`,
			`\bdermatologist[ -]?approved\b`,
		),
	},
	{
		name: "medical_claims",
		patterns: mustPatterns(
			`\bcures?\b`,
			`\bheals?\b`,
			`\btreats? (?:acne|eczema|psoriasis|dermatitis|alopecia|rosacea|infections?)\b`,
			`\bregrows? hair\b`,
			`\bprescription\b`,
			`\bbotox (?:fixes|repairs|eliminates)\b`,
		),
	},
	{
		name: "miracle_promises",
		patterns: mustPatterns(
			`\bmiracle\b`,
			`\bguaranteed?\b`,
			`\b100% (?:effective|results|safe)\b`,
			`\bpermanent results?\b`,
			`\bnever fails?\b`,
			`\binstant(?:ly)? (?:fixes|removes|erases)\b`,
		),
	},
	{
		name: "offensive_language",
		patterns: mustPatterns(
			`\bfuck\w*\b`,
			`\bshit\w*\b`,
			`\basshole\b`,
			`\bbitch\b`,
			`\bbastard\b`,
		),
	},
}

// homoglyphFold maps common substitutions used to sneak terms past keyword
// filters back onto their ASCII letters before re-scanning.
var homoglyphFold = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"@", "a",
	"$", "s",
	"а", "a", // Cyrillic а
	"е", "e", // Cyrillic е
	"о", "o", // Cyrillic о
	"с", "c", // Cyrillic с
	"р", "p", // Cyrillic р
)

// separatorPadding strips "f.r.e.e"-style padding between letters.
var separatorPadding = regexp.MustCompile(`(?i)\b(?:[a-z][.\-_*]){2,}[a-z]\b`)

func normalizeForScan(text string) string {
	lowered := strings.ToLower(text)
	folded := homoglyphFold.Replace(lowered)
	folded = separatorPadding.ReplaceAllStringFunc(folded, func(padded string) string {
		return strings.Map(func(r rune) rune {
			switch r {
			case '.', '-', '_', '*':
				return -1
			}
			return r
		}, padded)
	})
	return folded
}

// scanBattery returns the matched terms per battery category, scanning both
// the plain lower-cased text and the homoglyph-folded copy. A term that only
// matches after folding is a bypass attempt and is reported as such.
func scanBattery(text string) []string {
	lowered := strings.ToLower(text)
	folded := normalizeForScan(text)

	var blocked []string
	seen := make(map[string]bool)
	for _, cat := range restrictedBattery {
		for _, p := range cat.patterns {
			if m := p.FindString(lowered); m != "" {
				if !seen[m] {
					seen[m] = true
					blocked = append(blocked, m)
				}
				continue
			}
			if m := p.FindString(folded); m != "" {
				key := m + " (bypass)"
				if !seen[key] {
					seen[key] = true
					blocked = append(blocked, key)
				}
			}
		}
	}
	return blocked
}

// FilterInput runs the battery over raw inbound text. Any match blocks the
// message from ever reaching the generator.
func FilterInput(text string) InputVerdict {
	blocked := scanBattery(text)
	return InputVerdict{
		Allowed:      len(blocked) == 0,
		BlockedTerms: blocked,
	}
}

// safePhrases is the curated salvage map applied to generated output before
// the re-scan. Substitution first maximizes usefulness; the re-scan is the
// hard backstop.
var safePhrases = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bcures?\b`), "may improve the appearance of"},
	{regexp.MustCompile(`(?i)\bheals?\b`), "may help with"},
	{regexp.MustCompile(`(?i)\bguaranteed?\b`), "designed"},
	{regexp.MustCompile(`(?i)\bmiracle\b`), "popular"},
	{regexp.MustCompile(`(?i)\bpermanent results?\b`), "long-lasting results"},
	{regexp.MustCompile(`(?i)\bclinically proven\b`), "well regarded"},
	{regexp.MustCompile(`(?i)\b100% (?:effective|results|safe)\b`), "very well reviewed"},
}

// FilterOutput is the two-phase output filter: substitute via the safe-phrase
// map, then re-scan with the same battery; if restricted content remains the
// text is discarded entirely for the fixed safe response. Wraps every call to
// the external generator; never bypassed.
func FilterOutput(text string) OutputVerdict {
	filtered := text
	substituted := false
	for _, sp := range safePhrases {
		if sp.pattern.MatchString(filtered) {
			filtered = sp.pattern.ReplaceAllString(filtered, sp.replacement)
			substituted = true
		}
	}

	if blocked := scanBattery(filtered); len(blocked) > 0 {
		return OutputVerdict{
			Safe:         false,
			Filtered:     SafeFallbackReply,
			BlockedTerms: blocked,
		}
	}

	return OutputVerdict{
		Safe:        true,
		Substituted: substituted,
		Filtered:    filtered,
	}
}

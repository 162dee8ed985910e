package services

import (
	"strings"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// SideEffect signals the orchestrator that a flow turn wants an external
// mutation or side-trip. The pure transition functions never perform the
// effect themselves.
type SideEffect string

const (
	SideEffectNone                SideEffect = ""
	SideEffectCommitBooking       SideEffect = "commit_booking"
	SideEffectCommitCancel        SideEffect = "commit_cancel"
	SideEffectCancelAndReschedule SideEffect = "cancel_and_reschedule"
	SideEffectInfoDetour          SideEffect = "info_detour"
)

// FlowResult is the outcome of one pure flow transition: the next state, the
// draft reply, and an optional side-effect signal.
type FlowResult struct {
	Next   models.TurnStateData
	Reply  string
	Signal SideEffect
}

// matchService fuzzy-matches free text against the catalog: normalized
// containment both ways across names and aliases, longest match wins.
func matchService(catalog *models.Catalog, text string) *models.SalonService {
	input := normalizeText(text)
	if input == "" {
		return nil
	}

	var best *models.SalonService
	bestLen := 0
	for _, svc := range catalog.Services {
		candidates := []string{svc.Name}
		if svc.Aliases != "" {
			candidates = append(candidates, strings.Split(svc.Aliases, ",")...)
		}
		for _, cand := range candidates {
			name := normalizeText(cand)
			if name == "" {
				continue
			}
			if strings.Contains(input, name) || strings.Contains(name, input) {
				if len(name) > bestLen {
					best = svc
					bestLen = len(name)
				}
			}
		}
	}
	return best
}

// matchProfessional matches a requested staff name against the catalog.
func matchProfessional(catalog *models.Catalog, text string) *models.Professional {
	input := normalizeText(text)
	if input == "" {
		return nil
	}
	for _, pro := range catalog.Professionals {
		name := normalizeText(pro.Name)
		if name == "" {
			continue
		}
		if strings.Contains(input, name) || strings.Contains(name, input) {
			return pro
		}
		// First-name match: "with ana" should find "Ana Souza".
		if first := strings.Fields(name); len(first) > 0 && strings.Contains(input, first[0]) {
			return pro
		}
	}
	return nil
}

// matchProduct matches free text against retail products.
func matchProduct(catalog *models.Catalog, text string) *models.Product {
	input := normalizeText(text)
	if input == "" {
		return nil
	}
	var best *models.Product
	bestLen := 0
	for _, p := range catalog.Products {
		name := normalizeText(p.Name)
		if name == "" {
			continue
		}
		if strings.Contains(input, name) || strings.Contains(name, input) {
			if len(name) > bestLen {
				best = p
				bestLen = len(name)
			}
			continue
		}
		// Customers rarely say the full retail name; any distinctive word
		// of it is enough ("shampoo" finds "Argan Oil Shampoo").
		for _, word := range strings.Fields(name) {
			if len(word) > 3 && strings.Contains(input, word) && len(word) > bestLen {
				best = p
				bestLen = len(word)
			}
		}
	}
	return best
}

// anyProfessional reports whether the customer declined to pick a specific
// staff member.
func anyProfessional(text string) bool {
	msg := normalizeText(text)
	switch msg {
	case "any", "no", "skip":
		return true
	}
	return stringsContainsAny(msg, "anyone", "anybody", "whoever", "no preference",
		"doesn't matter", "dont care", "don't care", "any professional")
}

package services

import (
	"fmt"
	"strings"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// AnswerInfo resolves informational intents from the catalog snapshot
// without calling the external generator. Returns ok=false when the catalog
// has no deterministic answer.
func AnswerInfo(intent Intent, text string, catalog *models.Catalog) (string, bool) {
	switch intent {
	case IntentPriceInfo:
		if svc := matchService(catalog, text); svc != nil {
			return fmt.Sprintf("*%s* is $%.2f and takes about %d minutes. 💇", svc.Name, svc.Price, svc.DurationMin), true
		}
		if p := matchProduct(catalog, text); p != nil {
			return fmt.Sprintf("*%s* is $%.2f.", p.Name, p.Price), true
		}
		return priceList(catalog), true

	case IntentHoursInfo:
		return fmt.Sprintf("We're open %s. 🕘", catalog.BusinessHours), true

	case IntentListServices:
		return serviceMenu(catalog), true

	case IntentServiceInfo:
		if svc := matchService(catalog, text); svc != nil {
			desc := svc.Description
			if desc == "" {
				desc = "One of our most requested services."
			}
			return fmt.Sprintf("*%s* — %s\n💲 $%.2f · ⏱ about %d minutes", svc.Name, desc, svc.Price, svc.DurationMin), true
		}
		return "", false

	case IntentProductInfo:
		if p := matchProduct(catalog, text); p != nil {
			stock := "in stock"
			if !p.InStock {
				stock = "currently out of stock"
			}
			desc := p.Description
			if desc == "" {
				desc = "Available at the salon."
			}
			return fmt.Sprintf("*%s* — %s\n💲 $%.2f (%s)", p.Name, desc, p.Price, stock), true
		}
		return "", false

	case IntentPackageInfo:
		if len(catalog.Packages) == 0 {
			return "We don't have packages available at the moment, but our team can put something together for you.", true
		}
		var b strings.Builder
		b.WriteString("🎁 *Our packages:*\n")
		for _, pkg := range catalog.Packages {
			fmt.Fprintf(&b, "• *%s* — %d sessions for $%.2f\n", pkg.Name, pkg.Sessions, pkg.Price)
		}
		b.WriteString("\nWant me to book a session?")
		return b.String(), true

	case IntentPackageQuery:
		return "I'll ask our team to check your package balance and get back to you shortly. 🎁", true
	}

	return "", false
}

func priceList(catalog *models.Catalog) string {
	if len(catalog.Services) == 0 {
		return "Our team can send you the full price list."
	}
	var b strings.Builder
	b.WriteString("💲 *Our prices:*\n")
	for _, svc := range catalog.Services {
		fmt.Fprintf(&b, "• %s — $%.2f\n", svc.Name, svc.Price)
	}
	return strings.TrimRight(b.String(), "\n")
}

func serviceMenu(catalog *models.Catalog) string {
	if len(catalog.Services) == 0 {
		return "Our team can send you the full service menu."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✨ *%s services:*\n", catalog.SalonName)
	for _, svc := range catalog.Services {
		fmt.Fprintf(&b, "• *%s* — $%.2f (%d min)\n", svc.Name, svc.Price, svc.DurationMin)
	}
	b.WriteString("\nReply with a service name to book it! 💇")
	return b.String()
}

// generatorSystemPrompt builds the per-turn system context for the external
// generator from the catalog snapshot.
func generatorSystemPrompt(catalog *models.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the WhatsApp assistant for %s, a beauty salon. ", catalog.SalonName)
	b.WriteString("Be warm and brief. Only discuss the salon, its services, products and appointments. ")
	b.WriteString("Never make medical claims, never promise results, never mention regulatory approval. ")
	fmt.Fprintf(&b, "Opening hours: %s. ", catalog.BusinessHours)
	if len(catalog.Services) > 0 {
		names := make([]string, 0, len(catalog.Services))
		for _, svc := range catalog.Services {
			names = append(names, fmt.Sprintf("%s ($%.2f)", svc.Name, svc.Price))
		}
		b.WriteString("Services: " + strings.Join(names, ", ") + ". ")
	}
	b.WriteString("If the customer wants to book, reschedule or cancel, tell them you can do that right here in the chat.")
	return b.String()
}

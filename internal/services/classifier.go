package services

import "strings"

// Intent is the closed set of message intents the assistant routes on.
type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentSchedule           Intent = "schedule"
	IntentReschedule         Intent = "reschedule"
	IntentCancel             Intent = "cancel"
	IntentProductInfo        Intent = "product_info"
	IntentServiceInfo        Intent = "service_info"
	IntentPriceInfo          Intent = "price_info"
	IntentHoursInfo          Intent = "hours_info"
	IntentListServices       Intent = "list_services"
	IntentAppointmentConfirm Intent = "appointment_confirm"
	IntentAppointmentDecline Intent = "appointment_decline"
	IntentPackageQuery       Intent = "package_query"
	IntentPackageInfo        Intent = "package_info"
	IntentGeneral            Intent = "general"
)

// Short confirmations and declines are matched as whole messages so a longer
// sentence containing "no" or "ok" is not swallowed by them.
var confirmWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "confirmed": true,
	"sounds good": true, "that works": true, "perfect": true, "y": true, "1": true,
}

var declineWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "n": true, "2": true,
	"no thanks": true, "not really": true, "not now": true,
}

var greetingWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "hiya": true, "yo": true,
	"good morning": true, "good afternoon": true, "good evening": true,
	"hi there": true, "hello there": true,
}

// ClassifyIntent maps message text to an Intent. Rules run in fixed
// precedence: short confirm/decline patterns first, then domain keywords
// (reschedule before cancel and schedule, price before product), greeting
// last and only when the whole message is a bare greeting. Deterministic,
// no I/O; ties resolve by declared order.
func ClassifyIntent(text string) Intent {
	msg := normalizeText(text)
	if msg == "" {
		return IntentGeneral
	}

	if confirmWords[msg] {
		return IntentAppointmentConfirm
	}
	if declineWords[msg] {
		return IntentAppointmentDecline
	}

	has := func(keywords ...string) bool {
		for _, kw := range keywords {
			if strings.Contains(msg, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case has("reschedule", "move my appointment", "change my appointment", "another day", "different time", "push it to"):
		return IntentReschedule

	case has("cancel", "call off", "can't make it", "cannot make it", "won't make it"):
		return IntentCancel

	case has("book", "schedule", "appointment", "make an appointment", "reserve", "free slot", "available slot", "i want a", "i'd like a", "i would like a"):
		return IntentSchedule

	// Price before product: "how much is the shampoo" is a price question.
	case has("how much", "price", "cost", "what do you charge", "charges"):
		return IntentPriceInfo

	case has("what time do you", "opening hours", "business hours", "are you open", "when do you open", "when do you close", "open on", "open today", "open tomorrow"):
		return IntentHoursInfo

	case has("what services", "which services", "list of services", "services do you", "service menu", "everything you offer", "what do you offer"):
		return IntentListServices

	case has("my package", "sessions left", "remaining sessions", "package balance"):
		return IntentPackageQuery

	case has("package", "packages", "bundle", "combo deal"):
		return IntentPackageInfo

	case has("product", "shampoo", "conditioner", "serum", "do you sell", "in stock"):
		return IntentProductInfo

	case has("what is a", "what's a", "tell me about", "how long does", "what does it include", "does it include"):
		return IntentServiceInfo
	}

	// Greeting only when the message is purely a greeting; "hi, how much is
	// a haircut?" must not land here.
	if greetingWords[msg] {
		return IntentGreeting
	}

	return IntentGeneral
}

// infoIntent reports whether an intent is an informational side-trip that an
// active skill should answer without abandoning its slots.
func infoIntent(intent Intent) bool {
	switch intent {
	case IntentProductInfo, IntentServiceInfo, IntentPriceInfo, IntentHoursInfo,
		IntentListServices, IntentPackageQuery, IntentPackageInfo:
		return true
	}
	return false
}

// normalizeText lower-cases, trims and strips trailing punctuation so the
// containment rules and whole-message sets match consistently.
func normalizeText(text string) string {
	msg := strings.ToLower(strings.TrimSpace(text))
	msg = strings.Trim(msg, "!?.,;: ")
	return strings.Join(strings.Fields(msg), " ")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"
)

// Control tokens typed by salon staff inside the customer thread. They are
// consumed here and never forwarded to the customer.
const (
	TokenHumanTakeover = "#human"
	TokenAIResume      = "#ai"
)

// DefaultReplyDedupWindow is how long an identical outbound reply is
// suppressed. Overridable via REPLY_DEDUP_WINDOW_MS.
const DefaultReplyDedupWindow = 30 * time.Second

const generatorTimeout = 20 * time.Second

// TurnOutcome is what one processed turn tells the transport layer.
type TurnOutcome struct {
	Reply         string
	ShouldSend    bool
	StatusChanged bool
	NewStatus     string
}

// Assistant sequences one customer turn end to end: control tokens, burst
// coalescing, skill routing, intent dispatch, generation, safety filtering,
// reply dedup and persistence.
type Assistant struct {
	store       storage.Store
	coalescer   *Coalescer
	generator   Generator
	commits     *CommitCoordinator
	dedupWindow time.Duration
	now         func() time.Time
}

// NewAssistant wires the orchestrator. The dedup window comes from
// REPLY_DEDUP_WINDOW_MS or the default.
func NewAssistant(store storage.Store, coalescer *Coalescer, generator Generator, commits *CommitCoordinator) *Assistant {
	window := DefaultReplyDedupWindow
	if raw := os.Getenv("REPLY_DEDUP_WINDOW_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			log.Printf("Invalid REPLY_DEDUP_WINDOW_MS %q, using default %v", raw, DefaultReplyDedupWindow)
		} else {
			window = time.Duration(ms) * time.Millisecond
		}
	}
	return &Assistant{
		store:       store,
		coalescer:   coalescer,
		generator:   generator,
		commits:     commits,
		dedupWindow: window,
		now:         time.Now,
	}
}

// turnContext carries the loaded per-turn facts past the coalescer.
type turnContext struct {
	conv    *models.Conversation
	state   models.TurnStateData
	text    string
	intent  Intent
	catalog *models.Catalog
	now     time.Time
}

// turnResult is the resolved turn before persistence and the dedup gate.
type turnResult struct {
	reply            string
	shouldSend       bool
	next             models.TurnStateData
	handoff          bool
	customerOutcome  string
	assistantOutcome string
}

// ProcessTurn handles one inbound customer message and returns what (if
// anything) should go back out. Deferred coalescer submissions return an
// empty outcome; the burst owner carries the merged turn.
func (a *Assistant) ProcessTurn(tenantID, phone, displayName, text string) (*TurnOutcome, error) {
	conv, err := a.openConversation(tenantID, phone, displayName)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(text)) {
	case TokenHumanTakeover:
		if err := a.store.UpdateConversationStatus(conv.ID, models.ConversationStatusHuman); err != nil {
			return nil, fmt.Errorf("human takeover: %w", err)
		}
		log.Printf("🤝 Human takeover for conversation %s", conv.ID)
		return &TurnOutcome{StatusChanged: true, NewStatus: models.ConversationStatusHuman}, nil

	case TokenAIResume:
		if err := a.store.UpdateConversationStatus(conv.ID, models.ConversationStatusAI); err != nil {
			return nil, fmt.Errorf("assistant resume: %w", err)
		}
		if _, err := a.store.UpdateTurnState(conv.ID, func(d *models.TurnStateData) error {
			d.HandoffNotified = false
			d.FailureCount = 0
			d.LastApologyAt = nil
			return nil
		}); err != nil {
			return nil, fmt.Errorf("assistant resume: %w", err)
		}
		log.Printf("🤖 Assistant resumed for conversation %s", conv.ID)
		return &TurnOutcome{StatusChanged: true, NewStatus: models.ConversationStatusAI}, nil
	}

	if conv.Status == models.ConversationStatusHuman {
		// A human is driving; the assistant only keeps the log current.
		a.logMessage(&models.Message{ConversationID: conv.ID, Role: models.RoleCustomer, Body: text, FilterOutcome: models.FilterClean})
		if err := a.store.TouchConversation(conv.ID); err != nil {
			log.Printf("⚠️ Touch conversation %s: %v", conv.ID, err)
		}
		return &TurnOutcome{}, nil
	}

	burst := a.coalescer.Submit(conv.ID, text)
	if burst.Deferred {
		return &TurnOutcome{}, nil
	}
	merged := strings.TrimSpace(burst.MergedText)
	if merged == "" {
		return &TurnOutcome{}, nil
	}

	state, err := a.store.GetTurnStateData(conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load turn state: %w", err)
	}
	catalog, err := a.store.GetCatalog(tenantID)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	tc := &turnContext{
		conv:    conv,
		state:   *state,
		text:    merged,
		intent:  ClassifyIntent(merged),
		catalog: catalog,
		now:     a.now(),
	}

	var res turnResult
	if tc.state.SkillActive() {
		res = a.continueSkill(tc)
	} else {
		res = a.dispatchIntent(tc)
	}

	return a.finishTurn(tc, res)
}

// continueSkill routes the turn to the active flow before any intent
// classification, so mid-flow answers like "tomorrow" never get
// misclassified as top-level requests.
func (a *Assistant) continueSkill(tc *turnContext) turnResult {
	var fr FlowResult
	switch tc.state.ActiveSkill {
	case models.SkillScheduling:
		fr = HandleSchedulingTurn(tc.state, tc.text, tc.catalog, tc.now)
	case models.SkillCancellation:
		fr = HandleCancellationTurn(tc.state, tc.text)
	case models.SkillChannelChoice:
		fr = HandleChannelChoiceTurn(tc.state, tc.text)
	default:
		log.Printf("⚠️ Unknown active skill %q in conversation %s, resetting", tc.state.ActiveSkill, tc.conv.ID)
		tc.state.Reset()
		return a.dispatchIntent(tc)
	}
	return a.applyFlow(tc, fr)
}

// applyFlow executes the side effect (if any) a flow transition signaled and
// shapes the final reply.
func (a *Assistant) applyFlow(tc *turnContext, fr FlowResult) turnResult {
	switch fr.Signal {
	case SideEffectInfoDetour:
		// Answer the question without disturbing the flow, then steer back.
		answer, ok := AnswerInfo(tc.intent, tc.text, tc.catalog)
		if !ok {
			answer = "Our team can tell you more about that at the salon."
		}
		return turnResult{
			reply:      answer + "\n\n" + resumePrompt(fr.Next),
			shouldSend: true,
			next:       fr.Next,
		}

	case SideEffectCommitBooking:
		next := fr.Next
		reply, err := a.commits.CommitBooking(tc.conv, &next)
		if err != nil {
			log.Printf("❌ Booking commit failed for conversation %s: %v", tc.conv.ID, err)
			return a.escalate(tc, next, reply)
		}
		RecordSuccess(&next)
		log.Printf("✅ Booking committed for conversation %s", tc.conv.ID)
		return turnResult{reply: reply, shouldSend: true, next: next}

	case SideEffectCommitCancel:
		next := fr.Next
		reply, err := a.commits.CommitCancellation(tc.conv, &next)
		if err != nil {
			log.Printf("❌ Cancellation commit failed for conversation %s: %v", tc.conv.ID, err)
			return a.escalate(tc, next, reply)
		}
		RecordSuccess(&next)
		if next.Commit == nil || next.Commit.Kind != "cancellation" {
			// The appointment was already gone, so there is no freed slot
			// to follow up about.
			next.Reset()
			return turnResult{reply: reply, shouldSend: true, next: next}
		}
		// The confirmation asks how to notify about freed-up slots.
		next.ActiveSkill = models.SkillChannelChoice
		next.Step = models.StepAwaitingChannel
		next.Cancellation = nil
		log.Printf("✅ Cancellation committed for conversation %s", tc.conv.ID)
		return turnResult{reply: reply, shouldSend: true, next: next}

	case SideEffectCancelAndReschedule:
		next := fr.Next
		if _, err := a.commits.CommitCancellation(tc.conv, &next); err != nil {
			log.Printf("❌ Reschedule cancel failed for conversation %s: %v", tc.conv.ID, err)
			return a.escalate(tc, next, StillProcessingReply)
		}
		RecordSuccess(&next)
		next.Reset()
		start := StartSchedulingFlow(next, "", tc.catalog, tc.now)
		log.Printf("🔄 Reschedule started for conversation %s", tc.conv.ID)
		return turnResult{
			reply:      "✅ Your appointment is canceled — let's find you a new time! 🔄\n\n" + start.Reply,
			shouldSend: true,
			next:       start.Next,
		}

	default:
		return turnResult{reply: fr.Reply, shouldSend: fr.Reply != "", next: fr.Next}
	}
}

// intentHandler resolves one top-level intent. handled=false falls through
// to the generator.
type intentHandler func(a *Assistant, tc *turnContext) (FlowResult, bool)

var intentHandlers = map[Intent]intentHandler{
	IntentGreeting:           (*Assistant).handleGreeting,
	IntentSchedule:           (*Assistant).handleSchedule,
	IntentCancel:             (*Assistant).handleCancel,
	IntentReschedule:         (*Assistant).handleReschedule,
	IntentAppointmentConfirm: (*Assistant).handleLooseConfirm,
	IntentAppointmentDecline: (*Assistant).handleLooseDecline,
	IntentPriceInfo:          (*Assistant).handleInfo,
	IntentHoursInfo:          (*Assistant).handleInfo,
	IntentListServices:       (*Assistant).handleInfo,
	IntentServiceInfo:        (*Assistant).handleInfo,
	IntentProductInfo:        (*Assistant).handleInfo,
	IntentPackageInfo:        (*Assistant).handleInfo,
	IntentPackageQuery:       (*Assistant).handleInfo,
}

// dispatchIntent resolves a top-level turn: deterministic handler first,
// external generator only when nothing structured matched.
func (a *Assistant) dispatchIntent(tc *turnContext) turnResult {
	if handler, ok := intentHandlers[tc.intent]; ok {
		if fr, handled := handler(a, tc); handled {
			return a.applyFlow(tc, fr)
		}
	}
	return a.generateReply(tc)
}

func (a *Assistant) handleGreeting(tc *turnContext) (FlowResult, bool) {
	next := tc.state
	if next.GreetingShown {
		return FlowResult{
			Next:  next,
			Reply: "Hi again! How can I help — booking, prices, or a question about our services? 😊",
		}, true
	}
	next.GreetingShown = true

	who := ""
	if fields := strings.Fields(tc.conv.DisplayName); len(fields) > 0 {
		who = " " + fields[0]
	}
	reply := fmt.Sprintf(`Hi%s! Welcome to *%s* 💖

I can help you with:
💇 Booking an appointment
💲 Prices and services
🕘 Opening hours

What would you like to do?`, who, tc.catalog.SalonName)
	return FlowResult{Next: next, Reply: reply}, true
}

func (a *Assistant) handleSchedule(tc *turnContext) (FlowResult, bool) {
	return StartSchedulingFlow(tc.state, tc.text, tc.catalog, tc.now), true
}

func (a *Assistant) handleCancel(tc *turnContext) (FlowResult, bool) {
	appt, err := a.store.FindUpcomingAppointment(tc.conv.TenantID, tc.conv.Phone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("⚠️ Upcoming appointment lookup for %s: %v", tc.conv.ID, err)
	}
	return StartCancellationFlow(tc.state, appt), true
}

// handleReschedule enters the cancellation skill directly at the retention
// step: the customer already said they want to move, so the flow just needs
// the reschedule-or-cancel decision.
func (a *Assistant) handleReschedule(tc *turnContext) (FlowResult, bool) {
	appt, err := a.store.FindUpcomingAppointment(tc.conv.TenantID, tc.conv.Phone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("⚠️ Upcoming appointment lookup for %s: %v", tc.conv.ID, err)
	}
	if appt == nil {
		return StartCancellationFlow(tc.state, nil), true
	}

	next := tc.state
	next.ActiveSkill = models.SkillCancellation
	next.Step = models.StepAwaitingRescheduleOffer
	next.Scheduling = nil
	next.Commit = nil
	next.Cancellation = &models.CancellationSlots{AppointmentID: appt.ID, OfferedRetain: true}

	return FlowResult{
		Next: next,
		Reply: fmt.Sprintf(`You have *%s* on %s at %s.

Reply *RESCHEDULE* to pick a new time, or *CANCEL* to cancel it.`,
			appt.ServiceName, friendlyDate(appt.StartsAt.Format("2006-01-02")), appt.StartsAt.Format("3:04 PM")),
	}, true
}

func (a *Assistant) handleLooseConfirm(tc *turnContext) (FlowResult, bool) {
	return FlowResult{
		Next:  tc.state,
		Reply: "Great! 😊 Would you like to book an appointment, or hear about our services?",
	}, true
}

func (a *Assistant) handleLooseDecline(tc *turnContext) (FlowResult, bool) {
	return FlowResult{
		Next:  tc.state,
		Reply: "No worries! I'm here whenever you need. ✨",
	}, true
}

func (a *Assistant) handleInfo(tc *turnContext) (FlowResult, bool) {
	answer, ok := AnswerInfo(tc.intent, tc.text, tc.catalog)
	if !ok {
		return FlowResult{}, false
	}
	return FlowResult{Next: tc.state, Reply: answer}, true
}

// generateReply is the open-ended path: inbound safety filter, external
// generation with recent history, outbound safety filter, escalation
// accounting around the collaborator call.
func (a *Assistant) generateReply(tc *turnContext) turnResult {
	next := tc.state

	if a.generator == nil {
		// No generator configured; stay useful with the structured menu.
		return turnResult{
			reply:      "I can help you book an appointment, check prices, or share our opening hours. What would you like? 😊",
			shouldSend: true,
			next:       next,
		}
	}

	verdict := FilterInput(tc.text)
	if !verdict.Allowed {
		log.Printf("🛡️ Blocked inbound message in conversation %s: %v", tc.conv.ID, verdict.BlockedTerms)
		return turnResult{
			reply:           SafeFallbackReply,
			shouldSend:      true,
			next:            next,
			customerOutcome: models.FilterBlocked,
		}
	}

	history, err := a.store.ListRecentMessages(tc.conv.ID, 10)
	if err != nil {
		log.Printf("⚠️ History load for conversation %s: %v", tc.conv.ID, err)
	}
	msgs := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Body})
	}

	ctx, cancel := context.WithTimeout(context.Background(), generatorTimeout)
	defer cancel()

	out, err := a.generator.Generate(ctx, generatorSystemPrompt(tc.catalog), msgs, tc.text)
	if err != nil {
		log.Printf("❌ Generator failure in conversation %s: %v", tc.conv.ID, err)
		return a.escalate(tc, next, "")
	}
	RecordSuccess(&next)

	ov := FilterOutput(out)
	outcome := models.FilterClean
	switch {
	case !ov.Safe:
		outcome = models.FilterReplaced
		log.Printf("🛡️ Replaced unsafe generated reply in conversation %s: %v", tc.conv.ID, ov.BlockedTerms)
	case ov.Substituted:
		outcome = models.FilterSubstituted
	}

	return turnResult{
		reply:            ov.Filtered,
		shouldSend:       true,
		next:             next,
		assistantOutcome: outcome,
	}
}

// escalate records one collaborator failure and decides the outbound
// behavior. A context-specific fallback reply, when provided, replaces the
// generic apology; the handoff notice always wins.
func (a *Assistant) escalate(tc *turnContext, next models.TurnStateData, fallbackReply string) turnResult {
	dec := RecordFailure(&next, tc.now)
	if dec.Handoff {
		return turnResult{reply: dec.Reply, shouldSend: dec.ShouldSend, next: next, handoff: true}
	}
	reply := dec.Reply
	if fallbackReply != "" {
		reply = fallbackReply
	}
	return turnResult{reply: reply, shouldSend: dec.ShouldSend && reply != "", next: next}
}

// finishTurn persists state and messages, runs the dedup gate, and applies a
// pending handoff.
func (a *Assistant) finishTurn(tc *turnContext, res turnResult) (*TurnOutcome, error) {
	// Commit markers were already persisted by the coordinator before any
	// success text existed; this write carries the rest of the turn.
	if _, err := a.store.UpdateTurnState(tc.conv.ID, func(d *models.TurnStateData) error {
		*d = res.next
		return nil
	}); err != nil {
		return nil, fmt.Errorf("persist turn state: %w", err)
	}

	outcome := &TurnOutcome{Reply: res.reply, ShouldSend: res.shouldSend && res.reply != ""}

	if outcome.ShouldSend {
		ok, err := a.store.TryRegisterReply(tc.conv.ID, res.reply, a.dedupWindow)
		if err != nil {
			return nil, fmt.Errorf("reply dedup gate: %w", err)
		}
		if !ok {
			log.Printf("🔁 Duplicate reply suppressed for conversation %s", tc.conv.ID)
			outcome.ShouldSend = false
		}
	}

	customerOutcome := res.customerOutcome
	if customerOutcome == "" {
		customerOutcome = models.FilterClean
	}
	a.logMessage(&models.Message{
		ConversationID: tc.conv.ID,
		Role:           models.RoleCustomer,
		Body:           tc.text,
		Intent:         string(tc.intent),
		FilterOutcome:  customerOutcome,
	})
	if outcome.ShouldSend {
		assistantOutcome := res.assistantOutcome
		if assistantOutcome == "" {
			assistantOutcome = models.FilterClean
		}
		a.logMessage(&models.Message{
			ConversationID: tc.conv.ID,
			Role:           models.RoleAssistant,
			Body:           res.reply,
			FilterOutcome:  assistantOutcome,
		})
	}
	if err := a.store.TouchConversation(tc.conv.ID); err != nil {
		log.Printf("⚠️ Touch conversation %s: %v", tc.conv.ID, err)
	}

	if res.handoff {
		if err := a.store.UpdateConversationStatus(tc.conv.ID, models.ConversationStatusHuman); err != nil {
			log.Printf("⚠️ Handoff status update for %s: %v", tc.conv.ID, err)
		} else {
			outcome.StatusChanged = true
			outcome.NewStatus = models.ConversationStatusHuman
			log.Printf("🤝 Escalated conversation %s to a human", tc.conv.ID)
		}
	}

	return outcome, nil
}

func (a *Assistant) openConversation(tenantID, phone, displayName string) (*models.Conversation, error) {
	conv, err := a.store.GetOpenConversation(tenantID, phone)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return a.store.CreateConversation(&models.Conversation{
		TenantID:    tenantID,
		Phone:       phone,
		DisplayName: displayName,
		Status:      models.ConversationStatusAI,
	})
}

func (a *Assistant) logMessage(msg *models.Message) {
	if _, err := a.store.AppendMessage(msg); err != nil {
		log.Printf("⚠️ Append message for conversation %s: %v", msg.ConversationID, err)
	}
}

// resumePrompt steers the customer back to the interrupted flow.
func resumePrompt(state models.TurnStateData) string {
	switch state.ActiveSkill {
	case models.SkillScheduling:
		return SchedulingResumePrompt(state)
	case models.SkillCancellation:
		if state.Step == models.StepAwaitingRescheduleOffer {
			return "Now, back to your appointment — reply *RESCHEDULE* to pick a new time, or *CANCEL* to really cancel."
		}
		return "Now, back to your appointment — reply *YES* to cancel it or *NO* to keep it."
	default:
		return "Anything else I can help with?"
	}
}

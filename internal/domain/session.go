/**
 * @description
 * This file defines the per-call dialogue state owned by the orchestrator:
 * the authentication stepper, the pending transfer awaiting confirmation,
 * and the bounded turn history used as context for the language classifiers.
 *
 * @notes
 * - A Session is keyed strictly by the telephony call identifier. State never
 *   outlives the call: the webhook resets authentication on call start and a
 *   background sweep evicts sessions that went idle.
 * - At most one PendingTransfer exists per session, and no transfer executes
 *   unless the session reached AuthStepAuthenticated.
 */

package domain

import "time"

// AuthStep is the position of a caller in the voice authentication sequence.
type AuthStep int

const (
	AuthStepName AuthStep = iota
	AuthStepIDSuffix
	AuthStepPIN
	AuthStepAuthenticated
)

// AuthState tracks progress and failed attempts for the current step.
type AuthState struct {
	Step           AuthStep
	FailedAttempts int
}

// Reset returns the authentication flow to its initial state. A fresh call
// must restart from the name step regardless of what the previous call did.
func (a *AuthState) Reset() {
	a.Step = AuthStepName
	a.FailedAttempts = 0
}

// ConfirmationStage is the position of a proposed transfer in the two-stage
// confirmation gate.
type ConfirmationStage int

const (
	StageAwaitingFirstConfirm ConfirmationStage = iota + 1
	StageAwaitingFinalConfirm
)

// PendingTransfer is a transfer that has been fully resolved (recipient and
// amount) but not yet executed. It is destroyed on execution, rejection, or
// when the caller ends the call; in the last case it must never execute.
type PendingTransfer struct {
	Amount        float64
	RecipientName string
	RecipientIBAN string
	Title         string
	Currency      string
	Stage         ConfirmationStage
}

// Speaker roles recorded in the turn history.
const (
	RoleCaller    = "caller"
	RoleAssistant = "assistant"
)

// Turn is one utterance in the conversation, by either party.
type Turn struct {
	Role string
	Text string
}

// Session is the full dialogue state of one ongoing call.
type Session struct {
	ID           string
	UserID       string
	Auth         AuthState
	Pending      *PendingTransfer
	History      []Turn
	LastActivity time.Time
}

// RememberExchange appends the caller utterance and the assistant reply to
// the history, dropping the oldest entries beyond cap. Order is preserved.
func (s *Session) RememberExchange(callerText, reply string, cap int) {
	s.History = append(s.History,
		Turn{Role: RoleCaller, Text: callerText},
		Turn{Role: RoleAssistant, Text: reply},
	)
	if cap > 0 && len(s.History) > cap {
		s.History = s.History[len(s.History)-cap:]
	}
}

/**
 * @description
 * Closed vocabularies for the language-understanding capabilities. The
 * classifiers are external, non-deterministic services; constraining their
 * output to these values (with a safe default on failure) keeps the dialogue
 * control flow deterministic and testable.
 */

package domain

// Intent is the topic-level classification of a caller utterance.
type Intent string

const (
	IntentMakeTransfer Intent = "make_transfer"
	IntentCheckBalance Intent = "check_balance"
	IntentShowHistory  Intent = "show_history"
	IntentOther        Intent = "other"

	// Auth-phase pseudo-intents, consumed by the webhook layer to shape the
	// telephony response for authentication turns.
	IntentAuthContinue Intent = "auth_continue"
	IntentAuthSuccess  Intent = "auth_success"
	IntentAuthFailed   Intent = "auth_failed"
)

// DialogAct is the coarse confirm/reject classification of a turn,
// independent of its topic.
type DialogAct string

const (
	DialogActConfirm DialogAct = "confirm"
	DialogActReject  DialogAct = "reject"
	DialogActEndCall DialogAct = "end_call"
	DialogActNone    DialogAct = "none"
)

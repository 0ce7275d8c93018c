/**
 * @description
 * The two-stage transfer confirmation gate. Once intent dispatch has parked
 * a fully-resolved transfer on the session, this state machine owns every
 * subsequent turn until the transfer is executed, rejected, or the call
 * ends. Two confirmations are required before money moves; ending the call
 * with a transfer pending must never execute it.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
	"github.com/hare32/Collabothon-AIHolics/internal/store"
	"github.com/hare32/Collabothon-AIHolics/pkg/rabbitmq"
)

// advanceConfirmation processes one turn while a transfer awaits
// confirmation. It returns the spoken reply and whether the call should end.
func (s *Service) advanceConfirmation(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) (string, bool) {
	pending := sess.Pending
	act := s.dialogAct(ctx, sess, transcript)

	switch {
	case act == domain.DialogActEndCall:
		// Hard safety invariant: hanging up with a pending transfer discards
		// it without executing.
		sess.Pending = nil
		s.logger.Info("pending transfer discarded on hangup", "session_id", sess.ID)
		return "Understood, the transfer will not be sent. Thank you for calling. Goodbye!", true

	case act == domain.DialogActReject:
		sess.Pending = nil
		return "Understood, I've cancelled the transfer. Is there anything else I can do for you?", false

	case act == domain.DialogActConfirm && pending.Stage == domain.StageAwaitingFirstConfirm:
		pending.Stage = domain.StageAwaitingFinalConfirm
		return fmt.Sprintf("To confirm: %s to %s, titled %s. Shall I send it?",
			formatAmount(pending.Amount, pending.Currency), pending.RecipientName, pending.Title), false

	case act == domain.DialogActConfirm && pending.Stage == domain.StageAwaitingFinalConfirm:
		return s.executePendingTransfer(ctx, sess, user, pending), false

	default:
		// Ambiguous input: re-ask, no stage transition.
		return fmt.Sprintf("Just to be sure: should I send %s to %s? Please say yes or no.",
			formatAmount(pending.Amount, pending.Currency), pending.RecipientName), false
	}
}

// executePendingTransfer invokes the ledger exactly once. Whatever the
// outcome, the pending state is destroyed: a rejected transfer is never
// silently retried.
func (s *Service) executePendingTransfer(ctx context.Context, sess *domain.Session, user *domain.User, pending *domain.PendingTransfer) string {
	sess.Pending = nil

	account, err := s.repo.ExecuteTransfer(ctx, user.ID, store.TransferParams{
		Amount:        pending.Amount,
		RecipientName: pending.RecipientName,
		RecipientIBAN: pending.RecipientIBAN,
		Title:         pending.Title,
	})
	if err != nil {
		s.logger.Warn("transfer execution failed", "session_id", sess.ID, "error", err)
		return spokenLedgerError(err)
	}

	event := rabbitmq.TransferExecutedEvent{
		SessionID:     sess.ID,
		UserID:        user.ID,
		RecipientName: pending.RecipientName,
		RecipientIBAN: pending.RecipientIBAN,
		Title:         pending.Title,
		Amount:        pending.Amount,
		Currency:      pending.Currency,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.producer.PublishTransferExecutedEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish transfer executed event", "session_id", sess.ID, "error", err)
	}

	s.logger.Info("transfer executed",
		"session_id", sess.ID, "user_id", user.ID,
		"recipient", pending.RecipientName, "amount", pending.Amount)

	return fmt.Sprintf("A transfer of %s to %s was completed. Your new balance is %s on account %s. Is there anything else I can help you with?",
		formatAmount(pending.Amount, pending.Currency), pending.RecipientName,
		formatAmount(account.Balance, account.Currency), account.IBAN)
}

// spokenLedgerError turns a ledger validation error into the sentence the
// caller hears. Unknown failures get a neutral retry message rather than an
// internal error string.
func spokenLedgerError(err error) string {
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		return "Insufficient funds on the account."
	case errors.Is(err, store.ErrInvalidAmount):
		return "Transfer amount must be positive."
	case errors.Is(err, store.ErrRecipientDataMissing):
		return "Recipient data is missing."
	case errors.Is(err, store.ErrAccountNotFound):
		return "No account found for this user."
	default:
		return "The transfer could not be completed right now. Please try again later."
	}
}

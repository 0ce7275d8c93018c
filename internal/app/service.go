/**
 * @description
 * This file contains the dialogue orchestrator: the per-turn entry point of
 * the voice assistant. Each turn routes a transcript through authentication
 * (while incomplete), then through a pending transfer confirmation (while
 * one exists), then through intent dispatch, and always produces a spoken
 * reply plus an explicit continue-or-hangup signal.
 *
 * Language-model capabilities are consulted through the NLU interface and
 * degrade to safe defaults on failure; only the ledger repository can make a
 * turn fail in a caller-visible way, and even then the failure is a spoken
 * sentence, never a dropped turn.
 *
 * @dependencies
 * - internal/domain, internal/session, internal/store: state and ledger access.
 * - pkg/groqclient: capability types; pkg/rabbitmq: event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
	"github.com/hare32/Collabothon-AIHolics/internal/session"
	"github.com/hare32/Collabothon-AIHolics/internal/store"
	"github.com/hare32/Collabothon-AIHolics/pkg/groqclient"
	"github.com/hare32/Collabothon-AIHolics/pkg/rabbitmq"
)

const (
	defaultHistoryLimit = 3
	maxHistoryLimit     = 10

	// 10 caller/assistant exchanges.
	defaultHistoryCap = 20
)

// NLU is the language-understanding capability the orchestrator depends on.
// Implementations may fail; every call site falls back to a neutral default.
type NLU interface {
	ClassifyIntent(ctx context.Context, message string, history []groqclient.Turn) (string, error)
	ExtractRecipient(ctx context.Context, message string, history []groqclient.Turn) (string, error)
	RefersToSameAmount(ctx context.Context, message string, history []groqclient.Turn) (bool, error)
	ClassifyDialogAct(ctx context.Context, message string, history []groqclient.Turn) (string, error)
	MatchContactLabel(ctx context.Context, label string, contacts []groqclient.ContactOption) (string, error)
	Answer(ctx context.Context, question, contextSummary string) (string, error)
}

// TurnResult is what one processed turn hands back to the transport layer.
type TurnResult struct {
	Reply   string
	Intent  domain.Intent
	EndCall bool
}

// Service is the dialogue orchestrator.
type Service struct {
	repo       store.Repository
	nlu        NLU
	sessions   *session.Store
	producer   rabbitmq.Publisher
	auth       *Authenticator
	logger     *slog.Logger
	historyCap int
}

// NewService creates the orchestrator. historyCap <= 0 selects the default
// of 20 history entries (10 exchanges).
func NewService(repo store.Repository, nlu NLU, sessions *session.Store, producer rabbitmq.Publisher, auth *Authenticator, historyCap int, logger *slog.Logger) *Service {
	if historyCap <= 0 {
		historyCap = defaultHistoryCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	if producer == nil {
		producer = &rabbitmq.EventProducerFallback{Logger: logger}
	}
	return &Service{
		repo:       repo,
		nlu:        nlu,
		sessions:   sessions,
		producer:   producer,
		auth:       auth,
		logger:     logger,
		historyCap: historyCap,
	}
}

// ResetAuth clears authentication state for a session. The webhook calls it
// at call start so nothing leaks between calls sharing a session key.
func (s *Service) ResetAuth(sessionID string) {
	s.sessions.ResetAuth(sessionID)
}

// EndSession discards all state of a finished call.
func (s *Service) EndSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

// ResolveCallerUserID maps the telephony caller number to a customer id,
// falling back to the configured demo customer when the number is unknown.
func (s *Service) ResolveCallerUserID(ctx context.Context, phone, fallbackUserID string) string {
	if strings.TrimSpace(phone) != "" {
		if user, err := s.repo.FindUserByPhone(ctx, phone); err == nil {
			return user.ID
		}
	}
	return fallbackUserID
}

// ProcessTurn handles one caller utterance for the given session and returns
// the reply, the recognized intent and whether the call should end.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, userID, transcript string) TurnResult {
	sess := s.sessions.Get(sessionID, userID)
	transcript = strings.TrimSpace(transcript)

	// "No speech captured" is a distinct turn: re-prompt, never dispatch.
	if transcript == "" {
		return s.noInputTurn(sess)
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load caller record", "session_id", sessionID, "user_id", userID, "error", err)
		return s.finishCall(ctx, sess, TurnResult{
			Reply:   "I'm sorry, I can't access your customer record right now. Please call again later.",
			Intent:  domain.IntentOther,
			EndCall: true,
		}, "error")
	}

	if sess.Auth.Step != domain.AuthStepAuthenticated {
		return s.authTurn(ctx, sess, user, transcript)
	}

	if sess.Pending != nil {
		reply, endCall := s.advanceConfirmation(ctx, sess, user, transcript)
		sess.RememberExchange(transcript, reply, s.historyCap)
		result := TurnResult{Reply: reply, Intent: domain.IntentMakeTransfer, EndCall: endCall}
		if endCall {
			return s.finishCall(ctx, sess, result, "goodbye")
		}
		return result
	}

	return s.dispatchIntent(ctx, sess, user, transcript)
}

func (s *Service) noInputTurn(sess *domain.Session) TurnResult {
	if sess.Auth.Step != domain.AuthStepAuthenticated {
		return TurnResult{
			Reply:  "I didn't catch that. " + s.authPrompt(sess),
			Intent: domain.IntentAuthContinue,
		}
	}
	return TurnResult{
		Reply:  "I didn't hear anything. Could you say that again?",
		Intent: domain.IntentOther,
	}
}

// authPrompt restates the question for the caller's current auth step.
func (s *Service) authPrompt(sess *domain.Session) string {
	switch sess.Auth.Step {
	case domain.AuthStepIDSuffix:
		return "Please say the last four digits of your national identification number."
	case domain.AuthStepPIN:
		return "Please say your four digit PIN."
	default:
		return "Please say your full name."
	}
}

func (s *Service) authTurn(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) TurnResult {
	reply, action := s.auth.Handle(sess, user, transcript)
	switch action {
	case AuthAuthenticated:
		return TurnResult{Reply: reply, Intent: domain.IntentAuthSuccess}
	case AuthHangup:
		return s.finishCall(ctx, sess, TurnResult{Reply: reply, Intent: domain.IntentAuthFailed, EndCall: true}, "auth_failed")
	default:
		return TurnResult{Reply: reply, Intent: domain.IntentAuthContinue}
	}
}

func (s *Service) dispatchIntent(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) TurnResult {
	intent := s.classifyIntent(ctx, sess, transcript)

	var result TurnResult
	switch intent {
	case domain.IntentMakeTransfer:
		result = s.handleTransferIntent(ctx, sess, user, transcript)
	case domain.IntentCheckBalance:
		result = s.handleBalanceIntent(ctx, sess, user, transcript)
	case domain.IntentShowHistory:
		result = s.handleHistoryIntent(ctx, sess, user, transcript)
	default:
		result = s.handleFallback(ctx, sess, user, transcript)
	}

	sess.RememberExchange(transcript, result.Reply, s.historyCap)
	if result.EndCall {
		return s.finishCall(ctx, sess, result, "goodbye")
	}
	return result
}

// handleTransferIntent resolves recipient and amount and, once both are
// known, parks the transfer behind the confirmation gate. Transfers are
// never executed from here.
func (s *Service) handleTransferIntent(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) TurnResult {
	account, err := s.repo.FindAccountByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return TurnResult{Reply: "No account found for this user.", Intent: domain.IntentMakeTransfer}
		}
		s.logger.Error("failed to load account", "session_id", sess.ID, "error", err)
		return TurnResult{Reply: "I'm unable to reach your account right now. Please try again in a moment.", Intent: domain.IntentMakeTransfer}
	}

	label, err := s.nlu.ExtractRecipient(ctx, transcript, s.classifierHistory(sess))
	if err != nil {
		s.logger.Warn("recipient extraction failed", "session_id", sess.ID, "error", err)
		label = ""
	}
	if label == "" {
		return TurnResult{
			Reply:  "I understand you want to make a transfer. Who would you like to send money to?",
			Intent: domain.IntentMakeTransfer,
		}
	}

	contact, err := s.resolveContact(ctx, user.ID, label)
	if err != nil {
		s.logger.Error("contact resolution failed", "session_id", sess.ID, "error", err)
		return TurnResult{Reply: "I'm unable to check your saved recipients right now. Please try again in a moment.", Intent: domain.IntentMakeTransfer}
	}
	if contact == nil {
		return TurnResult{
			Reply:  fmt.Sprintf("I couldn't find %s among your saved recipients. Who would you like to send money to?", label),
			Intent: domain.IntentMakeTransfer,
		}
	}

	amount := extractAmount(transcript)
	if amount <= 0 {
		amount = s.reuseLastAmount(ctx, sess, user, contact, transcript)
	}
	if amount <= 0 {
		return TurnResult{
			Reply:  fmt.Sprintf("How much would you like to send to %s? Try for example: 'Send 50 to %s'.", contact.FullName, contact.Nickname),
			Intent: domain.IntentMakeTransfer,
		}
	}

	sess.Pending = &domain.PendingTransfer{
		Amount:        amount,
		RecipientName: contact.FullName,
		RecipientIBAN: contact.IBAN,
		Title:         contact.DefaultTitle,
		Currency:      account.Currency,
		Stage:         domain.StageAwaitingFirstConfirm,
	}

	return TurnResult{
		Reply: fmt.Sprintf("You want to send %s to %s, titled %s. Should I proceed?",
			formatAmount(amount, account.Currency), contact.FullName, contact.DefaultTitle),
		Intent: domain.IntentMakeTransfer,
	}
}

// reuseLastAmount implements "the same amount as last time": when the
// classifier flags the phrase, the most recent transfer to this exact
// recipient supplies the amount.
func (s *Service) reuseLastAmount(ctx context.Context, sess *domain.Session, user *domain.User, contact *domain.Contact, transcript string) float64 {
	same, err := s.nlu.RefersToSameAmount(ctx, transcript, s.classifierHistory(sess))
	if err != nil {
		s.logger.Warn("same-amount classification failed", "session_id", sess.ID, "error", err)
		return 0
	}
	if !same {
		return 0
	}

	transactions, err := s.repo.FindTransactionsBySenderID(ctx, user.ID, 0)
	if err != nil {
		s.logger.Warn("failed to load transfer history for amount reuse", "session_id", sess.ID, "error", err)
		return 0
	}
	for _, tx := range transactions {
		if tx.RecipientIBAN == contact.IBAN {
			return tx.Amount
		}
	}
	return 0
}

func (s *Service) handleBalanceIntent(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) TurnResult {
	var reply string
	account, err := s.repo.FindAccountByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		reply = "No account found for this user."
	case err != nil:
		s.logger.Error("failed to load account", "session_id", sess.ID, "error", err)
		reply = "I'm unable to reach your account right now. Please try again in a moment."
	default:
		reply = fmt.Sprintf("Your current balance is %s on account %s.", formatAmount(account.Balance, account.Currency), account.IBAN)
	}

	result := TurnResult{Reply: reply, Intent: domain.IntentCheckBalance}
	if s.dialogAct(ctx, sess, transcript) == domain.DialogActEndCall {
		result.Reply += " Thank you for calling. Goodbye!"
		result.EndCall = true
	}
	return result
}

func (s *Service) handleHistoryIntent(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) TurnResult {
	limit := extractHistoryLimit(transcript, defaultHistoryLimit, maxHistoryLimit)

	var reply string
	transactions, err := s.repo.FindTransactionsBySenderID(ctx, user.ID, limit)
	switch {
	case err != nil:
		s.logger.Error("failed to load transfer history", "session_id", sess.ID, "error", err)
		reply = "I'm unable to read your transfer history right now. Please try again in a moment."
	case len(transactions) == 0:
		reply = "You have no recent transfers."
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Here are your last %d transfers: ", len(transactions))
		for i, tx := range transactions {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s to %s for %s", formatAmount(tx.Amount, "PLN"), tx.RecipientName, tx.Title)
		}
		b.WriteString(".")
		reply = b.String()
	}

	result := TurnResult{Reply: reply, Intent: domain.IntentShowHistory}
	if s.dialogAct(ctx, sess, transcript) == domain.DialogActEndCall {
		result.Reply += " Thank you for calling. Goodbye!"
		result.EndCall = true
	}
	return result
}

// handleFallback either ends the call on an explicit goodbye or delegates to
// the open-ended answerer with a small context summary.
func (s *Service) handleFallback(ctx context.Context, sess *domain.Session, user *domain.User, transcript string) TurnResult {
	if s.dialogAct(ctx, sess, transcript) == domain.DialogActEndCall {
		return TurnResult{Reply: "Thank you for calling. Goodbye!", Intent: domain.IntentOther, EndCall: true}
	}

	var summary strings.Builder
	fmt.Fprintf(&summary, "Customer: %s\n", user.Name)
	if account, err := s.repo.FindAccountByUserID(ctx, user.ID); err == nil {
		fmt.Fprintf(&summary, "Balance: %s on account %s\n", formatAmount(account.Balance, account.Currency), account.IBAN)
	}

	answer, err := s.nlu.Answer(ctx, transcript, summary.String())
	if err != nil {
		s.logger.Warn("fallback answer failed", "session_id", sess.ID, "error", err)
		return TurnResult{Reply: "I'm sorry, I didn't catch that. Could you rephrase?", Intent: domain.IntentOther}
	}
	return TurnResult{Reply: answer, Intent: domain.IntentOther}
}

// resolveContact maps a spoken label onto a saved contact via the matcher
// capability, then verifies the choice against the actual contact list.
func (s *Service) resolveContact(ctx context.Context, userID, label string) (*domain.Contact, error) {
	contacts, err := s.repo.ListContactsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}

	options := make([]groqclient.ContactOption, 0, len(contacts))
	for _, c := range contacts {
		options = append(options, groqclient.ContactOption{Nickname: c.Nickname, FullName: c.FullName})
	}

	chosen, err := s.nlu.MatchContactLabel(ctx, label, options)
	if err != nil {
		s.logger.Warn("contact label matching failed", "error", err)
		return nil, nil
	}
	chosen = strings.ToLower(strings.TrimSpace(chosen))
	if chosen == "" {
		return nil, nil
	}

	for i := range contacts {
		if strings.ToLower(contacts[i].Nickname) == chosen {
			return &contacts[i], nil
		}
	}
	// The model may return the full name instead of the nickname.
	for i := range contacts {
		if strings.ToLower(contacts[i].FullName) == chosen {
			return &contacts[i], nil
		}
	}
	return nil, nil
}

func (s *Service) classifyIntent(ctx context.Context, sess *domain.Session, transcript string) domain.Intent {
	raw, err := s.nlu.ClassifyIntent(ctx, transcript, s.classifierHistory(sess))
	if err != nil {
		s.logger.Warn("intent classification failed", "session_id", sess.ID, "error", err)
		return domain.IntentOther
	}
	switch intent := domain.Intent(raw); intent {
	case domain.IntentMakeTransfer, domain.IntentCheckBalance, domain.IntentShowHistory:
		return intent
	default:
		return domain.IntentOther
	}
}

func (s *Service) dialogAct(ctx context.Context, sess *domain.Session, transcript string) domain.DialogAct {
	raw, err := s.nlu.ClassifyDialogAct(ctx, transcript, s.classifierHistory(sess))
	if err != nil {
		s.logger.Warn("dialog act classification failed", "session_id", sess.ID, "error", err)
		return domain.DialogActNone
	}
	switch act := domain.DialogAct(raw); act {
	case domain.DialogActConfirm, domain.DialogActReject, domain.DialogActEndCall:
		return act
	default:
		return domain.DialogActNone
	}
}

func (s *Service) classifierHistory(sess *domain.Session) []groqclient.Turn {
	turns := make([]groqclient.Turn, 0, len(sess.History))
	for _, t := range sess.History {
		turns = append(turns, groqclient.Turn{Role: t.Role, Text: t.Text})
	}
	return turns
}

// finishCall publishes the call-ended event and discards the session.
func (s *Service) finishCall(ctx context.Context, sess *domain.Session, result TurnResult, reason string) TurnResult {
	event := rabbitmq.CallEndedEvent{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	if err := s.producer.PublishCallEndedEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish call ended event", "session_id", sess.ID, "error", err)
	}
	s.sessions.Delete(sess.ID)
	return result
}

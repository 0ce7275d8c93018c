/**
 * @description
 * The voice authentication state machine. A caller proves their identity in
 * three steps, none skippable: full name, last four digits of the national
 * ID number, then the PIN. Matching is purely local string and digit
 * comparison; the language-model capabilities are never consulted here.
 *
 * Each step allows a bounded number of mismatches. Exhausting the budget is
 * a fatal session outcome: the call is terminated and the whole flow resets
 * so the next call starts again from the name step.
 */

package app

import (
	"log/slog"
	"strings"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
)

// AuthAction is the terminal signal of one authentication turn.
type AuthAction int

const (
	// AuthContinue keeps listening: either the step advanced or the caller
	// should retry the same step.
	AuthContinue AuthAction = iota
	// AuthAuthenticated completes the flow; normal dialogue may begin.
	AuthAuthenticated
	// AuthHangup terminates the call after too many failed attempts.
	AuthHangup
)

const defaultMaxAuthAttempts = 3

// Authenticator drives the authentication steps for a session.
type Authenticator struct {
	maxAttempts int
	logger      *slog.Logger
}

// NewAuthenticator creates an authenticator with the given per-step retry
// budget; non-positive values select the default of 3.
func NewAuthenticator(maxAttempts int, logger *slog.Logger) *Authenticator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAuthAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{maxAttempts: maxAttempts, logger: logger}
}

// Handle processes one authentication turn. It mutates the session's auth
// state and returns the spoken reply plus the terminal action for the turn.
func (a *Authenticator) Handle(sess *domain.Session, user *domain.User, transcript string) (string, AuthAction) {
	switch sess.Auth.Step {
	case domain.AuthStepName:
		if nameMatches(user.Name, transcript) {
			sess.Auth.Step = domain.AuthStepIDSuffix
			sess.Auth.FailedAttempts = 0
			a.logger.Debug("auth name confirmed", "session_id", sess.ID)
			return "Thank you. Please say the last four digits of your national identification number.", AuthContinue
		}
		return a.retry(sess, "I couldn't verify your name. Please repeat your full name.")

	case domain.AuthStepIDSuffix:
		want := lastFour(user.PESEL)
		if digitsMatch(extractDigits(transcript), want) {
			sess.Auth.Step = domain.AuthStepPIN
			sess.Auth.FailedAttempts = 0
			a.logger.Debug("auth id suffix confirmed", "session_id", sess.ID)
			return "Identification confirmed. Now please say your four digit PIN.", AuthContinue
		}
		return a.retry(sess, "The identification digits do not match our records. Please repeat the last four digits of your ID.")

	case domain.AuthStepPIN:
		if digitsMatch(extractDigits(transcript), user.PINCode) {
			sess.Auth.Step = domain.AuthStepAuthenticated
			sess.Auth.FailedAttempts = 0
			a.logger.Info("caller authenticated", "session_id", sess.ID, "user_id", user.ID)
			return "Authentication successful.", AuthAuthenticated
		}
		return a.retry(sess, "The PIN you provided is incorrect. Please repeat your four digit PIN.")
	}

	// Already authenticated; nothing to do here.
	return "", AuthAuthenticated
}

// retry counts a mismatch and either re-prompts or terminates the call once
// the budget is exhausted. Termination fully resets the flow: a fresh call
// must restart from the name step.
func (a *Authenticator) retry(sess *domain.Session, reprompt string) (string, AuthAction) {
	sess.Auth.FailedAttempts++
	if sess.Auth.FailedAttempts >= a.maxAttempts {
		a.logger.Warn("auth attempt budget exhausted", "session_id", sess.ID, "step", int(sess.Auth.Step))
		sess.Auth.Reset()
		return "I'm unable to verify your identity. For your security, the call will now end.", AuthHangup
	}
	return reprompt, AuthContinue
}

func nameMatches(fullName, transcript string) bool {
	want := normalizeSpoken(fullName)
	if want == "" {
		return false
	}
	heard := normalizeSpoken(transcript)
	if heard == "" {
		return false
	}
	// Substring test: recognizers often wrap the name in filler words
	// ("yes, this is John Smith speaking").
	return strings.Contains(heard, want)
}

func lastFour(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

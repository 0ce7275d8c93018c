/**
 * @description
 * This file contains the HTTP handlers for the voice assistant. The main
 * surface is the telephony webhook: Twilio posts the speech transcript of
 * each turn and receives TwiML telling it what to say and whether to keep
 * listening or hang up. A JSON chat endpoint exposes the same dialogue
 * engine for the CLI/softphone helper clients, and two read-only banking
 * endpoints back the demo frontend.
 *
 * @dependencies
 * - internal/app, internal/domain, internal/store: dialogue engine and ledger.
 * - pkg/twiml: telephony response markup.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hare32/Collabothon-AIHolics/internal/app"
	"github.com/hare32/Collabothon-AIHolics/internal/config"
	"github.com/hare32/Collabothon-AIHolics/internal/domain"
	"github.com/hare32/Collabothon-AIHolics/internal/store"
	"github.com/hare32/Collabothon-AIHolics/pkg/twiml"
)

const voiceWebhookPath = "/twilio/voice"

// Handlers holds the dialogue service and its collaborators.
type Handlers struct {
	service *app.Service
	repo    store.Repository
	limiter *app.RedisTurnRateLimiter
	cfg     config.Config
	logger  *slog.Logger
}

// NewHandlers creates the handler set. limiter may be nil to disable rate
// limiting.
func NewHandlers(service *app.Service, repo store.Repository, limiter *app.RedisTurnRateLimiter, cfg config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, repo: repo, limiter: limiter, cfg: cfg, logger: logger}
}

// VoiceWebhookHandler is the per-turn telephony entry point. An empty
// SpeechResult means call start (or no speech captured): authentication
// state is reset and the caller is greeted.
func (h *Handlers) VoiceWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	speech := strings.TrimSpace(r.FormValue("SpeechResult"))
	callSid := strings.TrimSpace(r.FormValue("CallSid"))
	from := strings.TrimSpace(r.FormValue("From"))

	sessionID := callSid
	if sessionID == "" {
		sessionID = from
	}
	if sessionID == "" {
		sessionID = "unknown-call"
	}

	if h.rateLimited(w, r, sessionID) {
		return
	}

	resp := twiml.NewResponse()

	if speech == "" {
		h.service.ResetAuth(sessionID)
		resp.Gather(voiceWebhookPath).
			Say("Welcome to the banking assistant. To begin, please say your full name.", "en-US")
		resp.Say("No response detected. Goodbye.", "en-US")
		h.writeTwiML(w, resp)
		return
	}

	userID := h.service.ResolveCallerUserID(r.Context(), from, h.cfg.DemoUserID)
	result := h.service.ProcessTurn(r.Context(), sessionID, userID, speech)
	h.logger.Info("voice turn processed", "session_id", sessionID, "intent", string(result.Intent), "end_call", result.EndCall)

	switch {
	case result.EndCall:
		resp.Say(result.Reply, "en-US")
		resp.Hangup()

	case result.Intent == domain.IntentAuthContinue:
		resp.Gather(voiceWebhookPath).Say(result.Reply, "en-US")

	case result.Intent == domain.IntentAuthSuccess:
		g := resp.Gather(voiceWebhookPath)
		g.Say(result.Reply, "en-US")
		g.Say("How can I assist you?", "en-US")

	default:
		resp.Say(result.Reply, "en-US")
		resp.Gather(voiceWebhookPath).Say("You may ask another question.", "en-US")
	}

	h.writeTwiML(w, resp)
}

// rateLimited consumes one turn from the caller's budget and, when the
// budget is exhausted, answers with a polite busy message. Limiter failures
// never block a call.
func (h *Handlers) rateLimited(w http.ResponseWriter, r *http.Request, subject string) bool {
	if h.limiter == nil || h.cfg.TurnRateLimitPerMinute <= 0 {
		return false
	}

	_, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "voice_turn", subject, h.cfg.TurnRateLimitPerMinute, time.Minute)
	if err != nil {
		h.logger.Warn("rate limiter unavailable", "error", err)
		return false
	}
	if retryAfter == 0 {
		return false
	}

	h.logger.Warn("voice turn rate limited", "session_id", subject, "retry_after", retryAfter)
	resp := twiml.NewResponse()
	resp.Say("The assistant is receiving too many requests for this call. Please call again in a moment. Goodbye.", "en-US")
	resp.Hangup()
	h.writeTwiML(w, resp)
	return true
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
}

// ChatHandler runs one dialogue turn over plain JSON, for the helper clients
// that do their own speech capture.
func (h *Handlers) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = h.cfg.DemoUserID
	}

	// Chat sessions are keyed per user: the client has no call identifier.
	sessionID := "chat:" + req.UserID
	result := h.service.ProcessTurn(r.Context(), sessionID, req.UserID, req.Message)

	h.writeJSON(w, http.StatusOK, chatResponse{Reply: result.Reply, Intent: string(result.Intent)})
}

// GetAccountHandler returns the demo customer's account.
func (h *Handlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = h.cfg.DemoUserID
	}

	account, err := h.repo.FindAccountByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error("failed to load account", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// ListTransactionsHandler returns recent outgoing transfers, newest first.
func (h *Handlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = h.cfg.DemoUserID
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	transactions, err := h.repo.FindTransactionsBySenderID(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("failed to load transactions", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

func (h *Handlers) writeTwiML(w http.ResponseWriter, resp *twiml.Response) {
	body, err := resp.Render()
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		http.Error(w, "failed to render response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", twiml.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

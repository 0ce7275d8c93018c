package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hare32/Collabothon-AIHolics/internal/app"
	"github.com/hare32/Collabothon-AIHolics/internal/config"
	"github.com/hare32/Collabothon-AIHolics/internal/domain"
	"github.com/hare32/Collabothon-AIHolics/internal/session"
	"github.com/hare32/Collabothon-AIHolics/internal/store"
	"github.com/hare32/Collabothon-AIHolics/pkg/groqclient"
)

type stubRepo struct {
	store.Repository

	user         *domain.User
	account      *domain.Account
	transactions []domain.Transaction
}

func (r *stubRepo) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if r.user == nil || r.user.ID != userID {
		return nil, store.ErrUserNotFound
	}
	return r.user, nil
}

func (r *stubRepo) FindUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if r.user == nil || r.user.Phone != phone {
		return nil, store.ErrUserNotFound
	}
	return r.user, nil
}

func (r *stubRepo) FindAccountByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	if r.account == nil || r.account.UserID != userID {
		return nil, store.ErrAccountNotFound
	}
	return r.account, nil
}

func (r *stubRepo) ListContactsByUserID(ctx context.Context, userID string) ([]domain.Contact, error) {
	return nil, nil
}

func (r *stubRepo) FindTransactionsBySenderID(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return r.transactions, nil
}

type stubNLU struct{}

func (stubNLU) ClassifyIntent(ctx context.Context, message string, history []groqclient.Turn) (string, error) {
	return "other", nil
}

func (stubNLU) ExtractRecipient(ctx context.Context, message string, history []groqclient.Turn) (string, error) {
	return "", nil
}

func (stubNLU) RefersToSameAmount(ctx context.Context, message string, history []groqclient.Turn) (bool, error) {
	return false, nil
}

func (stubNLU) ClassifyDialogAct(ctx context.Context, message string, history []groqclient.Turn) (string, error) {
	return "none", nil
}

func (stubNLU) MatchContactLabel(ctx context.Context, label string, contacts []groqclient.ContactOption) (string, error) {
	return "", nil
}

func (stubNLU) Answer(ctx context.Context, question, contextSummary string) (string, error) {
	return "Happy to help.", nil
}

func newTestHandlers(cfg config.Config) (*Handlers, *stubRepo) {
	repo := &stubRepo{
		user: &domain.User{ID: "user-1", Name: "John Smith", PESEL: "12345678901", PINCode: "4321", Phone: "+48123123123"},
		account: &domain.Account{
			ID: "acc-1", UserID: "user-1",
			IBAN: "PL61109010140000071219812874", Balance: 4000, Currency: "PLN",
		},
	}
	if cfg.DemoUserID == "" {
		cfg.DemoUserID = "user-1"
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewService(repo, stubNLU{}, session.NewStore(), nil, app.NewAuthenticator(3, logger), 0, logger)
	return NewHandlers(svc, repo, nil, cfg, logger), repo
}

func postVoiceForm(t *testing.T, h *Handlers, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/twilio/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.VoiceWebhookHandler(rec, req)
	return rec
}

func TestVoiceWebhookCallStart(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	rec := postVoiceForm(t, h, url.Values{"CallSid": {"CA123"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("expected TwiML content type, got %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Welcome to the banking assistant.",
		`action="/twilio/voice"`,
		"<Gather",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in response, got %q", want, body)
		}
	}
	if strings.Contains(body, "<Hangup") {
		t.Fatalf("call start must keep the call open, got %q", body)
	}
}

func TestVoiceWebhookAuthTurnGathersAgain(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	rec := postVoiceForm(t, h, url.Values{
		"CallSid":      {"CA123"},
		"SpeechResult": {"John Smith"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "last four digits") {
		t.Fatalf("expected the id-suffix prompt, got %q", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("expected a gather for the next turn, got %q", body)
	}
}

func TestVoiceWebhookAuthFailureHangsUp(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = postVoiceForm(t, h, url.Values{
			"CallSid":      {"CA123"},
			"SpeechResult": {"somebody else"},
		})
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<Hangup") {
		t.Fatalf("expected hangup after exhausted auth attempts, got %q", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Fatalf("a terminated call must not gather further input, got %q", body)
	}
}

func TestChatHandler(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/assistant/chat",
		strings.NewReader(`{"user_id":"user-1","message":"John Smith"}`))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Reply  string `json:"reply"`
		Intent string `json:"intent"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Intent != "auth_continue" {
		t.Fatalf("expected the auth flow to start, got intent %q", resp.Intent)
	}
	if resp.Reply == "" {
		t.Fatal("expected a non-empty reply")
	}
}

func TestChatHandlerRejectsBadBody(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/assistant/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTwilioTokenHandlerMissingConfig(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/twilio/token", nil)
	rec := httptest.NewRecorder()
	h.TwilioTokenHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Missing Twilio configuration.") {
		t.Fatalf("unexpected error body %q", rec.Body.String())
	}
}

func TestTwilioTokenHandlerIssuesToken(t *testing.T) {
	h, _ := newTestHandlers(config.Config{
		TwilioAccountSID: "AC000",
		TwilioAPIKey:     "SK000",
		TwilioAPISecret:  "secret",
		TwimlAppSID:      "AP000",
	})

	req := httptest.NewRequest(http.MethodGet, "/twilio/token", nil)
	rec := httptest.NewRecorder()
	h.TwilioTokenHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	token := resp["token"]
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a JWT, got %q", token)
	}
}

func TestGetAccountHandler(t *testing.T) {
	h, repo := newTestHandlers(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/banking/account", nil)
	rec := httptest.NewRecorder()
	h.GetAccountHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var account domain.Account
	if err := json.NewDecoder(rec.Body).Decode(&account); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if account.IBAN != repo.account.IBAN {
		t.Fatalf("unexpected account %+v", account)
	}

	req = httptest.NewRequest(http.MethodGet, "/banking/account?user_id=nobody", nil)
	rec = httptest.NewRecorder()
	h.GetAccountHandler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown user, got %d", rec.Code)
	}
}

func TestListTransactionsHandlerRejectsBadLimit(t *testing.T) {
	h, _ := newTestHandlers(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/banking/transactions?limit=abc", nil)
	rec := httptest.NewRecorder()
	h.ListTransactionsHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

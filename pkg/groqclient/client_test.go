package groqclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newFakeGroq serves a canned completion and captures each request for
// inspection.
func newFakeGroq(t *testing.T, content string) (*Client, *[]chatCompletionRequest) {
	t.Helper()
	var requests []chatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk_test" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		requests = append(requests, req)

		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
	t.Cleanup(server.Close)

	return NewClient(server.URL, "gsk_test", "test-model"), &requests
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "known label", content: "make_transfer", want: "make_transfer"},
		{name: "uppercase label", content: "CHECK_BALANCE", want: "check_balance"},
		{name: "localized alias", content: "przelew", want: "make_transfer"},
		{name: "free text collapses to other", content: "the customer wants to transfer", want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newFakeGroq(t, tt.content)
			got, err := client.ClassifyIntent(context.Background(), "send 50 to mom", nil)
			if err != nil {
				t.Fatalf("ClassifyIntent failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassifyDialogAct(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "confirm", content: "confirm", want: "confirm"},
		{name: "bare yes maps to confirm", content: "Yes", want: "confirm"},
		{name: "bare no maps to reject", content: "no", want: "reject"},
		{name: "end call", content: "end_call", want: "end_call"},
		{name: "free text collapses to none", content: "maybe, hard to say", want: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newFakeGroq(t, tt.content)
			got, err := client.ClassifyDialogAct(context.Background(), "yes", nil)
			if err != nil {
				t.Fatalf("ClassifyDialogAct failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractRecipientNone(t *testing.T) {
	client, _ := newFakeGroq(t, "none")
	got, err := client.ExtractRecipient(context.Background(), "I want to send money", nil)
	if err != nil {
		t.Fatalf("ExtractRecipient failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty recipient, got %q", got)
	}
}

func TestExtractRecipientStripsQuotes(t *testing.T) {
	client, _ := newFakeGroq(t, `"my mom"`)
	got, err := client.ExtractRecipient(context.Background(), "send 50 to my mom", nil)
	if err != nil {
		t.Fatalf("ExtractRecipient failed: %v", err)
	}
	if got != "my mom" {
		t.Fatalf("expected quotes stripped, got %q", got)
	}
}

func TestRefersToSameAmount(t *testing.T) {
	client, _ := newFakeGroq(t, "Yes")
	same, err := client.RefersToSameAmount(context.Background(), "the same as last time", nil)
	if err != nil {
		t.Fatalf("RefersToSameAmount failed: %v", err)
	}
	if !same {
		t.Fatal("expected yes to report true")
	}
}

func TestMatchContactLabelEmptyList(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "gsk_test", "")
	got, err := client.MatchContactLabel(context.Background(), "mom", nil)
	if err != nil {
		t.Fatalf("expected no request for an empty contact list, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty match, got %q", got)
	}
}

func TestClassifiersPinTemperature(t *testing.T) {
	client, requests := newFakeGroq(t, "other")
	if _, err := client.ClassifyIntent(context.Background(), "hello", nil); err != nil {
		t.Fatalf("ClassifyIntent failed: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	req := (*requests)[0]
	if req.Temperature != 0 {
		t.Fatalf("classifier temperature must be 0, got %v", req.Temperature)
	}
	if req.Model != "test-model" {
		t.Fatalf("expected configured model, got %q", req.Model)
	}
}

func TestChatCompletionErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "gsk_test", "")
	if _, err := client.ClassifyIntent(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected an error on non-200 status")
	}
}

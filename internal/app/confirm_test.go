package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
	"github.com/hare32/Collabothon-AIHolics/internal/store"
)

func TestSpokenLedgerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "insufficient funds", err: store.ErrInsufficientFunds, want: "Insufficient funds on the account."},
		{name: "invalid amount", err: store.ErrInvalidAmount, want: "Transfer amount must be positive."},
		{name: "recipient missing", err: store.ErrRecipientDataMissing, want: "Recipient data is missing."},
		{name: "no account", err: store.ErrAccountNotFound, want: "No account found for this user."},
		{name: "unknown failure stays neutral", err: errors.New("pq: connection refused"), want: "The transfer could not be completed right now. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spokenLedgerError(tt.err); got != tt.want {
				t.Fatalf("spokenLedgerError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestAdvanceConfirmationFirstConfirmRestatesDetails(t *testing.T) {
	repo := newStubRepository()
	nlu := &stubNLU{dialogAct: string(domain.DialogActConfirm)}
	svc, sessions := newTestService(repo, nlu, 0)
	sess := authenticate(sessions, "call-1", "user-1")
	sess.Pending = &domain.PendingTransfer{
		Amount:        50.5,
		RecipientName: "Barbara Smith",
		RecipientIBAN: repo.contacts[0].IBAN,
		Title:         "For mom",
		Currency:      "PLN",
		Stage:         domain.StageAwaitingFirstConfirm,
	}

	reply, endCall := svc.advanceConfirmation(context.Background(), sess, repo.user, "yes please")
	if endCall {
		t.Fatal("first confirmation must not end the call")
	}
	for _, want := range []string{"50.50 PLN", "Barbara Smith", "For mom"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("final confirmation prompt must restate %q, got %q", want, reply)
		}
	}
	if repo.transferCalls != 0 {
		t.Fatal("first confirmation must not execute the transfer")
	}
}

func TestAdvanceConfirmationFinalConfirmReportsNewBalance(t *testing.T) {
	repo := newStubRepository()
	nlu := &stubNLU{dialogAct: string(domain.DialogActConfirm)}
	svc, sessions := newTestService(repo, nlu, 0)
	sess := authenticate(sessions, "call-1", "user-1")
	sess.Pending = &domain.PendingTransfer{
		Amount:        100,
		RecipientName: "Barbara Smith",
		RecipientIBAN: repo.contacts[0].IBAN,
		Title:         "For mom",
		Currency:      "PLN",
		Stage:         domain.StageAwaitingFinalConfirm,
	}

	reply, endCall := svc.advanceConfirmation(context.Background(), sess, repo.user, "yes")
	if endCall {
		t.Fatal("a completed transfer keeps the call open")
	}
	if repo.transferCalls != 1 {
		t.Fatalf("expected exactly one ledger call, got %d", repo.transferCalls)
	}
	if !strings.Contains(reply, "3900 PLN") {
		t.Fatalf("expected the reply to report the new balance, got %q", reply)
	}
}

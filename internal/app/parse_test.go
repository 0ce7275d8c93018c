package app

import "testing"

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    float64
	}{
		{name: "whole number", message: "send 50 to mom", want: 50},
		{name: "comma decimal", message: "transfer 50,50 please", want: 50.5},
		{name: "dot decimal", message: "transfer 50.50 please", want: 50.5},
		{name: "digits split by spaces", message: "send 1 0 0", want: 100},
		{name: "no digits", message: "send money to mom", want: 0},
		{name: "empty", message: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractAmount(tt.message); got != tt.want {
				t.Fatalf("extractAmount(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestExtractHistoryLimit(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int
	}{
		{name: "explicit count", message: "show 5 transfers", want: 5},
		{name: "no number uses default", message: "show history", want: 3},
		{name: "above max is capped", message: "show 99", want: 10},
		{name: "zero uses default", message: "show 0 transfers", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractHistoryLimit(tt.message, 3, 10); got != tt.want {
				t.Fatalf("extractHistoryLimit(%q) = %d, want %d", tt.message, got, tt.want)
			}
		})
	}
}

func TestDigitsMatch(t *testing.T) {
	tests := []struct {
		name  string
		heard string
		want  string
		match bool
	}{
		{name: "exact", heard: "8901", want: "8901", match: true},
		{name: "longer string with matching suffix", heard: "12345678901", want: "8901", match: true},
		{name: "wrong digits", heard: "1234", want: "8901", match: false},
		{name: "shorter than expected", heard: "901", want: "8901", match: false},
		{name: "nothing heard", heard: "", want: "8901", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := digitsMatch(tt.heard, tt.want); got != tt.match {
				t.Fatalf("digitsMatch(%q, %q) = %v, want %v", tt.heard, tt.want, got, tt.match)
			}
		})
	}
}

func TestExtractDigits(t *testing.T) {
	if got := extractDigits("one two, then 8 9 0 1 done"); got != "8901" {
		t.Fatalf("expected 8901, got %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := formatAmount(50, "PLN"); got != "50 PLN" {
		t.Fatalf("expected whole amount without fraction, got %q", got)
	}
	if got := formatAmount(50.5, "PLN"); got != "50.50 PLN" {
		t.Fatalf("expected two decimal places, got %q", got)
	}
}

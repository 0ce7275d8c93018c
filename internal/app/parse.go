/**
 * @description
 * Local text parsing for spoken input: amounts, digit strings and history
 * limits. These are deliberately deterministic (regexp/string matching, no
 * language model) because authentication and money amounts must not depend
 * on a probabilistic classifier.
 */

package app

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern = regexp.MustCompile(`(\d+[,.]?\d*)`)
	numberPattern = regexp.MustCompile(`(\d+)`)
)

// extractAmount finds the first numeric token in the utterance. The decimal
// separator may be a comma or a dot. Returns 0 when no valid positive number
// is present; 0 means "no amount detected", never a valid amount.
func extractAmount(message string) float64 {
	compact := strings.ReplaceAll(message, " ", "")
	m := amountPattern.FindString(compact)
	if m == "" {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0
	}
	return value
}

// extractDigits collects every digit in the transcript, in order. Speech
// recognition interleaves digits with words ("one two, then 3 4"), so
// everything that is not a digit is dropped.
func extractDigits(message string) string {
	var b strings.Builder
	for _, r := range message {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// digitsMatch accepts either an exact match or a longer heard string whose
// suffix matches, since callers often read their whole ID number instead of
// just the last digits.
func digitsMatch(heard, want string) bool {
	if want == "" || heard == "" {
		return false
	}
	return heard == want || (len(heard) > len(want) && strings.HasSuffix(heard, want))
}

// extractHistoryLimit reads the requested number of transfers from an
// utterance like "show my last 5 transfers". No number or a non-positive
// number yields def; numbers above max are capped.
func extractHistoryLimit(message string, def, max int) int {
	m := numberPattern.FindString(message)
	if m == "" {
		return def
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// normalizeSpoken lowercases an utterance and removes spaces so that "John
// Smith" matches "johnsmith" however the recognizer segments it.
func normalizeSpoken(message string) string {
	return strings.ReplaceAll(strings.ToLower(message), " ", "")
}

// formatAmount renders an amount for speech: whole numbers read without a
// fraction, everything else with two decimal places.
func formatAmount(amount float64, currency string) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d %s", int64(amount), currency)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

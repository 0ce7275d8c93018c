/**
 * @description
 * The classifier prompts. Each classifier pins temperature to zero, caps the
 * completion length, and normalizes the model output into a closed
 * vocabulary so the dialogue engine never sees free text where it expects an
 * enum value.
 */
package groqclient

import (
	"context"
	"fmt"
	"strings"
)

var intentVocabulary = map[string]string{
	"make_transfer": "make_transfer",
	"check_balance": "check_balance",
	"show_history":  "show_history",
	"other":         "other",
	// Occasional localized answers from the model.
	"przelew": "make_transfer",
	"saldo":   "check_balance",
}

// ClassifyIntent returns one of make_transfer, check_balance, show_history,
// other. Unrecognized model output collapses to "other".
func (c *Client) ClassifyIntent(ctx context.Context, message string, history []Turn) (string, error) {
	system := "You are an intent classifier for a voice banking assistant.\n" +
		"Based on the customer's utterance and the recent conversation, reply with EXACTLY one word:\n" +
		"- make_transfer  if the customer wants to send or pay money to someone\n" +
		"- check_balance  if the customer asks about their balance or how much money they have\n" +
		"- show_history   if the customer asks about recent transfers or transactions\n" +
		"- other          for anything else\n" +
		"Do not add explanations, punctuation or any extra text."
	user := fmt.Sprintf("Conversation so far:\n%s\nCustomer: %s", renderHistory(history), message)

	raw, err := c.chatCompletion(ctx, system, user, 5, 0)
	if err != nil {
		return "", err
	}
	if intent, ok := intentVocabulary[strings.ToLower(raw)]; ok {
		return intent, nil
	}
	return "other", nil
}

// ExtractRecipient pulls the recipient phrase out of a transfer request, e.g.
// "send 50 to my mom" yields "my mom". Returns "" when no recipient is named.
func (c *Client) ExtractRecipient(ctx context.Context, message string, history []Turn) (string, error) {
	system := "You extract the transfer recipient from a customer utterance in a voice banking assistant.\n" +
		"Reply with ONLY the phrase naming the recipient (for example: my mom, the neighbor, the rent).\n" +
		"If the utterance names no recipient, reply with exactly: none"
	user := fmt.Sprintf("Conversation so far:\n%s\nCustomer: %s", renderHistory(history), message)

	raw, err := c.chatCompletion(ctx, system, user, 20, 0)
	if err != nil {
		return "", err
	}
	cleaned := strings.Trim(strings.TrimSpace(raw), `"'.`)
	if cleaned == "" || strings.EqualFold(cleaned, "none") {
		return "", nil
	}
	return cleaned, nil
}

// RefersToSameAmount reports whether the customer asked to reuse the amount
// of a previous transfer ("the same as last time").
func (c *Client) RefersToSameAmount(ctx context.Context, message string, history []Turn) (bool, error) {
	system := "You are a classifier in a voice banking assistant.\n" +
		"Decide whether the customer is asking to transfer THE SAME AMOUNT as a previous transfer\n" +
		"(phrases like 'the same as last time', 'the usual amount', 'same as before').\n" +
		"Reply with exactly one word: yes or no."
	user := fmt.Sprintf("Conversation so far:\n%s\nCustomer: %s", renderHistory(history), message)

	raw, err := c.chatCompletion(ctx, system, user, 3, 0)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(raw), "yes"), nil
}

var dialogActVocabulary = map[string]string{
	"confirm":  "confirm",
	"reject":   "reject",
	"end_call": "end_call",
	"none":     "none",
	"yes":      "confirm",
	"no":       "reject",
}

// ClassifyDialogAct returns one of confirm, reject, end_call, none.
// Unrecognized model output collapses to "none".
func (c *Client) ClassifyDialogAct(ctx context.Context, message string, history []Turn) (string, error) {
	system := "You classify a customer's reply in a voice banking assistant.\n" +
		"Reply with EXACTLY one word:\n" +
		"- confirm   if the customer agrees, approves or says yes\n" +
		"- reject    if the customer declines, cancels or says no\n" +
		"- end_call  if the customer wants to hang up or end the conversation\n" +
		"- none      if the reply is unclear or unrelated\n" +
		"Do not add any extra text."
	user := fmt.Sprintf("Conversation so far:\n%s\nCustomer: %s", renderHistory(history), message)

	raw, err := c.chatCompletion(ctx, system, user, 5, 0)
	if err != nil {
		return "", err
	}
	if act, ok := dialogActVocabulary[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return act, nil
	}
	return "none", nil
}

// MatchContactLabel maps a spoken recipient phrase onto one of the customer's
// saved contacts, returning the chosen nickname or full name, or "" when no
// contact fits.
func (c *Client) MatchContactLabel(ctx context.Context, label string, contacts []ContactOption) (string, error) {
	if len(contacts) == 0 {
		return "", nil
	}

	var list strings.Builder
	for _, contact := range contacts {
		fmt.Fprintf(&list, "- nickname: %s, full name: %s\n", contact.Nickname, contact.FullName)
	}

	system := "You match a spoken phrase to one of the customer's saved transfer recipients.\n" +
		"Reply with ONLY the nickname of the matching contact from the list.\n" +
		"If no contact matches, reply with exactly: none"
	user := fmt.Sprintf("Saved recipients:\n%s\nSpoken phrase: %s", list.String(), label)

	raw, err := c.chatCompletion(ctx, system, user, 10, 0)
	if err != nil {
		return "", err
	}
	cleaned := strings.Trim(strings.TrimSpace(raw), `"'.`)
	if cleaned == "" || strings.EqualFold(cleaned, "none") {
		return "", nil
	}
	return cleaned, nil
}

// Answer produces an open-ended reply for utterances outside the banking
// flows, given a short context summary about the customer.
func (c *Client) Answer(ctx context.Context, question, contextSummary string) (string, error) {
	system := "You are a virtual banking assistant on a phone call. Answer briefly and clearly, in one or two spoken sentences."
	user := fmt.Sprintf("Customer context:\n%s\nCustomer question: %s", contextSummary, question)

	return c.chatCompletion(ctx, system, user, 256, 0.3)
}

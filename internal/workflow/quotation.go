package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPRNotApproved occurs when quotations are handled before PR approval.
	ErrPRNotApproved = errors.New("workflow: purchase request not approved")
	// ErrQuotationNotFound occurs when the chosen quotation is not among the candidates.
	ErrQuotationNotFound = errors.New("workflow: quotation not found")
)

// QuoteRef is the part of a quotation the winner selection looks at.
type QuoteRef struct {
	ID      int64
	Winning bool
}

// SelectWinner flags winnerID as the single winning quote of an approved
// purchase request. The input slice is left untouched.
func SelectWinner(prStatus Status, quotes []QuoteRef, winnerID int64) ([]QuoteRef, error) {
	if prStatus != StatusApproved {
		return nil, fmt.Errorf("%w: status %q", ErrPRNotApproved, prStatus)
	}
	out := make([]QuoteRef, len(quotes))
	found := false
	for i, q := range quotes {
		q.Winning = q.ID == winnerID
		found = found || q.Winning
		out[i] = q
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrQuotationNotFound, winnerID)
	}
	return out, nil
}

// DeliveryStatus tracks a delivery against a purchase order. It is kept
// apart from the purchase order status set.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "Pending"
	DeliveryConfirmed DeliveryStatus = "Confirmed"
	DeliveryCompleted DeliveryStatus = "Completed"
)

// ParseDeliveryStatus maps a raw backend value onto DeliveryStatus.
func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	norm := normaliseStatus(raw)
	for _, s := range []DeliveryStatus{DeliveryPending, DeliveryConfirmed, DeliveryCompleted} {
		if strings.EqualFold(string(s), norm) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: delivery %q", ErrUnknownStatus, raw)
}

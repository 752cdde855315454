package entity

import (
	"fmt"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

// WithStatus returns a copy of subject carrying status.
func WithStatus(subject workflow.Subject, status workflow.Status) (workflow.Subject, error) {
	switch s := subject.(type) {
	case LeaveRequest:
		s.Status = status
		return s, nil
	case PurchaseRequest:
		s.Status = status
		return s, nil
	case PurchaseOrder:
		s.Status = status
		return s, nil
	case Liquidation:
		s.Status = status
		return s, nil
	case CashAdvance:
		s.Status = status
		return s, nil
	case Disbursement:
		s.Status = status
		return s, nil
	}
	return nil, fmt.Errorf("entity: unsupported subject %T", subject)
}

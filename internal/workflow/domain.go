// Package workflow models the approval lifecycle shared by leave requests,
// purchase requests, purchase orders, liquidations, cash advances and
// disbursement vouchers.
//
// Purchase request graph:
//
//	Draft ──► Pending ──► Recommended ──► Approved
//	             │             │
//	             └─────────────┴──► Disapproved
//
// The backend stays authoritative; this package only decides what may be
// requested and what the optimistic next status is.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a workflow-bearing entity type.
type Kind string

const (
	KindLeaveRequest    Kind = "leave_request"
	KindPurchaseRequest Kind = "purchase_request"
	KindPurchaseOrder   Kind = "purchase_order"
	KindLiquidation     Kind = "liquidation"
	KindCashAdvance     Kind = "cash_advance"
	KindDisbursement    Kind = "disbursement"
)

// Kinds lists every workflow kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindLeaveRequest,
		KindPurchaseRequest,
		KindPurchaseOrder,
		KindLiquidation,
		KindCashAdvance,
		KindDisbursement,
	}
}

// ParseKind converts a raw kind string, accepting dashes in place of underscores.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := tables[k]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Resource returns the REST collection name for the kind.
func (k Kind) Resource() string {
	switch k {
	case KindLeaveRequest:
		return "leave-requests"
	case KindPurchaseRequest:
		return "purchase-requests"
	case KindPurchaseOrder:
		return "purchase-orders"
	case KindLiquidation:
		return "liquidations"
	case KindCashAdvance:
		return "cash-advances"
	case KindDisbursement:
		return "disbursements"
	}
	return ""
}

// Status is the backend display value of a lifecycle state.
type Status string

const (
	StatusDraft               Status = "Draft"
	StatusPending             Status = "Pending"
	StatusRecommended         Status = "Recommended"
	StatusApproved            Status = "Approved"
	StatusDisapproved         Status = "Disapproved"
	StatusCancelled           Status = "Cancelled"
	StatusSent                Status = "Sent"
	StatusDelivered           Status = "Delivered"
	StatusVerified            Status = "Verified"
	StatusReleased            Status = "Released"
	StatusPartiallyLiquidated Status = "Partially Liquidated"
	StatusFullyLiquidated     Status = "Fully Liquidated"
	StatusOverdue             Status = "Overdue"
	StatusCertified           Status = "Certified"
	StatusPaid                Status = "Paid"
)

// Action is a transition request issued by a user.
type Action string

const (
	ActionSubmit            Action = "submit"
	ActionRecommend         Action = "recommend"
	ActionApprove           Action = "approve"
	ActionDisapprove        Action = "disapprove"
	ActionReject            Action = "reject"
	ActionRequestQuotations Action = "request_quotations"
	ActionSend              Action = "send"
	ActionDeliver           Action = "deliver"
	ActionCancel            Action = "cancel"
	ActionCertify           Action = "certify"
	ActionPay               Action = "pay"
	ActionRelease           Action = "release"
	ActionVerify            Action = "verify"
	ActionLiquidate         Action = "liquidate"
	ActionLiquidateFull     Action = "liquidate_full"
	ActionMarkOverdue       Action = "mark_overdue"
)

// ParseAction converts a raw action string, accepting dashes in place of underscores.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := actionRoles[a]; ok {
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// Segment returns the URL path segment the backend exposes for the action.
func (a Action) Segment() string {
	switch a {
	case ActionReject:
		return "disapprove"
	case ActionRequestQuotations:
		return "request-quotations"
	case ActionLiquidateFull:
		return "liquidate-full"
	case ActionMarkOverdue:
		return "mark-overdue"
	}
	return string(a)
}

// RequiresReason reports whether the action must carry a non-blank reason.
func (a Action) RequiresReason() bool {
	switch a {
	case ActionDisapprove, ActionReject, ActionCancel:
		return true
	}
	return false
}

// Role is the acting user's position in the approval chain.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleSchoolHead        Role = "school_head"
	RoleDepartmentHead    Role = "department_head"
	RoleEmployee          Role = "employee"
	RoleBookkeeper        Role = "bookkeeper"
	RoleDisbursingOfficer Role = "disbursing_officer"
	RoleSupplyOfficer     Role = "supply_officer"
)

// ParseRole converts a raw role string; blank input is rejected.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_"))
	switch r {
	case RoleAdmin, RoleSchoolHead, RoleDepartmentHead, RoleEmployee,
		RoleBookkeeper, RoleDisbursingOfficer, RoleSupplyOfficer:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// Subject is a workflow-bearing entity as seen by the guard.
type Subject interface {
	WorkflowKind() Kind
	WorkflowID() int64
	WorkflowStatus() Status
}

var (
	// ErrUnknownKind indicates an entity type without a status model.
	ErrUnknownKind = errors.New("workflow: unknown kind")
	// ErrUnknownStatus indicates a status outside the kind's closed set.
	ErrUnknownStatus = errors.New("workflow: unknown status")
	// ErrUnknownAction indicates an unrecognised action name.
	ErrUnknownAction = errors.New("workflow: unknown action")
	// ErrUnknownRole indicates an unrecognised role name.
	ErrUnknownRole = errors.New("workflow: unknown role")
	// ErrInvalidTransition occurs when an action is not offered in the current status.
	ErrInvalidTransition = errors.New("workflow: invalid state transition")
	// ErrForbiddenAction occurs when the role may not perform the action.
	ErrForbiddenAction = errors.New("workflow: action not permitted for role")
	// ErrReasonRequired occurs when a disapproval, rejection or cancellation has no reason.
	ErrReasonRequired = errors.New("workflow: reason required")
)

// TransitionError describes a rejected transition.
type TransitionError struct {
	Kind   Kind
	Status Status
	Action Action
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s %s in status %q", e.Err, e.Action, e.Kind, e.Status)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

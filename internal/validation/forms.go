package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LeaveRequestForm is the leave application form.
type LeaveRequestForm struct {
	EmployeeID int64           `json:"employee_id" validate:"required"`
	LeaveType  string          `json:"leave_type" validate:"required,oneof=Vacation Sick Maternity Paternity Special Study Forced"`
	StartDate  time.Time       `json:"start_date" validate:"required"`
	EndDate    time.Time       `json:"end_date" validate:"required,gtefield=StartDate"`
	Days       decimal.Decimal `json:"days" validate:"gt=0"`
	Reason     string          `json:"reason" validate:"required,max=500"`
}

// ItemForm is one purchase request line.
type ItemForm struct {
	Description string          `json:"description" validate:"required"`
	Unit        string          `json:"unit" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitCost    decimal.Decimal `json:"unit_cost" validate:"gte=0"`
}

// PurchaseRequestForm is the purchase request form.
type PurchaseRequestForm struct {
	Purpose    string     `json:"purpose" validate:"required"`
	FundSource string     `json:"fund_source" validate:"required"`
	Items      []ItemForm `json:"items" validate:"min=1,dive"`
}

// Total returns the sum of line totals.
func (f PurchaseRequestForm) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range f.Items {
		total = total.Add(it.Quantity.Mul(it.UnitCost))
	}
	return total
}

// ExpenseForm logs an expense against a budget allocation.
type ExpenseForm struct {
	AllocationID int64           `json:"allocation_id" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Date         time.Time       `json:"date" validate:"required"`
}

// DisbursementForm prepares a disbursement voucher.
type DisbursementForm struct {
	Payee       string          `json:"payee" validate:"required"`
	FundSource  string          `json:"fund_source" validate:"required"`
	Particulars string          `json:"particulars" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
}

// CashAdvanceForm requests a cash advance.
type CashAdvanceForm struct {
	EmployeeID int64           `json:"employee_id" validate:"required"`
	Purpose    string          `json:"purpose" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	DueDate    time.Time       `json:"due_date" validate:"required"`
}

// ExpenseLine is one itemised liquidation expense.
type ExpenseLine struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	ORNumber    string          `json:"or_number"`
}

// LiquidationForm liquidates a cash advance.
type LiquidationForm struct {
	CashAdvanceID int64         `json:"cash_advance_id" validate:"required"`
	Expenses      []ExpenseLine `json:"expenses" validate:"min=1,dive"`
}

// TransitionForm is the confirmation dialog of a workflow action.
type TransitionForm struct {
	Action  workflow.Action `json:"action" validate:"required"`
	Reason  string          `json:"reason" validate:"max=500"`
	Remarks string          `json:"remarks" validate:"max=500"`
}

// ValidateTransition adds the reason rule for disapprove, reject and cancel.
func ValidateTransition(form TransitionForm) Errors {
	errs := Validate(form)
	if form.Action.RequiresReason() && strings.TrimSpace(form.Reason) == "" {
		errs["reason"] = "reason is required"
	}
	return errs
}

// MsgInsufficientBudget is reported on the amount field when an expense
// exceeds what is left of the allocation.
const MsgInsufficientBudget = "insufficient budget"

// ValidateExpense checks the form and that amount fits within the
// allocation's remaining budget.
func ValidateExpense(form ExpenseForm, allocation entity.BudgetAllocation) Errors {
	errs := Validate(form)
	if _, bad := errs["amount"]; bad {
		return errs
	}
	if form.Amount.GreaterThan(allocation.Remaining()) {
		errs["amount"] = MsgInsufficientBudget
	}
	return errs
}

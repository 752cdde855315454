package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

func validPR() PurchaseRequestForm {
	return PurchaseRequestForm{
		Purpose:    "Science lab supplies",
		FundSource: "MOOE",
		Items: []ItemForm{
			{Description: "Beaker 250ml", Unit: "pc", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(85)},
		},
	}
}

func TestValidFormHasNoErrors(t *testing.T) {
	require.Empty(t, Validate(validPR()))
	require.Empty(t, Validate(LoginForm{Email: "head@school.edu.ph", Password: "secret"}))

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.Empty(t, Validate(LeaveRequestForm{
		EmployeeID: 7, LeaveType: "Vacation", StartDate: start, EndDate: start.AddDate(0, 0, 2),
		Days: decimal.NewFromInt(3), Reason: "family event",
	}))
}

func TestMissingRequiredFieldIsKeyedByName(t *testing.T) {
	form := validPR()
	form.FundSource = ""
	errs := Validate(form)
	require.Equal(t, Errors{"fund_source": "fund source is required"}, errs)

	errs = Validate(LoginForm{Password: "x"})
	require.Contains(t, errs, "email")
	require.Len(t, errs, 1)
}

func TestNestedItemErrors(t *testing.T) {
	form := validPR()
	form.Items = append(form.Items, ItemForm{Description: "Bond paper", Unit: "ream", Quantity: decimal.Zero, UnitCost: decimal.NewFromInt(-1)})
	errs := Validate(form)
	require.Equal(t, "quantity must be greater than 0", errs["items[1].quantity"])
	require.Equal(t, "unit cost must be at least 0", errs["items[1].unit_cost"])

	form.Items = nil
	errs = Validate(form)
	require.Equal(t, "at least 1 items required", errs["items"])
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	form := validPR()
	form.Purpose = ""
	before := form
	_ = Validate(form)
	require.Equal(t, before, form)
}

func TestLeaveDatesOrdered(t *testing.T) {
	start := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)
	errs := Validate(LeaveRequestForm{
		EmployeeID: 7, LeaveType: "Sick", StartDate: start, EndDate: start.AddDate(0, 0, -1),
		Days: decimal.NewFromInt(1), Reason: "flu",
	})
	require.Equal(t, Errors{"end_date": "end date must not be before start date"}, errs)
}

func TestErrorsClearReturnsCopy(t *testing.T) {
	errs := Errors{"purpose": "purpose is required", "fund_source": "fund source is required"}
	cleared := errs.Clear("purpose")
	require.Equal(t, Errors{"fund_source": "fund source is required"}, cleared)
	require.Len(t, errs, 2)

	field, msg := errs.First()
	require.Equal(t, "fund_source", field)
	require.Equal(t, "fund source is required", msg)
	require.ErrorIs(t, errs.Err(), ErrInvalid)
	require.NoError(t, Errors{}.Err())
}

func TestValidateExpenseInsufficientBudget(t *testing.T) {
	alloc := entity.BudgetAllocation{ID: 1, FundSource: "MOOE", Allocated: decimal.NewFromInt(100000), Spent: decimal.NewFromInt(75000)}
	form := ExpenseForm{AllocationID: 1, Description: "Electricity", Amount: decimal.NewFromInt(30000), Date: time.Now()}

	errs := ValidateExpense(form, alloc)
	require.Equal(t, Errors{"amount": MsgInsufficientBudget}, errs)

	form.Amount = decimal.NewFromInt(25000)
	require.Empty(t, ValidateExpense(form, alloc))
}

func TestValidateTransitionReason(t *testing.T) {
	errs := ValidateTransition(TransitionForm{Action: workflow.ActionDisapprove})
	require.Equal(t, "reason is required", errs["reason"])

	require.Empty(t, ValidateTransition(TransitionForm{Action: workflow.ActionApprove}))
	require.Empty(t, ValidateTransition(TransitionForm{Action: workflow.ActionReject, Reason: "incomplete attachments"}))
}

func TestLiquidationForm(t *testing.T) {
	errs := Validate(LiquidationForm{CashAdvanceID: 3, Expenses: []ExpenseLine{{Description: "Snacks", Amount: decimal.NewFromInt(500)}}})
	require.Empty(t, errs)

	errs = Validate(LiquidationForm{Expenses: []ExpenseLine{{Description: "", Amount: decimal.NewFromInt(500)}}})
	require.Contains(t, errs, "cash_advance_id")
	require.Contains(t, errs, "expenses[0].description")
}

// Package entity holds the canonical internal shapes of backend records.
// Wire variants are folded into these types by the api package.
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

// User is the authenticated account returned by the login endpoint.
type User struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Role       workflow.Role `json:"role"`
	EmployeeID int64         `json:"employee_id,omitempty"`
}

// ActorRefs are back-references to the users behind each transition.
type ActorRefs struct {
	RequestedBy   int64 `json:"requested_by,omitempty"`
	RecommendedBy int64 `json:"recommended_by,omitempty"`
	ApprovedBy    int64 `json:"approved_by,omitempty"`
	DisapprovedBy int64 `json:"disapproved_by,omitempty"`
}

// Employee is a personnel (201 file) record.
type Employee struct {
	ID             int64     `json:"id"`
	EmployeeNumber string    `json:"employee_number"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Position       string    `json:"position"`
	Status         string    `json:"status"`
	DateHired      time.Time `json:"date_hired"`
}

// FullName joins the name parts.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// LeaveRequest is an employee leave application.
type LeaveRequest struct {
	ID         int64           `json:"id"`
	EmployeeID int64           `json:"employee_id"`
	LeaveType  string          `json:"leave_type"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	Days       decimal.Decimal `json:"days"`
	Reason     string          `json:"reason"`
	Status     workflow.Status `json:"status"`
	Remarks    string          `json:"remarks,omitempty"`
	ActorRefs
}

func (l LeaveRequest) WorkflowKind() workflow.Kind     { return workflow.KindLeaveRequest }
func (l LeaveRequest) WorkflowID() int64               { return l.ID }
func (l LeaveRequest) WorkflowStatus() workflow.Status { return l.Status }

// PurchaseRequestItem is a requested line.
type PurchaseRequestItem struct {
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// Total returns quantity × unit cost.
func (i PurchaseRequestItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitCost)
}

// PurchaseRequest is an internal request to buy goods or services.
type PurchaseRequest struct {
	ID          int64                 `json:"id"`
	PRNumber    string                `json:"pr_number"`
	Purpose     string                `json:"purpose"`
	FundSource  string                `json:"fund_source"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Status      workflow.Status       `json:"status"`
	Items       []PurchaseRequestItem `json:"items,omitempty"`
	Remarks     string                `json:"remarks,omitempty"`
	ActorRefs
}

func (p PurchaseRequest) WorkflowKind() workflow.Kind     { return workflow.KindPurchaseRequest }
func (p PurchaseRequest) WorkflowID() int64               { return p.ID }
func (p PurchaseRequest) WorkflowStatus() workflow.Status { return p.Status }

// Quotation is a supplier price offer against a purchase request.
type Quotation struct {
	ID                int64           `json:"id"`
	PurchaseRequestID int64           `json:"purchase_request_id"`
	Supplier          string          `json:"supplier"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	IsWinningQuote    bool            `json:"is_winning_quote"`
	SubmittedAt       time.Time       `json:"submitted_at"`
}

// PurchaseOrder is the commitment issued to the winning supplier.
type PurchaseOrder struct {
	ID                int64           `json:"id"`
	PONumber          string          `json:"po_number"`
	PurchaseRequestID int64           `json:"purchase_request_id"`
	Supplier          string          `json:"supplier"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            workflow.Status `json:"status"`
	ActorRefs
}

func (p PurchaseOrder) WorkflowKind() workflow.Kind     { return workflow.KindPurchaseOrder }
func (p PurchaseOrder) WorkflowID() int64               { return p.ID }
func (p PurchaseOrder) WorkflowStatus() workflow.Status { return p.Status }

// Delivery records goods received against a purchase order.
type Delivery struct {
	ID              int64                   `json:"id"`
	PurchaseOrderID int64                   `json:"purchase_order_id"`
	DeliveredAt     time.Time               `json:"delivered_at"`
	Status          workflow.DeliveryStatus `json:"status"`
}

// BudgetAllocation is the money assigned to one fund source.
type BudgetAllocation struct {
	ID         int64           `json:"id"`
	FundSource string          `json:"fund_source"`
	FiscalYear int             `json:"fiscal_year"`
	Allocated  decimal.Decimal `json:"allocated"`
	Spent      decimal.Decimal `json:"spent"`
}

// Remaining is allocated − spent.
func (b BudgetAllocation) Remaining() decimal.Decimal {
	return b.Allocated.Sub(b.Spent)
}

// Disbursement is a disbursement voucher (DV).
type Disbursement struct {
	ID         int64           `json:"id"`
	DVNumber   string          `json:"dv_number"`
	Payee      string          `json:"payee"`
	FundSource string          `json:"fund_source"`
	Amount     decimal.Decimal `json:"amount"`
	Status     workflow.Status `json:"status"`
	ActorRefs
}

func (d Disbursement) WorkflowKind() workflow.Kind     { return workflow.KindDisbursement }
func (d Disbursement) WorkflowID() int64               { return d.ID }
func (d Disbursement) WorkflowStatus() workflow.Status { return d.Status }

// CashAdvance is money released to an employee ahead of spending.
type CashAdvance struct {
	ID               int64           `json:"id"`
	CANumber         string          `json:"ca_number"`
	EmployeeID       int64           `json:"employee_id"`
	Purpose          string          `json:"purpose"`
	Amount           decimal.Decimal `json:"amount"`
	LiquidatedAmount decimal.Decimal `json:"liquidated_amount"`
	DueDate          time.Time       `json:"due_date"`
	Status           workflow.Status `json:"status"`
	ActorRefs
}

func (c CashAdvance) WorkflowKind() workflow.Kind     { return workflow.KindCashAdvance }
func (c CashAdvance) WorkflowID() int64               { return c.ID }
func (c CashAdvance) WorkflowStatus() workflow.Status { return c.Status }

// LiquidationExpense is one itemised expense in a liquidation.
type LiquidationExpense struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ORNumber    string          `json:"or_number,omitempty"`
}

// Liquidation reconciles a cash advance against actual expenses.
type Liquidation struct {
	ID            int64                `json:"id"`
	CashAdvanceID int64                `json:"cash_advance_id"`
	TotalExpenses decimal.Decimal      `json:"total_expenses"`
	Expenses      []LiquidationExpense `json:"expenses,omitempty"`
	Status        workflow.Status      `json:"status"`
	ActorRefs
}

func (l Liquidation) WorkflowKind() workflow.Kind     { return workflow.KindLiquidation }
func (l Liquidation) WorkflowID() int64               { return l.ID }
func (l Liquidation) WorkflowStatus() workflow.Status { return l.Status }

// InventoryItem is a stocked supply or equipment item.
type InventoryItem struct {
	ID           int64           `json:"id"`
	ItemCode     string          `json:"item_code"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// BelowReorder reports whether stock is at or under the reorder level.
func (i InventoryItem) BelowReorder() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderLevel)
}

// StockCard is one movement on an item's stock card.
type StockCard struct {
	ID              int64           `json:"id"`
	InventoryItemID int64           `json:"inventory_item_id"`
	Date            time.Time       `json:"date"`
	Reference       string          `json:"reference"`
	Receipt         decimal.Decimal `json:"receipt"`
	Issue           decimal.Decimal `json:"issue"`
	Balance         decimal.Decimal `json:"balance"`
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/validation"
)

// Personnel.

func (c *Client) Employees(ctx context.Context, p ListParams) (Page[entity.Employee], error) {
	return list(ctx, c, "/employees", p, employeeWire.entity)
}

func (c *Client) Employee(ctx context.Context, id int64) (entity.Employee, error) {
	return get(ctx, c, "/employees", id, employeeWire.entity)
}

func (c *Client) LeaveRequests(ctx context.Context, p ListParams) (Page[entity.LeaveRequest], error) {
	return list(ctx, c, "/leave-requests", p, leaveWire.entity)
}

func (c *Client) LeaveRequest(ctx context.Context, id int64) (entity.LeaveRequest, error) {
	return get(ctx, c, "/leave-requests", id, leaveWire.entity)
}

func (c *Client) CreateLeaveRequest(ctx context.Context, form validation.LeaveRequestForm) (entity.LeaveRequest, error) {
	return create(ctx, c, http.MethodPost, "/leave-requests", form, leaveWire.entity)
}

// Procurement.

func (c *Client) PurchaseRequests(ctx context.Context, p ListParams) (Page[entity.PurchaseRequest], error) {
	return list(ctx, c, "/purchase-requests", p, prWire.entity)
}

func (c *Client) PurchaseRequest(ctx context.Context, id int64) (entity.PurchaseRequest, error) {
	return get(ctx, c, "/purchase-requests", id, prWire.entity)
}

func (c *Client) CreatePurchaseRequest(ctx context.Context, form validation.PurchaseRequestForm) (entity.PurchaseRequest, error) {
	body := struct {
		validation.PurchaseRequestForm
		TotalAmount string `json:"total_amount"`
	}{form, form.Total().StringFixed(2)}
	return create(ctx, c, http.MethodPost, "/purchase-requests", body, prWire.entity)
}

// UpdatePurchaseRequest edits a request that is still a draft.
func (c *Client) UpdatePurchaseRequest(ctx context.Context, id int64, form validation.PurchaseRequestForm) (entity.PurchaseRequest, error) {
	return create(ctx, c, http.MethodPut, fmt.Sprintf("/purchase-requests/%d", id), form, prWire.entity)
}

func (c *Client) Quotations(ctx context.Context, p ListParams) (Page[entity.Quotation], error) {
	return list(ctx, c, "/quotations", p, quotationWire.entity)
}

// QuotationsFor lists the quotations received against one purchase request.
func (c *Client) QuotationsFor(ctx context.Context, purchaseRequestID int64) ([]entity.Quotation, error) {
	p := ListParams{Filters: map[string]string{"purchase_request_id": fmt.Sprint(purchaseRequestID)}}
	return All(ctx, p, c.Quotations)
}

// SelectQuotation marks a quotation as the winning quote and returns it.
func (c *Client) SelectQuotation(ctx context.Context, id int64) (entity.Quotation, error) {
	return create(ctx, c, http.MethodPost, fmt.Sprintf("/quotations/%d/select", id), struct{}{}, quotationWire.entity)
}

func (c *Client) PurchaseOrders(ctx context.Context, p ListParams) (Page[entity.PurchaseOrder], error) {
	return list(ctx, c, "/purchase-orders", p, poWire.entity)
}

func (c *Client) PurchaseOrder(ctx context.Context, id int64) (entity.PurchaseOrder, error) {
	return get(ctx, c, "/purchase-orders", id, poWire.entity)
}

func (c *Client) Deliveries(ctx context.Context, p ListParams) (Page[entity.Delivery], error) {
	return list(ctx, c, "/deliveries", p, deliveryWire.entity)
}

// Finance.

func (c *Client) BudgetAllocations(ctx context.Context, p ListParams) (Page[entity.BudgetAllocation], error) {
	return list(ctx, c, "/budget-allocations", p, budgetWire.entity)
}

func (c *Client) BudgetAllocation(ctx context.Context, id int64) (entity.BudgetAllocation, error) {
	return get(ctx, c, "/budget-allocations", id, budgetWire.entity)
}

// LogExpense records spending against an allocation and returns the
// allocation with its updated totals.
func (c *Client) LogExpense(ctx context.Context, form validation.ExpenseForm) (entity.BudgetAllocation, error) {
	return create(ctx, c, http.MethodPost, fmt.Sprintf("/budget-allocations/%d/expenses", form.AllocationID), form, budgetWire.entity)
}

func (c *Client) Disbursements(ctx context.Context, p ListParams) (Page[entity.Disbursement], error) {
	return list(ctx, c, "/disbursements", p, disbursementWire.entity)
}

func (c *Client) Disbursement(ctx context.Context, id int64) (entity.Disbursement, error) {
	return get(ctx, c, "/disbursements", id, disbursementWire.entity)
}

func (c *Client) CreateDisbursement(ctx context.Context, form validation.DisbursementForm) (entity.Disbursement, error) {
	return create(ctx, c, http.MethodPost, "/disbursements", form, disbursementWire.entity)
}

func (c *Client) CashAdvances(ctx context.Context, p ListParams) (Page[entity.CashAdvance], error) {
	return list(ctx, c, "/cash-advances", p, cashAdvanceWire.entity)
}

func (c *Client) CashAdvance(ctx context.Context, id int64) (entity.CashAdvance, error) {
	return get(ctx, c, "/cash-advances", id, cashAdvanceWire.entity)
}

func (c *Client) CreateCashAdvance(ctx context.Context, form validation.CashAdvanceForm) (entity.CashAdvance, error) {
	return create(ctx, c, http.MethodPost, "/cash-advances", form, cashAdvanceWire.entity)
}

func (c *Client) Liquidations(ctx context.Context, p ListParams) (Page[entity.Liquidation], error) {
	return list(ctx, c, "/liquidations", p, liquidationWire.entity)
}

func (c *Client) Liquidation(ctx context.Context, id int64) (entity.Liquidation, error) {
	return get(ctx, c, "/liquidations", id, liquidationWire.entity)
}

func (c *Client) CreateLiquidation(ctx context.Context, form validation.LiquidationForm) (entity.Liquidation, error) {
	return create(ctx, c, http.MethodPost, "/liquidations", form, liquidationWire.entity)
}

// Inventory.

func (c *Client) InventoryItems(ctx context.Context, p ListParams) (Page[entity.InventoryItem], error) {
	return list(ctx, c, "/inventory-items", p, inventoryItemWire.entity)
}

func (c *Client) InventoryItem(ctx context.Context, id int64) (entity.InventoryItem, error) {
	return get(ctx, c, "/inventory-items", id, inventoryItemWire.entity)
}

func (c *Client) StockCards(ctx context.Context, itemID int64, p ListParams) (Page[entity.StockCard], error) {
	return list(ctx, c, fmt.Sprintf("/inventory-items/%d/stock-cards", itemID), p, stockCardWire.entity)
}

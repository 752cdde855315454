package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// FundSummary aggregates allocations sharing a fund source.
type FundSummary struct {
	FundSource      string          `json:"fund_source"`
	Allocated       decimal.Decimal `json:"allocated"`
	Spent           decimal.Decimal `json:"spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
}

// BudgetSummary is the finance card totals.
type BudgetSummary struct {
	Allocated       decimal.Decimal `json:"allocated"`
	Spent           decimal.Decimal `json:"spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
	BySource        []FundSummary   `json:"by_source"`
}

// SummarizeBudget totals allocations overall and per fund source.
func SummarizeBudget(allocations []entity.BudgetAllocation) BudgetSummary {
	bySource := make(map[string]*FundSummary)
	for _, a := range allocations {
		fs, ok := bySource[a.FundSource]
		if !ok {
			fs = &FundSummary{FundSource: a.FundSource}
			bySource[a.FundSource] = fs
		}
		fs.Allocated = fs.Allocated.Add(a.Allocated)
		fs.Spent = fs.Spent.Add(a.Spent)
	}
	out := BudgetSummary{
		Allocated: SumBy(allocations, func(a entity.BudgetAllocation) decimal.Decimal { return a.Allocated }),
		Spent:     SumBy(allocations, func(a entity.BudgetAllocation) decimal.Decimal { return a.Spent }),
		BySource:  make([]FundSummary, 0, len(bySource)),
	}
	out.Remaining = Remaining(out.Allocated, out.Spent)
	out.UtilizationRate = UtilizationRate(out.Spent, out.Allocated)
	for _, key := range sortedKeys(bySource) {
		fs := *bySource[key]
		fs.Remaining = Remaining(fs.Allocated, fs.Spent)
		fs.UtilizationRate = UtilizationRate(fs.Spent, fs.Allocated)
		out.BySource = append(out.BySource, fs)
	}
	return out
}

// LeaveSummary is the personnel card for leave requests.
type LeaveSummary struct {
	Total        int             `json:"total"`
	Pending      int             `json:"pending"`
	Approved     int             `json:"approved"`
	Disapproved  int             `json:"disapproved"`
	ApprovedDays decimal.Decimal `json:"approved_days"`
	ByStatus     []StatusCount   `json:"by_status"`
}

// SummarizeLeave counts leave requests and sums approved leave days.
func SummarizeLeave(requests []entity.LeaveRequest) LeaveSummary {
	counts := CountByStatus(workflow.KindLeaveRequest, requests)
	return LeaveSummary{
		Total:       len(requests),
		Pending:     CountOf(counts, workflow.StatusPending),
		Approved:    CountOf(counts, workflow.StatusApproved),
		Disapproved: CountOf(counts, workflow.StatusDisapproved),
		ApprovedDays: SumBy(requests, func(l entity.LeaveRequest) decimal.Decimal {
			if l.Status != workflow.StatusApproved {
				return decimal.Zero
			}
			return l.Days
		}),
		ByStatus: counts,
	}
}

// ProcurementSummary is the procurement card totals.
type ProcurementSummary struct {
	PurchaseRequests int             `json:"purchase_requests"`
	AwaitingAction   int             `json:"awaiting_action"`
	ApprovedAmount   decimal.Decimal `json:"approved_amount"`
	PurchaseOrders   int             `json:"purchase_orders"`
	OpenOrderAmount  decimal.Decimal `json:"open_order_amount"`
	ApprovalRate     decimal.Decimal `json:"approval_rate"`
	RequestsByStatus []StatusCount   `json:"requests_by_status"`
	OrdersByStatus   []StatusCount   `json:"orders_by_status"`
}

// SummarizeProcurement aggregates purchase requests and orders.
func SummarizeProcurement(prs []entity.PurchaseRequest, pos []entity.PurchaseOrder) ProcurementSummary {
	prCounts := CountByStatus(workflow.KindPurchaseRequest, prs)
	approved := CountOf(prCounts, workflow.StatusApproved)
	decided := approved + CountOf(prCounts, workflow.StatusDisapproved)
	return ProcurementSummary{
		PurchaseRequests: len(prs),
		AwaitingAction:   CountOf(prCounts, workflow.StatusPending) + CountOf(prCounts, workflow.StatusRecommended),
		ApprovedAmount: SumBy(prs, func(p entity.PurchaseRequest) decimal.Decimal {
			if p.Status != workflow.StatusApproved {
				return decimal.Zero
			}
			return p.TotalAmount
		}),
		PurchaseOrders: len(pos),
		OpenOrderAmount: SumBy(pos, func(p entity.PurchaseOrder) decimal.Decimal {
			if workflow.IsTerminal(workflow.KindPurchaseOrder, p.Status) {
				return decimal.Zero
			}
			return p.TotalAmount
		}),
		ApprovalRate:     Percent(approved, decided),
		RequestsByStatus: prCounts,
		OrdersByStatus:   CountByStatus(workflow.KindPurchaseOrder, pos),
	}
}

// CashAdvanceSummary reports unliquidated and overdue advances.
type CashAdvanceSummary struct {
	Total       int             `json:"total"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Overdue     int             `json:"overdue"`
	ByStatus    []StatusCount   `json:"by_status"`
}

// SummarizeCashAdvances computes outstanding = amount − liquidated over
// released, partially liquidated and overdue advances. An advance past its due
// date that is still unliquidated counts as overdue even before the backend
// flags it.
func SummarizeCashAdvances(advances []entity.CashAdvance, now time.Time) CashAdvanceSummary {
	out := CashAdvanceSummary{
		Total:    len(advances),
		ByStatus: CountByStatus(workflow.KindCashAdvance, advances),
	}
	for _, ca := range advances {
		switch ca.Status {
		case workflow.StatusReleased, workflow.StatusPartiallyLiquidated, workflow.StatusOverdue:
		default:
			continue
		}
		if bal := ca.Amount.Sub(ca.LiquidatedAmount); bal.IsPositive() {
			out.Outstanding = out.Outstanding.Add(bal)
		}
		if ca.Status == workflow.StatusOverdue || (!ca.DueDate.IsZero() && now.After(ca.DueDate)) {
			out.Overdue++
		}
	}
	return out
}

// DisbursementSummary splits vouchers into paid and pending totals.
type DisbursementSummary struct {
	Count    int             `json:"count"`
	Paid     decimal.Decimal `json:"paid"`
	Pending  decimal.Decimal `json:"pending"`
	ByStatus []StatusCount   `json:"by_status"`
}

// SummarizeDisbursements totals paid and unpaid vouchers.
func SummarizeDisbursements(dvs []entity.Disbursement) DisbursementSummary {
	out := DisbursementSummary{Count: len(dvs), ByStatus: CountByStatus(workflow.KindDisbursement, dvs)}
	for _, dv := range dvs {
		if dv.Status == workflow.StatusPaid {
			out.Paid = out.Paid.Add(dv.Amount)
			continue
		}
		out.Pending = out.Pending.Add(dv.Amount)
	}
	return out
}

// InventorySummary is the inventory card.
type InventorySummary struct {
	Items      int             `json:"items"`
	LowStock   int             `json:"low_stock"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// SummarizeInventory counts items under reorder level and values stock at cost.
func SummarizeInventory(items []entity.InventoryItem) InventorySummary {
	return InventorySummary{
		Items:    len(items),
		LowStock: CountBy(items, entity.InventoryItem.BelowReorder),
		StockValue: SumBy(items, func(i entity.InventoryItem) decimal.Decimal {
			return i.Quantity.Mul(i.UnitCost)
		}),
	}
}

// LiquidationBalance is the outcome of reconciling an advance.
type LiquidationBalance struct {
	Advance        decimal.Decimal `json:"advance"`
	Expenses       decimal.Decimal `json:"expenses"`
	Refund         decimal.Decimal `json:"refund"`
	AdditionalCash decimal.Decimal `json:"additional_cash"`
}

// BalanceLiquidation compares the advance against itemised expenses: an
// underspend is refunded, an overspend needs additional cash.
func BalanceLiquidation(advance decimal.Decimal, expenses []entity.LiquidationExpense) LiquidationBalance {
	spent := SumBy(expenses, func(e entity.LiquidationExpense) decimal.Decimal { return e.Amount })
	out := LiquidationBalance{Advance: advance, Expenses: spent}
	diff := advance.Sub(spent)
	if diff.IsPositive() {
		out.Refund = diff
	} else {
		out.AdditionalCash = diff.Neg()
	}
	return out
}

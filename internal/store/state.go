package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// Finance is the finance slice.
type Finance struct {
	Allocations   []entity.BudgetAllocation
	Disbursements []entity.Disbursement
	CashAdvances  []entity.CashAdvance
	Liquidations  []entity.Liquidation
}

func (f Finance) clone() Finance {
	return Finance{
		Allocations:   slices.Clone(f.Allocations),
		Disbursements: slices.Clone(f.Disbursements),
		CashAdvances:  slices.Clone(f.CashAdvances),
		Liquidations:  slices.Clone(f.Liquidations),
	}
}

// Procurement is the procurement slice.
type Procurement struct {
	PurchaseRequests []entity.PurchaseRequest
	Quotations       []entity.Quotation
	PurchaseOrders   []entity.PurchaseOrder
	Deliveries       []entity.Delivery
}

func (p Procurement) clone() Procurement {
	return Procurement{
		PurchaseRequests: slices.Clone(p.PurchaseRequests),
		Quotations:       slices.Clone(p.Quotations),
		PurchaseOrders:   slices.Clone(p.PurchaseOrders),
		Deliveries:       slices.Clone(p.Deliveries),
	}
}

// Personnel is the personnel slice.
type Personnel struct {
	Employees     []entity.Employee
	LeaveRequests []entity.LeaveRequest
}

func (p Personnel) clone() Personnel {
	return Personnel{
		Employees:     slices.Clone(p.Employees),
		LeaveRequests: slices.Clone(p.LeaveRequests),
	}
}

// Inventory is the inventory slice.
type Inventory struct {
	Items      []entity.InventoryItem
	StockCards []entity.StockCard
}

func (i Inventory) clone() Inventory {
	return Inventory{
		Items:      slices.Clone(i.Items),
		StockCards: slices.Clone(i.StockCards),
	}
}

// State aggregates every slice of the client cache.
type State struct {
	Auth        *Slice[session.Auth]
	Finance     *Slice[Finance]
	Procurement *Slice[Procurement]
	Personnel   *Slice[Personnel]
	Inventory   *Slice[Inventory]
}

// New starts an empty State.
func New() *State {
	return &State{
		Auth:        NewSlice(session.Auth{}, nil),
		Finance:     NewSlice(Finance{}, Finance.clone),
		Procurement: NewSlice(Procurement{}, Procurement.clone),
		Personnel:   NewSlice(Personnel{}, Personnel.clone),
		Inventory:   NewSlice(Inventory{}, Inventory.clone),
	}
}

// Close stops every slice.
func (s *State) Close() {
	s.Auth.Close()
	s.Finance.Close()
	s.Procurement.Close()
	s.Personnel.Close()
	s.Inventory.Close()
}

// Subject looks up a cached workflow entity.
func (s *State) Subject(kind workflow.Kind, id int64) (workflow.Subject, bool) {
	switch kind {
	case workflow.KindLeaveRequest:
		return find(s.Personnel.Snapshot().LeaveRequests, id)
	case workflow.KindPurchaseRequest:
		return find(s.Procurement.Snapshot().PurchaseRequests, id)
	case workflow.KindPurchaseOrder:
		return find(s.Procurement.Snapshot().PurchaseOrders, id)
	case workflow.KindLiquidation:
		return find(s.Finance.Snapshot().Liquidations, id)
	case workflow.KindCashAdvance:
		return find(s.Finance.Snapshot().CashAdvances, id)
	case workflow.KindDisbursement:
		return find(s.Finance.Snapshot().Disbursements, id)
	}
	return nil, false
}

// ReplaceSubject stores subject in its slice, replacing the entry with the
// same id or appending when absent.
func (s *State) ReplaceSubject(ctx context.Context, subject workflow.Subject) error {
	var err error
	switch v := subject.(type) {
	case entity.LeaveRequest:
		_, err = s.Personnel.Update(ctx, func(p Personnel) Personnel {
			p.LeaveRequests = upsert(p.LeaveRequests, v)
			return p
		})
	case entity.PurchaseRequest:
		_, err = s.Procurement.Update(ctx, func(p Procurement) Procurement {
			p.PurchaseRequests = upsert(p.PurchaseRequests, v)
			return p
		})
	case entity.PurchaseOrder:
		_, err = s.Procurement.Update(ctx, func(p Procurement) Procurement {
			p.PurchaseOrders = upsert(p.PurchaseOrders, v)
			return p
		})
	case entity.Liquidation:
		_, err = s.Finance.Update(ctx, func(f Finance) Finance {
			f.Liquidations = upsert(f.Liquidations, v)
			return f
		})
	case entity.CashAdvance:
		_, err = s.Finance.Update(ctx, func(f Finance) Finance {
			f.CashAdvances = upsert(f.CashAdvances, v)
			return f
		})
	case entity.Disbursement:
		_, err = s.Finance.Update(ctx, func(f Finance) Finance {
			f.Disbursements = upsert(f.Disbursements, v)
			return f
		})
	default:
		return fmt.Errorf("store: unsupported subject %T", subject)
	}
	return err
}

// ReplaceAllocation stores an updated budget allocation.
func (s *State) ReplaceAllocation(ctx context.Context, a entity.BudgetAllocation) error {
	_, err := s.Finance.Update(ctx, func(f Finance) Finance {
		i := slices.IndexFunc(f.Allocations, func(x entity.BudgetAllocation) bool { return x.ID == a.ID })
		if i < 0 {
			f.Allocations = append(f.Allocations, a)
		} else {
			f.Allocations[i] = a
		}
		return f
	})
	return err
}

func find[T workflow.Subject](items []T, id int64) (workflow.Subject, bool) {
	for _, it := range items {
		if it.WorkflowID() == id {
			return it, true
		}
	}
	return nil, false
}

func upsert[T workflow.Subject](items []T, v T) []T {
	for i, it := range items {
		if it.WorkflowID() == v.WorkflowID() {
			items[i] = v
			return items
		}
	}
	return append(items, v)
}

// Package dashboard assembles the summary cards of each module dashboard.
// The lists behind a dashboard are fetched concurrently and joined before
// the summaries are computed; results are cached in Redis until a mutation
// bumps the cache version.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/platform/cache"
	"github.com/jehnsen/admin-suite/internal/stats"
	"github.com/jehnsen/admin-suite/internal/store"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// ErrUnknownDashboard is returned for names outside Names().
var ErrUnknownDashboard = errors.New("dashboard: unknown dashboard")

// Source lists backend records. *api.Client satisfies it.
type Source interface {
	BudgetAllocations(ctx context.Context, p api.ListParams) (api.Page[entity.BudgetAllocation], error)
	Disbursements(ctx context.Context, p api.ListParams) (api.Page[entity.Disbursement], error)
	CashAdvances(ctx context.Context, p api.ListParams) (api.Page[entity.CashAdvance], error)
	PurchaseRequests(ctx context.Context, p api.ListParams) (api.Page[entity.PurchaseRequest], error)
	PurchaseOrders(ctx context.Context, p api.ListParams) (api.Page[entity.PurchaseOrder], error)
	Employees(ctx context.Context, p api.ListParams) (api.Page[entity.Employee], error)
	LeaveRequests(ctx context.Context, p api.ListParams) (api.Page[entity.LeaveRequest], error)
	InventoryItems(ctx context.Context, p api.ListParams) (api.Page[entity.InventoryItem], error)
}

// Finance is the finance dashboard.
type Finance struct {
	Budget        stats.BudgetSummary       `json:"budget"`
	Disbursements stats.DisbursementSummary `json:"disbursements"`
	CashAdvances  stats.CashAdvanceSummary  `json:"cash_advances"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}

// Procurement is the procurement dashboard.
type Procurement struct {
	stats.ProcurementSummary
	GeneratedAt time.Time `json:"generated_at"`
}

// Personnel is the personnel dashboard.
type Personnel struct {
	Employees   int                `json:"employees"`
	Leave       stats.LeaveSummary `json:"leave"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Inventory is the inventory dashboard.
type Inventory struct {
	stats.InventorySummary
	LowStockItems []entity.InventoryItem `json:"low_stock_items"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// Dashboard names.
const (
	NameFinance     = "finance"
	NameProcurement = "procurement"
	NamePersonnel   = "personnel"
	NameInventory   = "inventory"
)

// Names lists every dashboard.
func Names() []string {
	return []string{NameFinance, NameProcurement, NamePersonnel, NameInventory}
}

// ForKind returns the dashboards that summarise records of kind.
func ForKind(kind workflow.Kind) []string {
	switch kind {
	case workflow.KindLeaveRequest:
		return []string{NamePersonnel}
	case workflow.KindPurchaseRequest, workflow.KindPurchaseOrder:
		return []string{NameProcurement}
	case workflow.KindLiquidation, workflow.KindCashAdvance, workflow.KindDisbursement:
		return []string{NameFinance}
	}
	return nil
}

const pageSize = 100

// Service builds dashboards.
type Service struct {
	source Source
	cache  *cache.Versioned
	state  *store.State
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs Service. cache and state may be nil.
func NewService(source Source, c *cache.Versioned, state *store.State, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: c, state: state, logger: logger, now: time.Now}
}

// Get returns the named dashboard.
func (s *Service) Get(ctx context.Context, name string) (any, error) {
	switch name {
	case NameFinance:
		return s.Finance(ctx)
	case NameProcurement:
		return s.Procurement(ctx)
	case NamePersonnel:
		return s.Personnel(ctx)
	case NameInventory:
		return s.Inventory(ctx)
	}
	return nil, ErrUnknownDashboard
}

// Finance returns the finance dashboard.
func (s *Service) Finance(ctx context.Context) (Finance, error) {
	var out Finance
	err := s.cached(ctx, NameFinance, &out, func(ctx context.Context) (any, error) {
		ticket := begin(s.financeSlice(), NameFinance)
		var (
			allocations []entity.BudgetAllocation
			dvs         []entity.Disbursement
			advances    []entity.CashAdvance
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			allocations, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.BudgetAllocations)
			return err
		})
		g.Go(func() (err error) {
			dvs, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.Disbursements)
			return err
		})
		g.Go(func() (err error) {
			advances, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.CashAdvances)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		commit(ctx, s.financeSlice(), ticket, func(f store.Finance) store.Finance {
			f.Allocations, f.Disbursements, f.CashAdvances = allocations, dvs, advances
			return f
		})
		now := s.now()
		return Finance{
			Budget:        stats.SummarizeBudget(allocations),
			Disbursements: stats.SummarizeDisbursements(dvs),
			CashAdvances:  stats.SummarizeCashAdvances(advances, now),
			GeneratedAt:   now,
		}, nil
	})
	return out, err
}

// Procurement returns the procurement dashboard.
func (s *Service) Procurement(ctx context.Context) (Procurement, error) {
	var out Procurement
	err := s.cached(ctx, NameProcurement, &out, func(ctx context.Context) (any, error) {
		ticket := begin(s.procurementSlice(), NameProcurement)
		var (
			prs []entity.PurchaseRequest
			pos []entity.PurchaseOrder
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			prs, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.PurchaseRequests)
			return err
		})
		g.Go(func() (err error) {
			pos, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.PurchaseOrders)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		commit(ctx, s.procurementSlice(), ticket, func(p store.Procurement) store.Procurement {
			p.PurchaseRequests, p.PurchaseOrders = prs, pos
			return p
		})
		return Procurement{ProcurementSummary: stats.SummarizeProcurement(prs, pos), GeneratedAt: s.now()}, nil
	})
	return out, err
}

// Personnel returns the personnel dashboard.
func (s *Service) Personnel(ctx context.Context) (Personnel, error) {
	var out Personnel
	err := s.cached(ctx, NamePersonnel, &out, func(ctx context.Context) (any, error) {
		ticket := begin(s.personnelSlice(), NamePersonnel)
		var (
			employees []entity.Employee
			leaves    []entity.LeaveRequest
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			employees, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.Employees)
			return err
		})
		g.Go(func() (err error) {
			leaves, err = api.All(gctx, api.ListParams{PerPage: pageSize}, s.source.LeaveRequests)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		commit(ctx, s.personnelSlice(), ticket, func(p store.Personnel) store.Personnel {
			p.Employees, p.LeaveRequests = employees, leaves
			return p
		})
		return Personnel{Employees: len(employees), Leave: stats.SummarizeLeave(leaves), GeneratedAt: s.now()}, nil
	})
	return out, err
}

// Inventory returns the inventory dashboard.
func (s *Service) Inventory(ctx context.Context) (Inventory, error) {
	var out Inventory
	err := s.cached(ctx, NameInventory, &out, func(ctx context.Context) (any, error) {
		ticket := begin(s.inventorySlice(), NameInventory)
		items, err := api.All(ctx, api.ListParams{PerPage: pageSize}, s.source.InventoryItems)
		if err != nil {
			return nil, err
		}
		commit(ctx, s.inventorySlice(), ticket, func(i store.Inventory) store.Inventory {
			i.Items = items
			return i
		})
		low := make([]entity.InventoryItem, 0)
		for _, it := range items {
			if it.BelowReorder() {
				low = append(low, it)
			}
		}
		return Inventory{InventorySummary: stats.SummarizeInventory(items), LowStockItems: low, GeneratedAt: s.now()}, nil
	})
	return out, err
}

// Invalidate drops every cached dashboard.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
		return err
	}
	return nil
}

// Warm rebuilds every dashboard so the next reader hits the cache.
func (s *Service) Warm(ctx context.Context) error {
	var errs []error
	for _, name := range Names() {
		if _, err := s.Get(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) cached(ctx context.Context, name string, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.Key(ctx, "dashboard", name)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.String("dashboard", name), slog.Any("error", err))
		return (*cache.Versioned)(nil).FetchJSON(ctx, name, dest, loader)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func (s *Service) financeSlice() *store.Slice[store.Finance] {
	if s.state == nil {
		return nil
	}
	return s.state.Finance
}

func (s *Service) procurementSlice() *store.Slice[store.Procurement] {
	if s.state == nil {
		return nil
	}
	return s.state.Procurement
}

func (s *Service) personnelSlice() *store.Slice[store.Personnel] {
	if s.state == nil {
		return nil
	}
	return s.state.Personnel
}

func (s *Service) inventorySlice() *store.Slice[store.Inventory] {
	if s.state == nil {
		return nil
	}
	return s.state.Inventory
}

func begin[S any](slice *store.Slice[S], key string) store.Ticket {
	if slice == nil {
		return store.Ticket{}
	}
	return slice.Begin(key)
}

// commit stores fetched lists unless a newer load for the same key started.
func commit[S any](ctx context.Context, slice *store.Slice[S], t store.Ticket, fn func(S) S) {
	if slice == nil {
		return
	}
	_, _ = slice.Commit(ctx, t, fn)
}

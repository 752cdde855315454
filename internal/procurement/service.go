// Package procurement handles purchase request filing and quotation award.
package procurement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/store"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// BackendPort is the slice of the REST client the service uses.
type BackendPort interface {
	PurchaseRequest(ctx context.Context, id int64) (entity.PurchaseRequest, error)
	CreatePurchaseRequest(ctx context.Context, form validation.PurchaseRequestForm) (entity.PurchaseRequest, error)
	QuotationsFor(ctx context.Context, purchaseRequestID int64) ([]entity.Quotation, error)
	SelectQuotation(ctx context.Context, id int64) (entity.Quotation, error)
}

// Invalidator drops cached summaries after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service orchestrates procurement mutations.
type Service struct {
	backend BackendPort
	state   *store.State
	cache   Invalidator
	logger  *slog.Logger
}

// NewService constructs the procurement service. state and cache may be nil.
func NewService(backend BackendPort, state *store.State, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, state: state, cache: cache, logger: logger}
}

// FilePurchaseRequest validates and files a purchase request as a draft.
func (s *Service) FilePurchaseRequest(ctx context.Context, form validation.PurchaseRequestForm) (entity.PurchaseRequest, error) {
	if errs := validation.Validate(form); !errs.Valid() {
		return entity.PurchaseRequest{}, errs.Err()
	}
	pr, err := s.backend.CreatePurchaseRequest(ctx, form)
	if err != nil {
		return entity.PurchaseRequest{}, err
	}
	if s.state != nil {
		if err := s.state.ReplaceSubject(ctx, pr); err != nil {
			s.logger.Warn("cache purchase request", slog.Any("error", err))
		}
	}
	s.invalidate(ctx)
	return pr, nil
}

// SelectWinningQuote awards a purchase request to one quotation. The request
// must be approved and the quotation must belong to it; both are checked
// before the backend is called. The returned quotations carry exactly one
// winner.
func (s *Service) SelectWinningQuote(ctx context.Context, purchaseRequestID, quotationID int64) ([]entity.Quotation, error) {
	pr, err := s.backend.PurchaseRequest(ctx, purchaseRequestID)
	if err != nil {
		return nil, err
	}
	quotes, err := s.backend.QuotationsFor(ctx, purchaseRequestID)
	if err != nil {
		return nil, err
	}
	refs := make([]workflow.QuoteRef, 0, len(quotes))
	for _, q := range quotes {
		refs = append(refs, workflow.QuoteRef{ID: q.ID, Winning: q.IsWinningQuote})
	}
	marked, err := workflow.SelectWinner(pr.Status, refs, quotationID)
	if err != nil {
		return nil, fmt.Errorf("procurement: purchase request %d: %w", purchaseRequestID, err)
	}

	winner, err := s.backend.SelectQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Quotation, len(quotes))
	for i, q := range quotes {
		q.IsWinningQuote = marked[i].Winning
		if q.ID == winner.ID {
			q = winner
			q.IsWinningQuote = true
		}
		out[i] = q
	}
	if s.state != nil {
		_, err := s.state.Procurement.Update(ctx, func(p store.Procurement) store.Procurement {
			kept := p.Quotations[:0]
			for _, q := range p.Quotations {
				if q.PurchaseRequestID != purchaseRequestID {
					kept = append(kept, q)
				}
			}
			p.Quotations = append(kept, out...)
			return p
		})
		if err != nil {
			s.logger.Warn("cache quotations", slog.Any("error", err))
		}
	}
	s.logger.Info("quotation awarded", slog.Int64("purchase_request_id", purchaseRequestID), slog.Int64("quotation_id", quotationID))
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate dashboards", slog.Any("error", err))
	}
}

// Package service implements promotion scope matching, discount calculation
// and the apply-promotion write sequence.
package service

import (
	"context"
	"strings"
	"time"

	"sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/platform/logger"
)

// ListQuery filters the promotion listing and supplies the match context.
type ListQuery struct {
	ProductCode       string
	ProductGroupCodes string
	CustomerCode      string
	PaymentTerms      string
}

// AnnotatedPromotion is a promotion with its applicability verdict for the
// queried context.
type AnnotatedPromotion struct {
	Promotion            repository.Promotion
	Applicable           bool
	PaymentTermsMismatch bool
	WarningMessage       string
}

// Service lists promotions annotated with applicability.
type Service struct {
	store   repository.PromotionStore
	matcher *ScopeMatcher
	log     *logger.Logger
	now     func() time.Time
}

// New creates the promotion listing service.
func New(store repository.PromotionStore, matcher *ScopeMatcher, log *logger.Logger) *Service {
	return &Service{store: store, matcher: matcher, log: log, now: time.Now}
}

// List returns all active promotions, each annotated against the queried
// product/customer/payment-term context. Promotions outside their date
// window are filtered out entirely; every other inapplicability is reported
// on the promotion so callers can render the reason.
func (s *Service) List(ctx context.Context, q ListQuery) ([]AnnotatedPromotion, error) {
	promotions, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]AnnotatedPromotion, 0, len(promotions))
	for _, p := range promotions {
		if !p.StartDate.IsZero() && p.StartDate.After(now) {
			continue
		}
		if p.EndDate != nil && p.EndDate.Before(now) {
			continue
		}

		annotated := AnnotatedPromotion{Promotion: p}
		// A group-code query may carry several groups; the promotion is
		// applicable if any of them falls in scope.
		groups := splitTokens(q.ProductGroupCodes)
		if len(groups) == 0 {
			groups = []string{""}
		}
		for _, group := range groups {
			result := s.matcher.Match(p, MatchContext{
				ProductCode:      strings.TrimSpace(q.ProductCode),
				ProductGroupCode: group,
				CustomerCode:     strings.TrimSpace(q.CustomerCode),
				PaymentTermCode:  strings.TrimSpace(q.PaymentTerms),
				Now:              now,
			})
			annotated.Applicable = result.Applicable
			annotated.PaymentTermsMismatch = result.PaymentTermsMismatch
			annotated.WarningMessage = result.WarningMessage
			if result.Applicable {
				break
			}
		}
		out = append(out, annotated)
	}
	return out, nil
}

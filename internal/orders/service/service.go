// Package service recomputes order-level monetary aggregates.
package service

import (
	"context"
	"encoding/json"
	"time"

	"sales_pricing_backend/internal/events"
	"sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Service is the order aggregate recalculator plus the cached order read.
// Recalculation only aggregates whatever discounted prices are already
// stored on the lines; it never re-reads or re-applies promotions, so
// repeated calls are idempotent.
type Service struct {
	repo  repository.Repository
	bus   events.Bus
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// New creates the service. Pass a no-op cache where cached reads are not
// wanted, such as the background worker.
func New(repo repository.Repository, bus events.Bus, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, cache: c, ttl: ttl, log: log}
}

// Detail is the order header with its active lines.
type Detail struct {
	Summary repository.OrderSummary
	Lines   []repository.OrderLine
}

func detailKey(kind repository.OrderKind, orderID string) string {
	return cache.Key("orders", string(kind), orderID)
}

// GetDetail returns the order header and lines, served from cache when a
// recent read exists. Writes to the order invalidate the cached detail
// through the PromotionApplied and OrderRecalculated events.
func (s *Service) GetDetail(ctx context.Context, kind repository.OrderKind, orderID string) (Detail, error) {
	key := detailKey(kind, orderID)
	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var detail Detail
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail, nil
		}
	}

	summary, err := s.repo.GetSummary(ctx, kind, orderID)
	if err != nil {
		return Detail{}, err
	}
	lines, err := s.repo.ListActiveLines(ctx, kind, orderID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Summary: summary, Lines: lines}
	if raw, err := json.Marshal(detail); err == nil {
		_ = s.cache.Set(ctx, key, raw, s.ttl)
	}
	return detail, nil
}

// InvalidateDetail drops the cached read after a write landed on the order.
func (s *Service) InvalidateDetail(ctx context.Context, kind repository.OrderKind, orderID string) error {
	return s.cache.InvalidatePattern(ctx, detailKey(kind, orderID)+"*")
}

// Recalculate reads every active line of the order, recomputes subtotal, VAT
// and total, writes them back and returns the new aggregates.
//
// Rounding happens exactly once, at the order level: per-line amounts stay
// exact, the summed subtotal and VAT are each rounded to the nearest currency
// unit, and the total is their sum, so subtotal + vatAmount == total always
// holds on the written aggregates.
func (s *Service) Recalculate(ctx context.Context, kind repository.OrderKind, orderID string) (repository.Aggregates, error) {
	lines, err := s.repo.ListActiveLines(ctx, kind, orderID)
	if err != nil {
		return repository.Aggregates{}, err
	}

	agg := Compute(lines)

	if err := s.repo.UpdateAggregates(ctx, kind, orderID, agg); err != nil {
		return repository.Aggregates{}, err
	}

	s.log.WithContext(ctx).Info("order aggregates recalculated",
		"order_id", orderID,
		"kind", string(kind),
		"subtotal", agg.Subtotal.String(),
		"vat", agg.VATAmount.String(),
		"total", agg.Total.String(),
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.OrderRecalculated{
			BaseEvent: events.NewBaseEvent(),
			OrderID:   orderID,
			OrderKind: string(kind),
			Subtotal:  agg.Subtotal.String(),
			VATAmount: agg.VATAmount.String(),
			Total:     agg.Total.String(),
		})
	}
	return agg, nil
}

// Compute derives the aggregates from a set of lines without touching storage.
func Compute(lines []repository.OrderLine) repository.Aggregates {
	subtotal := decimal.Zero
	vat := decimal.Zero

	for _, line := range lines {
		lineSubtotal := line.EffectiveUnitPrice().Mul(line.Quantity)
		lineVAT := lineSubtotal.Mul(decimal.NewFromInt(int64(line.VATRate))).Div(oneHundred)
		subtotal = subtotal.Add(lineSubtotal)
		vat = vat.Add(lineVAT)
	}

	roundedSubtotal := subtotal.Round(0)
	roundedVAT := vat.Round(0)
	return repository.Aggregates{
		Subtotal:  roundedSubtotal,
		VATAmount: roundedVAT,
		Total:     roundedSubtotal.Add(roundedVAT),
	}
}

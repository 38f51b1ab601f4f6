package service

import (
	"context"
	"fmt"

	"sales_pricing_backend/internal/events"
	ordersrepo "sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// applyState names the saga steps for logging. The write chain against the
// remote system is sequenced, not transactional; each state marks a point
// the operation can be resumed or audited from.
type applyState string

const (
	stateStart           applyState = "start"
	stateValidated       applyState = "validated"
	stateReused          applyState = "reused"
	stateCreated         applyState = "created"
	stateLinesScoped     applyState = "lines-scoped"
	stateLinesDiscounted applyState = "lines-discounted"
	stateRecalculated    applyState = "recalculated"
	stateDone            applyState = "done"
	stateRejected        applyState = "rejected"
	statePartial         applyState = "partial"
)

// Recalculator recomputes and persists order aggregates.
type Recalculator interface {
	Recalculate(ctx context.Context, kind ordersrepo.OrderKind, orderID string) (ordersrepo.Aggregates, error)
}

// ReconcileScheduler enqueues a deferred recalculation for orders whose
// inline recalculation failed after a successful discount write.
type ReconcileScheduler interface {
	EnqueueRecalculate(ctx context.Context, kind ordersrepo.OrderKind, orderID string) error
}

// ApplyInput is one apply-promotion request. Unset override fields fall back
// to the promotion's stored configuration.
type ApplyInput struct {
	OrderID     string
	OrderKind   ordersrepo.OrderKind
	PromotionID string

	// OverrideValue is whole-number percent for percentage promotions
	// unless ValueIsFraction is set.
	OverrideValue   *decimal.Decimal
	OverrideKind    repository.DiscountKind
	ValueIsFraction bool

	// ProductCodes/ProductGroupCodes narrow which lines receive the stacked
	// discount; empty falls back to the promotion's own scope lists.
	ProductCodes      string
	ProductGroupCodes string

	// IsSecondary forces the stacking path; nil defers to the promotion's
	// isSecondaryDiscount flag.
	IsSecondary *bool
}

// ApplyResult reports the terminal state of one apply operation.
type ApplyResult struct {
	ApplicationID string
	Reused        bool
	LinesMatched  int
	LinesUpdated  int
	State         applyState
	Message       string
}

// Applicator runs the apply-promotion write sequence. It holds no state of
// its own between requests; every side effect lands in the remote system.
type Applicator struct {
	promotions   repository.PromotionStore
	applications repository.ApplicationStore
	orders       ordersrepo.Repository
	matcher      *ScopeMatcher
	recalc       Recalculator
	scheduler    ReconcileScheduler
	bus          events.Bus
	log          *logger.Logger
}

// NewApplicator wires the applicator. scheduler may be nil when no deferred
// reconciliation backend is configured.
func NewApplicator(
	promotions repository.PromotionStore,
	applications repository.ApplicationStore,
	orders ordersrepo.Repository,
	matcher *ScopeMatcher,
	recalc Recalculator,
	scheduler ReconcileScheduler,
	bus events.Bus,
	log *logger.Logger,
) *Applicator {
	return &Applicator{
		promotions:   promotions,
		applications: applications,
		orders:       orders,
		matcher:      matcher,
		recalc:       recalc,
		scheduler:    scheduler,
		bus:          bus,
		log:          log,
	}
}

// Apply runs the full sequence: validate, eligibility gates, idempotency
// check, create-or-reuse the application record, write stacked line
// discounts, recalculate aggregates.
func (a *Applicator) Apply(ctx context.Context, in ApplyInput) (ApplyResult, error) {
	log := a.log.WithContext(ctx)

	if err := validateApplyInput(in); err != nil {
		return ApplyResult{State: stateRejected}, err
	}

	promo, err := a.promotions.Get(ctx, in.PromotionID)
	if err != nil {
		return ApplyResult{State: stateRejected}, err
	}

	summary, err := a.orders.GetSummary(ctx, in.OrderKind, in.OrderID)
	if err != nil {
		return ApplyResult{State: stateRejected}, err
	}

	// Hard gates re-run against the current order state; quote-time totals
	// may have drifted since the promotion was offered.
	if err := a.matcher.ValidateEligibility(promo, summary.PaymentTermCode, summary.Total); err != nil {
		log.Info("promotion apply rejected",
			"order_id", in.OrderID, "promotion_id", in.PromotionID, "reason", err.Error())
		return ApplyResult{State: stateRejected}, err
	}

	lines, err := a.orders.ListActiveLines(ctx, in.OrderKind, in.OrderID)
	if err != nil {
		return ApplyResult{State: stateValidated}, err
	}

	matched := a.scopeLines(promo, in, lines)
	qualifying := decimal.Zero
	cart := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		cart = append(cart, CartLine{
			ProductCode: line.ProductCode,
			UnitPrice:   line.BaseUnitPrice,
			Quantity:    line.Quantity,
		})
	}
	for _, line := range matched {
		qualifying = qualifying.Add(line.Quantity)
	}

	// Header-level discount value, recorded on the application row.
	headerCalc := Calculate(CalcInput{
		BasePrice:          summary.Subtotal,
		Promotion:          promo,
		OverrideValue:      in.OverrideValue,
		OverrideKind:       in.OverrideKind,
		ValueIsFraction:    in.ValueIsFraction,
		QualifyingQuantity: qualifying,
		CartLines:          cart,
	})

	// Idempotency: fresh read directly preceding the create, with no other
	// remote round trip in between. Narrows, does not eliminate, the race
	// between two concurrent applies for the same (order, promotion) pair.
	if existing, found, err := a.applications.FindActiveOrder(ctx, in.OrderKind, in.OrderID, in.PromotionID); err != nil {
		return ApplyResult{State: stateValidated}, err
	} else if found {
		log.Info("promotion application reused",
			"order_id", in.OrderID, "promotion_id", in.PromotionID, "application_id", existing.ID)
		a.publish(ctx, in, existing.ID, 0, true)
		return ApplyResult{
			ApplicationID: existing.ID,
			Reused:        true,
			State:         stateReused,
			Message:       "Khuyến mãi đã được áp dụng trước đó / promotion already applied to this order",
		}, nil
	}

	appKind := promo.Kind
	if in.OverrideKind.Valid() {
		appKind = in.OverrideKind
	}
	applicationID, err := a.applications.CreateOrder(ctx, in.OrderKind, in.OrderID, repository.Application{
		PromotionID: in.PromotionID,
		Kind:        appKind,
		Value:       headerCalc.AppliedValue,
	})
	if err != nil {
		return ApplyResult{State: stateValidated}, err
	}
	state := stateCreated

	linesUpdated := 0
	if a.isSecondary(promo, in) {
		state = stateLinesScoped
		for _, line := range matched {
			// Stacked discounts always derive from the original base
			// price, never from an already-discounted price, so stacking
			// stays commutative.
			calc := Calculate(CalcInput{
				BasePrice:          line.BaseUnitPrice,
				Promotion:          promo,
				OverrideValue:      in.OverrideValue,
				OverrideKind:       in.OverrideKind,
				ValueIsFraction:    in.ValueIsFraction,
				QualifyingQuantity: qualifying,
				CartLines:          cart,
			})
			patch := ordersrepo.LineDiscountPatch{
				SecondaryUnitPrice: calc.FinalPrice,
				SecondaryDiscount:  calc.AppliedValue,
				PromotionID:        in.PromotionID,
			}
			if err := a.orders.UpdateLineDiscount(ctx, in.OrderKind, line.ID, patch); err != nil {
				a.log.LineWriteFailed(in.OrderID, line.ID, err)
				continue
			}
			linesUpdated++
		}
		state = stateLinesDiscounted
	}

	if _, err := a.recalc.Recalculate(ctx, in.OrderKind, in.OrderID); err != nil {
		// The discount write stands; a temporarily stale aggregate beats
		// losing the discount. Defer the recompute instead.
		log.Error("recalculation failed after discount write",
			"order_id", in.OrderID, "error", err.Error())
		if a.scheduler != nil {
			if schedErr := a.scheduler.EnqueueRecalculate(ctx, in.OrderKind, in.OrderID); schedErr != nil {
				log.Error("failed to schedule deferred recalculation",
					"order_id", in.OrderID, "error", schedErr.Error())
			}
		}
	} else {
		state = stateRecalculated
	}

	a.publish(ctx, in, applicationID, linesUpdated, false)

	result := ApplyResult{
		ApplicationID: applicationID,
		LinesMatched:  len(matched),
		LinesUpdated:  linesUpdated,
		State:         stateDone,
		Message:       fmt.Sprintf("Đã áp dụng khuyến mãi %s / promotion %s applied", promo.Name, promo.Name),
	}
	if a.isSecondary(promo, in) && linesUpdated < len(matched) {
		result.State = statePartial
		result.Message = fmt.Sprintf(
			"Áp dụng một phần: %d/%d dòng được cập nhật / partially applied: %d of %d lines updated",
			linesUpdated, len(matched), linesUpdated, len(matched))
	}
	log.Info("promotion applied",
		"order_id", in.OrderID,
		"promotion_id", in.PromotionID,
		"application_id", applicationID,
		"last_step", string(state),
		"state", string(result.State),
		"lines_updated", linesUpdated,
	)
	return result, nil
}

func validateApplyInput(in ApplyInput) error {
	if in.OrderID == "" {
		return apperr.Validation("orderId is required")
	}
	if _, err := uuid.Parse(in.OrderID); err != nil {
		return apperr.Validation("orderId is not a valid identifier")
	}
	if in.PromotionID == "" {
		return apperr.Validation("promotionId is required")
	}
	if _, err := uuid.Parse(in.PromotionID); err != nil {
		return apperr.Validation("promotionId is not a valid identifier")
	}
	if !in.OrderKind.Valid() {
		return apperr.Validation("kind must be \"order\" or \"quote\"")
	}
	if in.OverrideKind != "" && !in.OverrideKind.Valid() {
		return apperr.Validation("kind must be \"percentage\" or \"fixedAmount\"")
	}
	return nil
}

// scopeLines filters the order lines down to the promotion's (or the
// request's) product/group scope. Empty filters match every line.
func (a *Applicator) scopeLines(promo repository.Promotion, in ApplyInput, lines []ordersrepo.OrderLine) []ordersrepo.OrderLine {
	productList := in.ProductCodes
	if productList == "" {
		productList = promo.ProductCodes
	}
	groupList := in.ProductGroupCodes
	if groupList == "" {
		groupList = promo.ProductGroupCodes
	}

	productTokens := splitTokens(productList)
	groupTokens := splitTokens(groupList)
	if len(productTokens) == 0 && len(groupTokens) == 0 {
		return lines
	}

	matched := make([]ordersrepo.OrderLine, 0, len(lines))
	for _, line := range lines {
		if containsToken(productTokens, line.ProductCode) || containsToken(groupTokens, line.ProductGroupCode) {
			matched = append(matched, line)
		}
	}
	return matched
}

func (a *Applicator) isSecondary(promo repository.Promotion, in ApplyInput) bool {
	if in.IsSecondary != nil {
		return *in.IsSecondary
	}
	return promo.IsSecondaryDiscount
}

func (a *Applicator) publish(ctx context.Context, in ApplyInput, applicationID string, linesUpdated int, reused bool) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(ctx, events.PromotionApplied{
		BaseEvent:     events.NewBaseEvent(),
		OrderID:       in.OrderID,
		OrderKind:     string(in.OrderKind),
		PromotionID:   in.PromotionID,
		ApplicationID: applicationID,
		LinesUpdated:  linesUpdated,
		Reused:        reused,
	})
}

package cart

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/okhotin/storefront/internal/guestcart"
)

// State labels the phases of a sign-in cart hand-off.
type State int

const (
	StateGuest State = iota
	StateReconciling
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateReconciling:
		return "reconciling"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// MergeFailure records one guest line that could not be pushed into the
// server cart.
type MergeFailure struct {
	Item guestcart.Item `json:"item"`
	Err  error          `json:"-"`
}

// MergeResult reports what a reconciliation did. Failed lines have already
// been discarded from guest storage; callers decide whether to surface them.
type MergeResult struct {
	Merged int            `json:"merged"`
	Failed []MergeFailure `json:"failed,omitempty"`
	Items  []ItemDetails  `json:"items"`
}

// Reconciler drains a guest cart into the owner's server cart when a session
// becomes authenticated. After reconciliation the server cart is the single
// source of truth; the guest cart is discarded rather than kept as a
// reconciliation log.
type Reconciler struct {
	Guest *guestcart.Store
	Carts MergeTarget
	Log   *slog.Logger
}

// Reconcile runs once per authentication event.
//
// An empty guest store is a no-op with zero remote calls. Otherwise the
// destination cart is fetched or created, guest lines are pushed one at a
// time in stored order (each add awaited before the next, so lines for the
// same variant never race their increments), per-line failures are logged
// and skipped, and the guest store is cleared unconditionally once the batch
// has been attempted.
func (r *Reconciler) Reconcile(ctx context.Context, guestID string, userID uuid.UUID) (*MergeResult, error) {
	l := r.Log.With("guest_id", guestID, "user_id", userID)

	guestItems := r.Guest.Items(guestID)
	if len(guestItems) == 0 {
		l.Debug("cart reconcile skipped, guest cart empty", "state", StateAuthenticated.String())
		return &MergeResult{}, nil
	}

	l.Info("cart reconcile started", "state", StateReconciling.String(), "guest_items", len(guestItems))

	cart, err := r.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		// guest storage stays intact; the next sign-in retries the merge
		l.Error("cart reconcile aborted", "error", err)
		return nil, err
	}

	result := &MergeResult{}
	for _, it := range guestItems {
		if _, err := r.Carts.AddItem(ctx, cart.ID, it.ProductID, it.VariantID, it.Quantity, it.Price); err != nil {
			l.Error("guest item merge failed",
				"product_id", it.ProductID,
				"variant_id", it.VariantID,
				"quantity", it.Quantity,
				"error", err,
			)
			result.Failed = append(result.Failed, MergeFailure{Item: it, Err: err})
			continue
		}
		result.Merged++
	}

	items, err := r.Carts.GetCartItems(ctx, cart.ID)
	if err != nil {
		l.Error("cart refresh after merge failed", "error", err)
	} else {
		result.Items = items
	}

	// cleared even when some lines failed: the server cart is authoritative
	// now and a stale guest copy must not merge twice
	r.Guest.Clear(guestID)

	l.Info("cart reconcile finished",
		"state", StateAuthenticated.String(),
		"merged", result.Merged,
		"failed", len(result.Failed),
	)
	return result, nil
}

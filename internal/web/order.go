// ABOUTME: Session-gated order endpoints, the downstream consumer of sessions
// ABOUTME: Orders are created and listed, never updated or deleted

package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/slicehouse/internal/store"
)

type orderResponse struct {
	ID        string    `json:"id"`
	Pizza     string    `json:"pizza"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// handleOrderCreate places an order for the authenticated user.
func (a *API) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	field, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pizza := field("pizza")
	address := field("address")

	if pizza == "" {
		writeError(w, http.StatusBadRequest, "pizza is required")
		return
	}
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	order := &store.Order{
		ID:        uuid.NewString(),
		Username:  user.Username,
		Pizza:     pizza,
		Address:   address,
		CreatedAt: a.now(),
	}

	if err := a.store.CreateOrder(r.Context(), order); err != nil {
		a.logger.Error("failed to create order", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save order")
		return
	}

	writeJSON(w, http.StatusCreated, orderResponse{
		ID:        order.ID,
		Pizza:     order.Pizza,
		Address:   order.Address,
		CreatedAt: order.CreatedAt,
	})
}

// handleOrderList returns the authenticated user's orders.
func (a *API) handleOrderList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	orders, err := a.store.ListOrdersForUser(r.Context(), user.Username)
	if err != nil {
		a.logger.Error("failed to list orders", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			ID:        o.ID,
			Pizza:     o.Pizza,
			Address:   o.Address,
			CreatedAt: o.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

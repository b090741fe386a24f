package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ariefcatur/canvas-orders/internal/auth"
	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore is satisfied by redisx.Idempotency. Reserve must be atomic:
// of concurrent callers with the same key exactly one gets reserved == true.
// The others get the bound order id, or "" while the winner is still running.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID, key string) (existing string, reserved bool, err error)
	Complete(ctx context.Context, userID, key, orderID string) error
	Release(ctx context.Context, userID, key string) error
}

type OrdersHandler struct {
	Orders      *orders.Manager
	Idempotency IdempotencyStore // optional
}

type createOrderReq struct {
	LineItems       []orders.LineItem    `json:"lineItems"`
	Items           []orders.LineItem    `json:"items"`
	ShippingAddress orders.Address       `json:"shippingAddress"`
	PaymentMethod   orders.PaymentMethod `json:"paymentMethod"`
	Subtotal        int64                `json:"subtotal"`
	Shipping        int64                `json:"shipping"`
	Discount        int64                `json:"discount"`
	Total           int64                `json:"total"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

type statusReq struct {
	Status  orders.Status `json:"status"`
	Message string        `json:"message"`
}

type paymentReq struct {
	PaymentStatus orders.PaymentStatus `json:"paymentStatus"`
}

// Register mounts the order routes. r must already run Authenticate.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/mine", h.listMine)
	r.Get("/orders/user", h.listMine)
	r.Get("/orders/{id}", h.getOrder)
	r.Put("/orders/{id}/cancel", h.cancelOrder)

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/orders", h.listAll)
		r.Put("/orders/{id}/status", h.updateStatus)
		r.Put("/orders/{id}/payment", h.updatePayment)
	})
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		if !id.IsAdmin() {
			writeError(w, r, fmt.Errorf("%w: admin role required", orders.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", orders.ErrValidation)
	}
	return nil
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	requester := identity(r)
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))

	claimed, existing, err := h.claim(ctx, requester, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusOK, result{Success: true, Message: "order already created", Order: viewOf(existing)})
		return
	}

	items := req.LineItems
	if len(items) == 0 {
		items = req.Items
	}
	o, err := h.Orders.CreateOrder(ctx, requester.UserID, orders.CreateOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Financials: orders.Financials{
			Subtotal:    req.Subtotal,
			ShippingFee: req.Shipping,
			Discount:    req.Discount,
			Total:       req.Total,
		},
	})
	logger := logging.FromContext(ctx)
	if err != nil {
		if claimed {
			if rerr := h.Idempotency.Release(ctx, requester.UserID, key); rerr != nil {
				logger.Warn("idempotency_release_failed", zap.Error(rerr))
			}
		}
		writeError(w, r, err)
		return
	}

	if claimed {
		if err := h.Idempotency.Complete(ctx, requester.UserID, key, o.ID); err != nil {
			logger.Warn("idempotency_complete_failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	logger.Info("order_created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total", o.Total),
	)
	writeJSON(w, http.StatusCreated, result{Success: true, Message: "order created", Order: viewOf(o)})
}

// claim reserves key before the order is created. It returns the earlier
// order when the key is already bound, and ErrConflict while another request
// holding the key is in flight. A store outage disables deduplication.
func (h *OrdersHandler) claim(ctx context.Context, requester auth.Identity, key string) (bool, *orders.Order, error) {
	if key == "" || h.Idempotency == nil {
		return false, nil, nil
	}
	existing, reserved, err := h.Idempotency.Reserve(ctx, requester.UserID, key)
	if err != nil {
		logging.FromContext(ctx).Warn("idempotency_reserve_failed", zap.Error(err))
		return false, nil, nil
	}
	if reserved {
		return true, nil, nil
	}
	if existing == "" {
		return false, nil, fmt.Errorf("%w: a request with this %s is still in progress", orders.ErrConflict, HeaderIdempotencyKey)
	}
	o, err := h.Orders.GetOrder(ctx, existing, requester)
	if err != nil {
		return false, nil, err
	}
	return false, o, nil
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListOrdersForUser(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Orders: viewsOf(list)})
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListAllOrders(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Orders: adminViewsOf(list)})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Order: viewOf(o)})
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, fmt.Errorf("%w: invalid json", orders.ErrValidation))
		return
	}
	o, err := h.Orders.CancelOrder(r.Context(), chi.URLParam(r, "id"), identity(r), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "order cancelled", Order: viewOf(o)})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), identity(r), req.Status, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "order status updated", Order: viewOf(o)})
}

func (h *OrdersHandler) updatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), identity(r), req.PaymentStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "payment status updated", Order: viewOf(o)})
}

package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/canvas-orders/internal/auth"
	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	"go.uber.org/zap"
)

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Order   any    `json:"order,omitempty"`
	Orders  any    `json:"orders,omitempty"`
}

type orderView struct {
	*orders.Order
	StatusText string `json:"statusText"`
}

type adminOrderView struct {
	orders.OrderWithOwner
	StatusText string `json:"statusText"`
}

func viewOf(o *orders.Order) orderView {
	return orderView{Order: o, StatusText: o.Status.Text()}
}

func viewsOf(list []orders.Order) []orderView {
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, viewOf(&list[i]))
	}
	return out
}

func adminViewsOf(list []orders.OrderWithOwner) []adminOrderView {
	out := make([]adminOrderView, 0, len(list))
	for _, o := range list {
		out = append(out, adminOrderView{OrderWithOwner: o, StatusText: o.Status.Text()})
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, orders.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, orders.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the response. Infrastructure details stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request_failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, code, result{Success: false, Message: msg})
}

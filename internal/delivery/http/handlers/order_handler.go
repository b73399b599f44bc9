package handlers

import (
	"net/http"
	"strings"

	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	disputeuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/dispute"
	orderuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/order"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	uc       orderuc.OrderUsecase
	disputes disputeuc.DisputeUsecase
	history  EventHistory
}

func NewOrderHandler(uc orderuc.OrderUsecase, disputes disputeuc.DisputeUsecase, history EventHistory) *OrderHandler {
	return &OrderHandler{uc: uc, disputes: disputes, history: history}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req request.CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.uc.CreateOrder(r.Context(), &orderdto.CreateOrderInput{
		CreatorID:     actorFrom(r.Context()),
		Type:          req.Type,
		Description:   req.Description,
		Amount:        req.Amount,
		FiatCode:      req.FiatCode,
		FiatAmount:    req.FiatAmount,
		MinAmount:     req.MinAmount,
		MaxAmount:     req.MaxAmount,
		PriceMargin:   req.PriceMargin,
		PaymentMethod: req.PaymentMethod,
		CommunityID:   req.CommunityID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, response.NewOrderResponse(out.Order, out.PaymentRequest))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.uc.GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewOrderResponse(order, ""))
}

// ListOrders filters by ?status=PENDING,ACTIVE.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.OrderStatus
	for _, s := range strings.Split(r.URL.Query().Get("status"), ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		status := domain.OrderStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status "+s)
			return
		}
		statuses = append(statuses, status)
	}
	if len(statuses) == 0 {
		writeError(w, http.StatusBadRequest, "status filter is required")
		return
	}

	orders, err := h.uc.GetOrdersByStatus(r.Context(), statuses...)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewOrderList(orders))
}

func (h *OrderHandler) GetOrderEvents(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "event history is disabled")
		return
	}
	events, err := h.history.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewEventList(events))
}

func (h *OrderHandler) GetOrderDisputes(w http.ResponseWriter, r *http.Request) {
	out, err := h.disputes.GetOrderDisputes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewDisputeList(out.Disputes))
}

func (h *OrderHandler) TakeOrder(w http.ResponseWriter, r *http.Request) {
	var req request.TakeOrderRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.uc.TakeOrder(r.Context(), &orderdto.TakeOrderInput{
		OrderID:    chi.URLParam(r, "id"),
		TakerID:    actorFrom(r.Context()),
		Invoice:    req.Invoice,
		FiatAmount: req.FiatAmount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewOrderResponse(out.Order, out.PaymentRequest))
}

func (h *OrderHandler) AddBuyerInvoice(w http.ResponseWriter, r *http.Request) {
	var req request.InvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.AddBuyerInvoice(r.Context(), orderID, actorID, req.Invoice)
	})
}

func (h *OrderHandler) UpdateBuyerInvoice(w http.ResponseWriter, r *http.Request) {
	var req request.InvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.UpdateBuyerInvoice(r.Context(), orderID, actorID, req.Invoice)
	})
}

func (h *OrderHandler) ConfirmFiatSent(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.ConfirmFiatSent(r.Context(), orderID, actorID)
	})
}

func (h *OrderHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.Release(r.Context(), orderID, actorID)
	})
}

func (h *OrderHandler) CooperativeCancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.RequestCooperativeCancel(r.Context(), orderID, actorID)
	})
}

func (h *OrderHandler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.CloseOrder(r.Context(), orderID, actorID)
	})
}

func (h *OrderHandler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.AdminCancel(r.Context(), orderID, actorID)
	})
}

func (h *OrderHandler) AdminComplete(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(orderID, actorID string) (*domain.Order, error) {
		return h.uc.AdminComplete(r.Context(), orderID, actorID)
	})
}

func (h *OrderHandler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	out, err := h.disputes.OpenDispute(r.Context(), &disputedto.OpenDisputeInput{
		OrderID:     chi.URLParam(r, "id"),
		InitiatorID: actorFrom(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, response.OpenDisputeResponse{
		Dispute: response.NewDisputeResponse(out.Dispute),
		Order:   response.NewOrderResponse(out.Order, ""),
		Parties: [2]string{out.First, out.Second},
	})
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, call func(orderID, actorID string) (*domain.Order, error)) {
	order, err := call(chi.URLParam(r, "id"), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewOrderResponse(order, ""))
}

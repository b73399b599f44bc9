package response

import (
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderResponse never exposes the preimage or the buyer's invoice.
type OrderResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Description    string          `json:"description,omitempty"`
	Amount         int64           `json:"amount"`
	Fee            int64           `json:"fee"`
	RoutingFee     int64           `json:"routing_fee"`
	FiatCode       string          `json:"fiat_code"`
	FiatAmount     decimal.Decimal `json:"fiat_amount"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
	PriceMargin    decimal.Decimal `json:"price_margin"`
	PriceFromAPI   bool            `json:"price_from_api"`
	PaymentMethod  string          `json:"payment_method"`
	CreatorID      string          `json:"creator_id"`
	SellerID       string          `json:"seller_id,omitempty"`
	BuyerID        string          `json:"buyer_id,omitempty"`
	CommunityID    string          `json:"community_id,omitempty"`
	ParentOrderID  string          `json:"parent_order_id,omitempty"`
	Hash           string          `json:"hash,omitempty"`
	PaymentRequest string          `json:"payment_request,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	TakenAt        *time.Time      `json:"taken_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewOrderResponse(o *domain.Order, paymentRequest string) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		Type:           string(o.Type),
		Status:         string(o.Status),
		Description:    o.Description,
		Amount:         o.Amount,
		Fee:            o.Fee,
		RoutingFee:     o.RoutingFee,
		FiatCode:       o.FiatCode,
		FiatAmount:     o.FiatAmount,
		MinAmount:      o.MinAmount,
		MaxAmount:      o.MaxAmount,
		PriceMargin:    o.PriceMargin,
		PriceFromAPI:   o.PriceFromAPI,
		PaymentMethod:  o.PaymentMethod,
		CreatorID:      o.CreatorID,
		SellerID:       o.SellerID,
		BuyerID:        o.BuyerID,
		CommunityID:    o.CommunityID,
		ParentOrderID:  o.ParentOrderID,
		Hash:           o.Hash,
		PaymentRequest: paymentRequest,
		CreatedAt:      o.CreatedAt,
		TakenAt:        o.TakenAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func NewOrderList(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o, "")
	}
	return out
}

type EventResponse struct {
	Type       string    `json:"type"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	DisputeID  string    `json:"dispute_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEventList(events []domain.DomainEvent) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = EventResponse{
			Type:       string(e.Type),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Actor:      e.Actor,
			DisputeID:  e.DisputeID,
			OccurredAt: e.OccurredAt,
		}
	}
	return out
}

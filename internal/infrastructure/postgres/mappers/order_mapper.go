package mappers

import (
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	return &domain.Order{
		ID:                      model.ID,
		Description:             model.Description,
		Amount:                  model.Amount,
		FiatAmount:              model.FiatAmount,
		FiatCode:                model.FiatCode,
		MinAmount:               model.MinAmount,
		MaxAmount:               model.MaxAmount,
		PriceFromAPI:            model.PriceFromAPI,
		PriceMargin:             model.PriceMargin,
		Fee:                     model.Fee,
		BotFee:                  model.BotFee,
		CommunityFee:            model.CommunityFee,
		RoutingFee:              model.RoutingFee,
		Hash:                    deref(model.Hash),
		Secret:                  deref(model.Secret),
		HoldInvoice:             model.HoldInvoice,
		CreatorID:               model.CreatorID,
		SellerID:                model.SellerID,
		BuyerID:                 model.BuyerID,
		BuyerInvoice:            model.BuyerInvoice,
		BuyerInvoiceUpdated:     model.BuyerInvoiceUpdated,
		BuyerDispute:            model.BuyerDispute,
		SellerDispute:           model.SellerDispute,
		BuyerCooperativeCancel:  model.BuyerCooperativeCancel,
		SellerCooperativeCancel: model.SellerCooperativeCancel,
		CancelInitiatorID:       model.CancelInitiatorID,
		Status:                  domain.OrderStatus(model.Status),
		Type:                    domain.OrderType(model.Type),
		PaymentMethod:           model.PaymentMethod,
		CommunityID:             model.CommunityID,
		ParentOrderID:           model.ParentOrderID,
		AdminWarned:             model.AdminWarned,
		Calculated:              model.Calculated,
		PayoutAttempts:          model.PayoutAttempts,
		CreatedAt:               model.CreatedAt,
		InvoiceHeldAt:           model.InvoiceHeldAt,
		TakenAt:                 model.TakenAt,
		UpdatedAt:               model.UpdatedAt,
	}
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:                      order.ID,
		Description:             order.Description,
		Amount:                  order.Amount,
		FiatAmount:              order.FiatAmount,
		FiatCode:                order.FiatCode,
		MinAmount:               order.MinAmount,
		MaxAmount:               order.MaxAmount,
		PriceFromAPI:            order.PriceFromAPI,
		PriceMargin:             order.PriceMargin,
		Fee:                     order.Fee,
		BotFee:                  order.BotFee,
		CommunityFee:            order.CommunityFee,
		RoutingFee:              order.RoutingFee,
		Hash:                    nullable(order.Hash),
		Secret:                  nullable(order.Secret),
		HoldInvoice:             order.HoldInvoice,
		CreatorID:               order.CreatorID,
		SellerID:                order.SellerID,
		BuyerID:                 order.BuyerID,
		BuyerInvoice:            order.BuyerInvoice,
		BuyerInvoiceUpdated:     order.BuyerInvoiceUpdated,
		BuyerDispute:            order.BuyerDispute,
		SellerDispute:           order.SellerDispute,
		BuyerCooperativeCancel:  order.BuyerCooperativeCancel,
		SellerCooperativeCancel: order.SellerCooperativeCancel,
		CancelInitiatorID:       order.CancelInitiatorID,
		Status:                  string(order.Status),
		Type:                    string(order.Type),
		PaymentMethod:           order.PaymentMethod,
		CommunityID:             order.CommunityID,
		ParentOrderID:           order.ParentOrderID,
		AdminWarned:             order.AdminWarned,
		Calculated:              order.Calculated,
		PayoutAttempts:          order.PayoutAttempts,
		CreatedAt:               order.CreatedAt,
		InvoiceHeldAt:           order.InvoiceHeldAt,
		TakenAt:                 order.TakenAt,
		UpdatedAt:               order.UpdatedAt,
	}
}

// OrderUpdates lists every column a transition may change. A map is used so
// that zero values (cleared flags, empty strings) are written too.
func OrderUpdates(order *domain.Order) map[string]any {
	return map[string]any{
		"amount":                    order.Amount,
		"fiat_amount":               order.FiatAmount,
		"fee":                       order.Fee,
		"bot_fee":                   order.BotFee,
		"community_fee":             order.CommunityFee,
		"routing_fee":               order.RoutingFee,
		"hash":                      nullable(order.Hash),
		"secret":                    nullable(order.Secret),
		"hold_invoice":              order.HoldInvoice,
		"seller_id":                 order.SellerID,
		"buyer_id":                  order.BuyerID,
		"buyer_invoice":             order.BuyerInvoice,
		"buyer_invoice_updated":     order.BuyerInvoiceUpdated,
		"buyer_dispute":             order.BuyerDispute,
		"seller_dispute":            order.SellerDispute,
		"buyer_cooperative_cancel":  order.BuyerCooperativeCancel,
		"seller_cooperative_cancel": order.SellerCooperativeCancel,
		"cancel_initiator_id":       order.CancelInitiatorID,
		"status":                    string(order.Status),
		"admin_warned":              order.AdminWarned,
		"calculated":                order.Calculated,
		"payout_attempts":           order.PayoutAttempts,
		"invoice_held_at":           order.InvoiceHeldAt,
		"taken_at":                  order.TakenAt,
		"updated_at":                order.UpdatedAt,
	}
}

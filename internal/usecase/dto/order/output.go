package orderdto

import "github.com/LavaJover/shvark-p2p-service/internal/domain"

type OrderOutput struct {
	Order *domain.Order
	// PaymentRequest is the hold invoice the seller has to pay, when one is pending.
	PaymentRequest string
}

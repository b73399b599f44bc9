package domain

import "context"

// TxScope exposes the writes that must commit together with an order transition.
type TxScope interface {
	CreateDispute(ctx context.Context, dispute *Dispute) error
	SaveDispute(ctx context.Context, dispute *Dispute) error
	GetOpenDisputeByOrderID(ctx context.Context, orderID string) (*Dispute, error)
	IncrementUserDisputes(ctx context.Context, userID string) error
	RecordUserTrade(ctx context.Context, userID string, volume int64) error
}

// OrderMutation receives a locked, freshly loaded copy of the order. Returning an
// error rolls back every write made through the TxScope.
type OrderMutation func(ctx context.Context, order *Order, tx TxScope) error

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, orderID string) (*Order, error)
	GetOrderByHash(ctx context.Context, hash string) (*Order, error)
	FindOrdersByStatus(ctx context.Context, statuses ...OrderStatus) ([]*Order, error)
	// MarkAdminWarned sets the warning marker once; it reports whether this call set it.
	MarkAdminWarned(ctx context.Context, orderID string) (bool, error)
	// ProcessOrderCriticalOperation applies mutate and persists the result only if the
	// stored status still equals the status mutate observed.
	ProcessOrderCriticalOperation(ctx context.Context, orderID string, mutate OrderMutation) (*Order, error)
}

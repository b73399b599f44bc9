package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	"github.com/shopspring/decimal"
)

// Command types accepted on the commands topic.
const (
	TypeCreateOrder    = "create_order"
	TypeTakeOrder      = "take_order"
	TypeAddInvoice     = "add_invoice"
	TypeFiatSent       = "fiat_sent"
	TypeRelease        = "release"
	TypeCancel         = "cancel"
	TypeClose          = "close"
	TypeOpenDispute    = "open_dispute"
	TypeResolveDispute = "resolve_dispute"
)

var (
	ErrUnknownCommand = errors.New("unknown command type")
	ErrMissingActor   = errors.New("command has no actor")
)

// Envelope is the JSON body of a command message. Fields not used by Type are ignored.
type Envelope struct {
	Type      string `json:"type"`
	ActorID   string `json:"actor_id"`
	OrderID   string `json:"order_id,omitempty"`
	DisputeID string `json:"dispute_id,omitempty"`
	Invoice   string `json:"invoice,omitempty"`
	Ruling    string `json:"ruling,omitempty"`

	OrderType     string          `json:"order_type,omitempty"`
	Description   string          `json:"description,omitempty"`
	Amount        int64           `json:"amount,omitempty"`
	FiatCode      string          `json:"fiat_code,omitempty"`
	FiatAmount    decimal.Decimal `json:"fiat_amount"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	PriceMargin   decimal.Decimal `json:"price_margin"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	CommunityID   string          `json:"community_id,omitempty"`
}

type OrderCommands interface {
	CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*orderdto.OrderOutput, error)
	TakeOrder(ctx context.Context, input *orderdto.TakeOrderInput) (*orderdto.OrderOutput, error)
	AddBuyerInvoice(ctx context.Context, orderID, buyerID, invoice string) (*domain.Order, error)
	ConfirmFiatSent(ctx context.Context, orderID, buyerID string) (*domain.Order, error)
	Release(ctx context.Context, orderID, sellerID string) (*domain.Order, error)
	RequestCooperativeCancel(ctx context.Context, orderID, userID string) (*domain.Order, error)
	CloseOrder(ctx context.Context, orderID, creatorID string) (*domain.Order, error)
}

type DisputeCommands interface {
	OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*disputedto.DisputeOutput, error)
	ResolveDispute(ctx context.Context, input *disputedto.ResolveDisputeInput) (*domain.Dispute, error)
}

// Consumer applies commands published by the chat front-ends.
type Consumer struct {
	subscriber domain.SubscriberPort
	orders     OrderCommands
	disputes   DisputeCommands
	topic      string
	groupID    string
	logger     *slog.Logger
}

func NewConsumer(subscriber domain.SubscriberPort, orders OrderCommands, disputes DisputeCommands, topic, groupID string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		subscriber: subscriber,
		orders:     orders,
		disputes:   disputes,
		topic:      topic,
		groupID:    groupID,
		logger:     logger.With("component", "command_consumer"),
	}
}

// Run consumes until ctx is done or the subscription closes. A rejected
// command is logged and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.Handle(ctx, msg); err != nil {
				c.logger.Warn("command rejected", "key", string(msg.Key), "error", err)
			}
		}
	}
}

func (c *Consumer) Handle(ctx context.Context, msg domain.Message) error {
	var cmd Envelope
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	if cmd.ActorID == "" {
		return ErrMissingActor
	}
	if cmd.ActorID == domain.SystemActorID {
		return fmt.Errorf("%w: reserved actor id", domain.ErrUnauthorizedActor)
	}

	if err := c.dispatch(ctx, &cmd); err != nil {
		return fmt.Errorf("%s by %s: %w", cmd.Type, cmd.ActorID, err)
	}
	c.logger.Debug("command applied", "type", cmd.Type, "actor", cmd.ActorID, "order_id", cmd.OrderID)
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, cmd *Envelope) error {
	var err error
	switch cmd.Type {
	case TypeCreateOrder:
		_, err = c.orders.CreateOrder(ctx, &orderdto.CreateOrderInput{
			CreatorID:     cmd.ActorID,
			Type:          cmd.OrderType,
			Description:   cmd.Description,
			Amount:        cmd.Amount,
			FiatCode:      cmd.FiatCode,
			FiatAmount:    cmd.FiatAmount,
			MinAmount:     cmd.MinAmount,
			MaxAmount:     cmd.MaxAmount,
			PriceMargin:   cmd.PriceMargin,
			PaymentMethod: cmd.PaymentMethod,
			CommunityID:   cmd.CommunityID,
		})
	case TypeTakeOrder:
		_, err = c.orders.TakeOrder(ctx, &orderdto.TakeOrderInput{
			OrderID:    cmd.OrderID,
			TakerID:    cmd.ActorID,
			Invoice:    cmd.Invoice,
			FiatAmount: cmd.FiatAmount,
		})
	case TypeAddInvoice:
		_, err = c.orders.AddBuyerInvoice(ctx, cmd.OrderID, cmd.ActorID, cmd.Invoice)
	case TypeFiatSent:
		_, err = c.orders.ConfirmFiatSent(ctx, cmd.OrderID, cmd.ActorID)
	case TypeRelease:
		_, err = c.orders.Release(ctx, cmd.OrderID, cmd.ActorID)
	case TypeCancel:
		_, err = c.orders.RequestCooperativeCancel(ctx, cmd.OrderID, cmd.ActorID)
	case TypeClose:
		_, err = c.orders.CloseOrder(ctx, cmd.OrderID, cmd.ActorID)
	case TypeOpenDispute:
		_, err = c.disputes.OpenDispute(ctx, &disputedto.OpenDisputeInput{OrderID: cmd.OrderID, InitiatorID: cmd.ActorID})
	case TypeResolveDispute:
		_, err = c.disputes.ResolveDispute(ctx, &disputedto.ResolveDisputeInput{
			DisputeID: cmd.DisputeID,
			Ruling:    domain.Ruling(cmd.Ruling),
			ActorID:   cmd.ActorID,
		})
	default:
		err = fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Type)
	}
	return err
}

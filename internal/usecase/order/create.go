package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var satsPerBTC = decimal.NewFromInt(100_000_000)

func (uc *DefaultOrderUsecase) CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*orderdto.OrderOutput, error) {
	order, policy, err := uc.buildOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := uc.checkNotBanned(ctx, input.CreatorID, policy); err != nil {
		return nil, err
	}
	return uc.placeOrder(ctx, order)
}

// placeOrder funds the escrow request of sell orders and stores the order.
// The hash is persisted in the same insert, before the invoice is handed out.
func (uc *DefaultOrderUsecase) placeOrder(ctx context.Context, order *domain.Order) (*orderdto.OrderOutput, error) {
	if order.Type == domain.TypeSell {
		invoice, err := uc.Escrow.CreateHoldInvoice(ctx, order.EscrowAmount(), uc.cfg.InvoiceDescription)
		if err != nil {
			return nil, err
		}
		order.Hash = invoice.PaymentHash
		order.Secret = invoice.Secret
		order.HoldInvoice = invoice.PaymentRequest
	}

	if err := uc.OrderRepo.CreateOrder(ctx, order); err != nil {
		uc.Metrics.RecordError("create_order")
		return nil, err
	}
	uc.subscribe(order)

	uc.Metrics.RecordOrderCreated(string(order.Type), order.FiatCode, order.CommunityID, order.Amount)
	uc.logger.Info("order created", "order_id", order.ID, "type", order.Type, "status", order.Status,
		"fiat_code", order.FiatCode, "community_id", order.CommunityID)
	uc.publish(ctx, domain.DomainEvent{
		Type:       domain.EventTypeOrderCreated,
		OrderID:    order.ID,
		ToStatus:   order.Status,
		Actor:      order.CreatorID,
		OccurredAt: uc.now(),
	})

	return &orderdto.OrderOutput{Order: order, PaymentRequest: order.HoldInvoice}, nil
}

func (uc *DefaultOrderUsecase) buildOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*domain.Order, *domain.Policy, error) {
	orderType := domain.OrderType(strings.ToLower(input.Type))
	if !orderType.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown order type %q", domain.ErrInvalidOrder, input.Type)
	}
	if input.CreatorID == "" {
		return nil, nil, fmt.Errorf("%w: creator is required", domain.ErrInvalidOrder)
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return nil, nil, fmt.Errorf("%w: payment method is required", domain.ErrInvalidOrder)
	}
	if input.Amount < 0 || input.PriceMargin.LessThanOrEqual(decimal.NewFromInt(-100)) {
		return nil, nil, fmt.Errorf("%w: bad amount or price margin", domain.ErrInvalidOrder)
	}

	policy, err := uc.Policy.Resolve(ctx, input.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	fiatCode := strings.ToUpper(strings.TrimSpace(input.FiatCode))
	if len(fiatCode) != 3 || !policy.AllowsCurrency(fiatCode) {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrCurrencyNotAllowed, input.FiatCode)
	}

	one := decimal.NewFromInt(1)
	isRange := input.MaxAmount.IsPositive()
	if isRange {
		if orderType == domain.TypeSell {
			return nil, nil, fmt.Errorf("%w: range orders must be buy orders", domain.ErrInvalidOrder)
		}
		if input.MinAmount.LessThan(one) || !input.MinAmount.LessThan(input.MaxAmount) {
			return nil, nil, fmt.Errorf("%w: range needs 1 <= min < max", domain.ErrInvalidOrder)
		}
	} else if input.FiatAmount.LessThan(one) {
		return nil, nil, fmt.Errorf("%w: fiat amount must be at least 1", domain.ErrInvalidOrder)
	}

	now := uc.now()
	order := &domain.Order{
		ID:            uuid.NewString(),
		Description:   input.Description,
		Amount:        input.Amount,
		FiatCode:      fiatCode,
		PriceMargin:   input.PriceMargin,
		CreatorID:     input.CreatorID,
		Type:          orderType,
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		CommunityID:   policy.CommunityID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if isRange {
		order.MinAmount = input.MinAmount
		order.MaxAmount = input.MaxAmount
	} else {
		order.FiatAmount = input.FiatAmount
	}

	order.BotFee, order.CommunityFee = uc.feeShares(policy)
	if order.Amount == 0 && !isRange {
		if order.Amount, err = uc.marketAmount(ctx, order.FiatCode, order.FiatAmount, order.PriceMargin); err != nil {
			return nil, nil, err
		}
		order.PriceFromAPI = true
		order.Calculated = true
	}
	order.Fee = uc.fee(order)

	if orderType == domain.TypeSell {
		order.SellerID = input.CreatorID
		order.Status = domain.StatusWaitingPayment
	} else {
		order.BuyerID = input.CreatorID
		order.Status = domain.StatusWaitingBuyerInvoice
	}
	return order, policy, nil
}

// feeShares snapshots the fee split. Global orders keep the whole max fee.
func (uc *DefaultOrderUsecase) feeShares(policy *domain.Policy) (botFee, communityFee decimal.Decimal) {
	if policy.CommunityID == "" {
		return decimal.NewFromInt(1), decimal.Zero
	}
	return uc.cfg.BotFeePercent, policy.FeePercent.Div(decimal.NewFromInt(100))
}

// fee applies the frozen fee split: bot share of the max fee plus the
// community's percentage of what remains.
func (uc *DefaultOrderUsecase) fee(order *domain.Order) int64 {
	maxFee := decimal.NewFromInt(order.Amount).Mul(uc.cfg.MaxFee).Round(0)
	botShare := maxFee.Mul(order.BotFee)
	communityShare := maxFee.Sub(botShare).Mul(order.CommunityFee)
	return botShare.Add(communityShare).Round(0).IntPart()
}

func (uc *DefaultOrderUsecase) maxRoutingFee(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(uc.cfg.MaxRoutingFee).Floor().IntPart()
}

// marketAmount converts fiat to satoshis at the current price plus margin.
func (uc *DefaultOrderUsecase) marketAmount(ctx context.Context, fiatCode string, fiat, margin decimal.Decimal) (int64, error) {
	if uc.Prices == nil {
		return 0, fmt.Errorf("%w: market price is not available", domain.ErrInvalidOrder)
	}
	price, err := uc.Prices.GetBTCPrice(ctx, fiatCode)
	if err != nil {
		return 0, fmt.Errorf("pricing %s: %w", fiatCode, err)
	}
	if !price.IsPositive() {
		return 0, fmt.Errorf("pricing %s: non-positive price %s", fiatCode, price)
	}
	factor := decimal.NewFromInt(1).Add(margin.Div(decimal.NewFromInt(100)))
	amount := fiat.Div(price).Mul(satsPerBTC).Mul(factor).Round(0).IntPart()
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount rounds to zero", domain.ErrInvalidOrder)
	}
	return amount, nil
}

// fixRangeAmount picks the traded fiat amount of a range order at take time.
func (uc *DefaultOrderUsecase) fixRangeAmount(ctx context.Context, order *domain.Order, fiat decimal.Decimal) error {
	if fiat.LessThan(order.MinAmount) || fiat.GreaterThan(order.MaxAmount) {
		return fmt.Errorf("%w: amount %s outside %s..%s", domain.ErrInvalidOrder, fiat, order.MinAmount, order.MaxAmount)
	}
	amount, err := uc.marketAmount(ctx, order.FiatCode, fiat, order.PriceMargin)
	if err != nil {
		return err
	}
	order.FiatAmount = fiat
	order.Amount = amount
	order.Calculated = true
	order.PriceFromAPI = true
	order.Fee = uc.fee(order)
	return nil
}

// spawnChild republishes what is left of a completed range order.
func (uc *DefaultOrderUsecase) spawnChild(ctx context.Context, parent *domain.Order) {
	if !parent.IsRange() {
		return
	}
	left := parent.MaxAmount.Sub(parent.FiatAmount)
	if left.LessThan(parent.MinAmount) {
		return
	}

	now := uc.now()
	child := &domain.Order{
		ID:            uuid.NewString(),
		Description:   parent.Description,
		FiatCode:      parent.FiatCode,
		PriceMargin:   parent.PriceMargin,
		BotFee:        parent.BotFee,
		CommunityFee:  parent.CommunityFee,
		CreatorID:     parent.CreatorID,
		BuyerID:       parent.CreatorID,
		Type:          parent.Type,
		PaymentMethod: parent.PaymentMethod,
		CommunityID:   parent.CommunityID,
		ParentOrderID: parent.ID,
		Status:        domain.StatusWaitingBuyerInvoice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if left.GreaterThan(parent.MinAmount) {
		child.MinAmount = parent.MinAmount
		child.MaxAmount = left
	} else {
		amount, err := uc.marketAmount(ctx, child.FiatCode, left, child.PriceMargin)
		if err != nil {
			uc.logger.Error("failed to price child order", "parent_id", parent.ID, "error", err)
			return
		}
		child.FiatAmount = left
		child.Amount = amount
		child.Calculated = true
		child.PriceFromAPI = true
		child.Fee = uc.fee(child)
	}

	if _, err := uc.placeOrder(ctx, child); err != nil {
		uc.logger.Error("failed to spawn child order", "parent_id", parent.ID, "error", err)
	}
}

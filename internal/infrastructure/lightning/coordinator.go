package lightning

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/metrics"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxPaymentLookback bounds the scan of recent outgoing payments.
const maxPaymentLookback = 500

type lightningAPI interface {
	LookupInvoice(ctx context.Context, in *lnrpc.PaymentHash, opts ...grpc.CallOption) (*lnrpc.Invoice, error)
	SendPaymentSync(ctx context.Context, in *lnrpc.SendRequest, opts ...grpc.CallOption) (*lnrpc.SendResponse, error)
	DecodePayReq(ctx context.Context, in *lnrpc.PayReqString, opts ...grpc.CallOption) (*lnrpc.PayReq, error)
	ListPayments(ctx context.Context, in *lnrpc.ListPaymentsRequest, opts ...grpc.CallOption) (*lnrpc.ListPaymentsResponse, error)
}

type invoicesAPI interface {
	AddHoldInvoice(ctx context.Context, in *invoicesrpc.AddHoldInvoiceRequest, opts ...grpc.CallOption) (*invoicesrpc.AddHoldInvoiceResp, error)
	SettleInvoice(ctx context.Context, in *invoicesrpc.SettleInvoiceMsg, opts ...grpc.CallOption) (*invoicesrpc.SettleInvoiceResp, error)
	CancelInvoice(ctx context.Context, in *invoicesrpc.CancelInvoiceMsg, opts ...grpc.CallOption) (*invoicesrpc.CancelInvoiceResp, error)
	SubscribeSingleInvoice(ctx context.Context, in *invoicesrpc.SubscribeSingleInvoiceRequest, opts ...grpc.CallOption) (invoicesrpc.Invoices_SubscribeSingleInvoiceClient, error)
}

type Options struct {
	Expiry     time.Duration
	CltvExpiry uint64
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Coordinator implements domain.HoldInvoiceCoordinator on top of an LND node.
type Coordinator struct {
	ln       lightningAPI
	invoices invoicesAPI
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.OrderMetrics
}

func NewCoordinator(conn grpc.ClientConnInterface, opts Options, logger *slog.Logger, m *metrics.OrderMetrics) *Coordinator {
	return newCoordinator(lnrpc.NewLightningClient(conn), invoicesrpc.NewInvoicesClient(conn), opts, logger, m)
}

func newCoordinator(ln lightningAPI, inv invoicesAPI, opts Options, logger *slog.Logger, m *metrics.OrderMetrics) *Coordinator {
	if opts.Expiry <= 0 {
		opts.Expiry = time.Hour
	}
	if opts.CltvExpiry == 0 {
		opts.CltvExpiry = 144
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = time.Second
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{ln: ln, invoices: inv, opts: opts, logger: logger, metrics: m}
}

func (c *Coordinator) CreateHoldInvoice(ctx context.Context, amount int64, description string) (*domain.HoldInvoice, error) {
	preimage := make([]byte, 32)
	if _, err := rand.Read(preimage); err != nil {
		return nil, fmt.Errorf("generating preimage: %w", err)
	}
	hash := sha256.Sum256(preimage)

	resp, err := c.invoices.AddHoldInvoice(ctx, &invoicesrpc.AddHoldInvoiceRequest{
		Memo:       description,
		Hash:       hash[:],
		Value:      amount,
		Expiry:     int64(c.opts.Expiry.Seconds()),
		CltvExpiry: c.opts.CltvExpiry,
	})
	if err != nil {
		c.metrics.RecordEscrowAction("create", "error")
		return nil, classify(err)
	}
	c.metrics.RecordEscrowAction("create", "ok")

	return &domain.HoldInvoice{
		PaymentHash:    hex.EncodeToString(hash[:]),
		Secret:         hex.EncodeToString(preimage),
		PaymentRequest: resp.PaymentRequest,
	}, nil
}

func (c *Coordinator) lookup(ctx context.Context, paymentHash string) (*lnrpc.Invoice, error) {
	rhash, err := hex.DecodeString(paymentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: bad payment hash %q", domain.ErrInvoiceNotHeld, paymentHash)
	}
	inv, err := c.ln.LookupInvoice(ctx, &lnrpc.PaymentHash{RHash: rhash})
	if err != nil {
		return nil, classify(err)
	}
	return inv, nil
}

// Settle releases a held invoice. An invoice that is already settled counts as success.
func (c *Coordinator) Settle(ctx context.Context, paymentHash, secret string) error {
	inv, err := c.lookup(ctx, paymentHash)
	if err != nil {
		c.metrics.RecordEscrowAction("settle", "error")
		return err
	}
	switch inv.State {
	case lnrpc.Invoice_SETTLED:
		c.metrics.RecordEscrowAction("settle", "duplicate")
		return nil
	case lnrpc.Invoice_ACCEPTED:
	default:
		c.metrics.RecordEscrowAction("settle", "not_held")
		return fmt.Errorf("%w: invoice %s is %s", domain.ErrInvoiceNotHeld, paymentHash, inv.State)
	}

	preimage, err := hex.DecodeString(secret)
	if err != nil {
		return fmt.Errorf("decoding secret of %s: %w", paymentHash, err)
	}
	if _, err := c.invoices.SettleInvoice(ctx, &invoicesrpc.SettleInvoiceMsg{Preimage: preimage}); err != nil {
		c.metrics.RecordEscrowAction("settle", "error")
		return classify(err)
	}
	c.metrics.RecordEscrowAction("settle", "ok")
	return nil
}

// Cancel refunds a held invoice. An invoice that is already canceled counts as success.
func (c *Coordinator) Cancel(ctx context.Context, paymentHash string) error {
	inv, err := c.lookup(ctx, paymentHash)
	if err != nil {
		c.metrics.RecordEscrowAction("cancel", "error")
		return err
	}
	switch inv.State {
	case lnrpc.Invoice_CANCELED:
		c.metrics.RecordEscrowAction("cancel", "duplicate")
		return nil
	case lnrpc.Invoice_ACCEPTED:
	default:
		c.metrics.RecordEscrowAction("cancel", "not_held")
		return fmt.Errorf("%w: invoice %s is %s", domain.ErrInvoiceNotHeld, paymentHash, inv.State)
	}

	if _, err := c.invoices.CancelInvoice(ctx, &invoicesrpc.CancelInvoiceMsg{PaymentHash: inv.RHash}); err != nil {
		c.metrics.RecordEscrowAction("cancel", "error")
		return classify(err)
	}
	c.metrics.RecordEscrowAction("cancel", "ok")
	return nil
}

func (c *Coordinator) DecodeInvoice(ctx context.Context, paymentRequest string) (*domain.DecodedInvoice, error) {
	req, err := c.ln.DecodePayReq(ctx, &lnrpc.PayReqString{PayReq: paymentRequest})
	if err != nil {
		if errors.Is(classify(err), domain.ErrPaymentNetworkUnavailable) {
			return nil, classify(err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInvoice, err)
	}
	return &domain.DecodedInvoice{
		PaymentHash: req.PaymentHash,
		Amount:      req.NumSatoshis,
		ExpiresAt:   time.Unix(req.Timestamp+req.Expiry, 0),
	}, nil
}

// PayInvoice pays the buyer. amount is only sent for invoices that carry none.
func (c *Coordinator) PayInvoice(ctx context.Context, paymentRequest string, amount, maxFee int64) (*domain.Payment, error) {
	decoded, err := c.DecodeInvoice(ctx, paymentRequest)
	if err != nil {
		return nil, err
	}

	req := &lnrpc.SendRequest{
		PaymentRequest: paymentRequest,
		FeeLimit: &lnrpc.FeeLimit{
			Limit: &lnrpc.FeeLimit_Fixed{Fixed: maxFee},
		},
	}
	if decoded.Amount == 0 {
		req.Amt = amount
	}

	resp, err := c.ln.SendPaymentSync(ctx, req)
	if err != nil {
		if isAlreadyPaid(err.Error()) {
			return c.settledPayment(ctx, decoded.PaymentHash)
		}
		c.metrics.RecordEscrowAction("pay", "error")
		return nil, classify(err)
	}
	if resp.PaymentError != "" {
		if isAlreadyPaid(resp.PaymentError) {
			return c.settledPayment(ctx, decoded.PaymentHash)
		}
		c.metrics.RecordEscrowAction("pay", "failed")
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, resp.PaymentError)
	}
	c.metrics.RecordEscrowAction("pay", "ok")

	payment := &domain.Payment{PaymentHash: hex.EncodeToString(resp.PaymentHash)}
	if resp.PaymentRoute != nil {
		payment.RoutingFee = resp.PaymentRoute.TotalFeesMsat / 1000
	}
	return payment, nil
}

// settledPayment looks up an earlier successful payment to paymentHash. The node
// refuses to pay an invoice twice, so a retry after a lost commit lands here.
func (c *Coordinator) settledPayment(ctx context.Context, paymentHash string) (*domain.Payment, error) {
	resp, err := c.ln.ListPayments(ctx, &lnrpc.ListPaymentsRequest{
		Reversed:    true,
		MaxPayments: maxPaymentLookback,
	})
	if err != nil {
		c.metrics.RecordEscrowAction("pay", "error")
		return nil, classify(err)
	}
	for _, p := range resp.Payments {
		if p.PaymentHash == paymentHash && p.Status == lnrpc.Payment_SUCCEEDED {
			c.metrics.RecordEscrowAction("pay", "already_paid")
			c.logger.Info("invoice was already paid", "payment_hash", paymentHash)
			return &domain.Payment{PaymentHash: paymentHash, RoutingFee: p.FeeSat}, nil
		}
	}
	c.metrics.RecordEscrowAction("pay", "failed")
	return nil, fmt.Errorf("%w: node reports %s paid but no settled payment was found", domain.ErrPaymentFailed, paymentHash)
}

func isAlreadyPaid(msg string) bool {
	return strings.Contains(msg, "already paid")
}

type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Subscribe watches one invoice until it settles, is canceled or the handle is canceled.
// The stream is reopened with backoff when the node connection drops.
func (c *Coordinator) Subscribe(ctx context.Context, paymentHash string, handlers domain.InvoiceHandlers) (domain.Subscription, error) {
	rhash, err := hex.DecodeString(paymentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: bad payment hash %q", domain.ErrInvalidInvoice, paymentHash)
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go c.watch(watchCtx, paymentHash, rhash, handlers)
	return &subscription{cancel: cancel}, nil
}

func (c *Coordinator) watch(ctx context.Context, paymentHash string, rhash []byte, handlers domain.InvoiceHandlers) {
	backoff := c.opts.MinBackoff
	for {
		stream, err := c.invoices.SubscribeSingleInvoice(ctx, &invoicesrpc.SubscribeSingleInvoiceRequest{RHash: rhash})
		if err == nil {
			var done bool
			done, err = c.consume(stream, handlers, paymentHash)
			if done {
				return
			}
			backoff = c.opts.MinBackoff
		}
		if ctx.Err() != nil {
			return
		}

		c.logger.Warn("invoice subscription interrupted", "hash", paymentHash, "retry_in", backoff, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.opts.MaxBackoff)
	}
}

// consume reports done once the invoice reached a final state.
func (c *Coordinator) consume(stream invoicesrpc.Invoices_SubscribeSingleInvoiceClient, handlers domain.InvoiceHandlers, paymentHash string) (bool, error) {
	for {
		inv, err := stream.Recv()
		if err != nil {
			return false, err
		}
		switch inv.State {
		case lnrpc.Invoice_ACCEPTED:
			if handlers.OnHeld != nil {
				handlers.OnHeld(paymentHash)
			}
		case lnrpc.Invoice_SETTLED:
			if handlers.OnSettled != nil {
				handlers.OnSettled(paymentHash)
			}
			return true, nil
		case lnrpc.Invoice_CANCELED:
			if handlers.OnCanceled != nil {
				handlers.OnCanceled(paymentHash)
			}
			return true, nil
		}
	}
}

// classify maps transport failures onto ErrPaymentNetworkUnavailable.
func classify(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted, codes.Aborted:
		return fmt.Errorf("%w: %v", domain.ErrPaymentNetworkUnavailable, err)
	case codes.NotFound:
		return fmt.Errorf("%w: %v", domain.ErrInvoiceNotHeld, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrPaymentNetworkUnavailable, err)
	}
	return err
}

package domain

import "errors"

var (
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrUnauthorizedActor         = errors.New("unauthorized actor")
	ErrPaymentNetworkUnavailable = errors.New("payment network unavailable")
	ErrInvoiceNotHeld            = errors.New("invoice not held")
	ErrDisputeAlreadyOpen        = errors.New("dispute already open")
	ErrDisputeAlreadySolved      = errors.New("dispute already solved")
	ErrCommunityNotFound         = errors.New("community not found")
	ErrSolverNotAuthorized       = errors.New("solver not authorized")
	ErrHandlerNotAFunction       = errors.New("handler is not a function")

	ErrAlreadyApplied           = errors.New("transition already applied")
	ErrConcurrentModification   = errors.New("order modified concurrently")
	ErrCooperativeCancelPending = errors.New("waiting for counterparty to agree on cancel")
	ErrPaymentFailed            = errors.New("payment to buyer failed")

	ErrOrderNotFound      = errors.New("order not found")
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidCommunity   = errors.New("invalid community")
	ErrInvalidInvoice     = errors.New("invalid buyer invoice")
	ErrCurrencyNotAllowed = errors.New("currency not allowed")
	ErrUserBanned         = errors.New("user is banned")
	ErrDuplicateHash      = errors.New("hash or secret already used by another order")
	ErrInvalidRuling      = errors.New("unknown dispute ruling")
)

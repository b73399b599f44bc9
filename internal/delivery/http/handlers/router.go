package handlers

import (
	"context"
	"net/http"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	communityuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/community"
	disputeuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/dispute"
	orderuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/order"
	useruc "github.com/LavaJover/shvark-p2p-service/internal/usecase/user"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EventHistory returns the audit trail of an order.
type EventHistory interface {
	History(ctx context.Context, orderID string) ([]domain.DomainEvent, error)
}

type Deps struct {
	Orders      orderuc.OrderUsecase
	Disputes    disputeuc.DisputeUsecase
	Communities communityuc.CommunityUsecase
	Users       useruc.UserUsecase
	History     EventHistory
	AdminIDs    []string
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	orders := NewOrderHandler(deps.Orders, deps.Disputes, deps.History)
	disputes := NewDisputeHandler(deps.Disputes)
	communities := NewCommunityHandler(deps.Communities)
	users := NewUserHandler(deps.Users)
	admins := &adminChecker{adminIDs: deps.AdminIDs, users: deps.Users}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(RequireActor)

		api.Route("/orders", func(o chi.Router) {
			o.Post("/", orders.CreateOrder)
			o.Get("/", orders.ListOrders)
			o.Route("/{id}", func(one chi.Router) {
				one.Get("/", orders.GetOrder)
				one.Get("/events", orders.GetOrderEvents)
				one.Get("/disputes", orders.GetOrderDisputes)
				one.Post("/take", orders.TakeOrder)
				one.Post("/invoice", orders.AddBuyerInvoice)
				one.Put("/invoice", orders.UpdateBuyerInvoice)
				one.Post("/fiat-sent", orders.ConfirmFiatSent)
				one.Post("/release", orders.Release)
				one.Post("/cancel", orders.CooperativeCancel)
				one.Post("/close", orders.CloseOrder)
				one.Post("/dispute", orders.OpenDispute)
			})
		})

		api.Route("/disputes/{id}", func(d chi.Router) {
			d.Get("/", disputes.GetDispute)
			d.Post("/assign", disputes.AssignSolver)
			d.Post("/resolve", disputes.ResolveDispute)
		})

		api.Route("/communities", func(c chi.Router) {
			c.Post("/", communities.CreateCommunity)
			c.Get("/", communities.ListCommunities)
			c.Get("/{id}", communities.GetCommunity)
			c.Put("/{id}/fee", communities.UpdateFee)
			c.Post("/{id}/solvers", communities.AddSolver)
			c.Put("/{id}/bans/{userID}", communities.BanUser)
			c.Delete("/{id}/bans/{userID}", communities.UnbanUser)
		})

		api.Post("/users/me", users.EnsureUser)
		api.Get("/users/{id}", users.GetUser)

		api.Route("/admin", func(a chi.Router) {
			// Order overrides are authorized by the state machine itself.
			a.Post("/orders/{id}/cancel", orders.AdminCancel)
			a.Post("/orders/{id}/complete", orders.AdminComplete)
			a.With(admins.RequireAdmin).Put("/users/{id}/banned", users.SetBanned)
			a.With(admins.RequireAdmin).Put("/users/{id}/admin", users.SetAdmin)
		})
	})

	return r
}

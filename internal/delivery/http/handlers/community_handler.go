package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	communityuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/community"
	"github.com/go-chi/chi/v5"
)

type CommunityHandler struct {
	uc communityuc.CommunityUsecase
}

func NewCommunityHandler(uc communityuc.CommunityUsecase) *CommunityHandler {
	return &CommunityHandler{uc: uc}
}

func (h *CommunityHandler) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCommunityRequest
	if !decode(w, r, &req) {
		return
	}
	channels := make([]domain.OrderChannel, len(req.OrderChannels))
	for i, ch := range req.OrderChannels {
		channels[i] = domain.OrderChannel{Name: ch.Name, Scope: domain.ChannelScope(ch.Scope)}
	}

	community, err := h.uc.CreateCommunity(r.Context(), domain.NewCommunityParams{
		Name:           req.Name,
		CreatorID:      actorFrom(r.Context()),
		Group:          req.Group,
		OrderChannels:  channels,
		FeePercent:     req.FeePercent,
		Payday:         req.Payday,
		DisputeChannel: req.DisputeChannel,
		SolverIDs:      req.SolverIDs,
		Public:         req.Public,
		Currencies:     req.Currencies,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, response.NewCommunityResponse(community))
}

func (h *CommunityHandler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	community, err := h.uc.GetCommunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewCommunityResponse(community))
}

func (h *CommunityHandler) ListCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := h.uc.ListPublicCommunities(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]response.CommunityResponse, len(communities))
	for i, c := range communities {
		out[i] = response.NewCommunityResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CommunityHandler) UpdateFee(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateFeeRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, r, func(communityID, actorID string) (*domain.Community, error) {
		return h.uc.UpdateFee(r.Context(), communityID, actorID, req.FeePercent)
	})
}

func (h *CommunityHandler) AddSolver(w http.ResponseWriter, r *http.Request) {
	var req request.AddSolverRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, r, func(communityID, actorID string) (*domain.Community, error) {
		return h.uc.AddSolver(r.Context(), communityID, actorID, req.SolverID)
	})
}

func (h *CommunityHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(communityID, actorID string) (*domain.Community, error) {
		return h.uc.BanUser(r.Context(), communityID, actorID, chi.URLParam(r, "userID"))
	})
}

func (h *CommunityHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(communityID, actorID string) (*domain.Community, error) {
		return h.uc.UnbanUser(r.Context(), communityID, actorID, chi.URLParam(r, "userID"))
	})
}

func (h *CommunityHandler) respond(w http.ResponseWriter, r *http.Request, call func(communityID, actorID string) (*domain.Community, error)) {
	community, err := call(chi.URLParam(r, "id"), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewCommunityResponse(community))
}

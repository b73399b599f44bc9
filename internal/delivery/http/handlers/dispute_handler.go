package handlers

import (
	"net/http"
	"strings"

	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
	disputeuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/dispute"
	"github.com/go-chi/chi/v5"
)

type DisputeHandler struct {
	uc disputeuc.DisputeUsecase
}

func NewDisputeHandler(uc disputeuc.DisputeUsecase) *DisputeHandler {
	return &DisputeHandler{uc: uc}
}

func (h *DisputeHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.uc.GetDisputeByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewDisputeResponse(dispute))
}

// AssignSolver assigns the caller unless the body names another solver.
func (h *DisputeHandler) AssignSolver(w http.ResponseWriter, r *http.Request) {
	var req request.AssignSolverRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SolverID == "" {
		req.SolverID = actorFrom(r.Context())
	}
	dispute, err := h.uc.AssignSolver(r.Context(), chi.URLParam(r, "id"), req.SolverID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewDisputeResponse(dispute))
}

func (h *DisputeHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req request.ResolveDisputeRequest
	if !decode(w, r, &req) {
		return
	}
	dispute, err := h.uc.ResolveDispute(r.Context(), &disputedto.ResolveDisputeInput{
		DisputeID: chi.URLParam(r, "id"),
		Ruling:    domain.Ruling(strings.ToUpper(req.Ruling)),
		ActorID:   actorFrom(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewDisputeResponse(dispute))
}

package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/response"
	useruc "github.com/LavaJover/shvark-p2p-service/internal/usecase/user"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	uc useruc.UserUsecase
}

func NewUserHandler(uc useruc.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// EnsureUser registers the calling actor on first contact.
func (h *UserHandler) EnsureUser(w http.ResponseWriter, r *http.Request) {
	var req request.EnsureUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.uc.EnsureUser(r.Context(), actorFrom(r.Context()), req.Username, req.Language)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewUserResponse(user))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.uc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewUserResponse(user))
}

func (h *UserHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	var req request.SetFlagRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.uc.SetBanned(r.Context(), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewUserResponse(user))
}

func (h *UserHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req request.SetFlagRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.uc.SetAdmin(r.Context(), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewUserResponse(user))
}

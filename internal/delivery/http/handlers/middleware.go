package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	useruc "github.com/LavaJover/shvark-p2p-service/internal/usecase/user"
)

// ActorHeader carries the platform user id the front-end acts for.
const ActorHeader = "X-Actor-ID"

type actorKey struct{}

// RequireActor rejects requests without an actor and requests that try to act as the system.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := r.Header.Get(ActorHeader)
		if actorID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+ActorHeader)
			return
		}
		if actorID == domain.SystemActorID {
			writeError(w, http.StatusForbidden, "reserved actor id")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actorID)))
	})
}

func actorFrom(ctx context.Context) string {
	actorID, _ := ctx.Value(actorKey{}).(string)
	return actorID
}

type adminChecker struct {
	adminIDs []string
	users    useruc.UserUsecase
}

func (a *adminChecker) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := actorFrom(r.Context())
		if slices.Contains(a.adminIDs, actorID) {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.users.GetUser(r.Context(), actorID)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			writeDomainError(w, err)
			return
		}
		if user == nil || !user.Admin {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required")
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format")
	}
	return id, nil
}

// requireActor returns the authenticated actor, or writes a 401 and
// returns false.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("actor not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}

// actorAndPathUUID combines requireActor and getPathUUID, writing the error
// response when either fails.
func actorAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (domain.Actor, uuid.UUID, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return domain.Actor{}, uuid.Nil, false
	}
	id, err := getPathUUID(r, paramName)
	if err != nil {
		HandleAPIError(w, r, err)
		return domain.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

// decodeAndValidate decodes the JSON body into v and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// parseUUIDs parses every entry of ids, failing on the first invalid one.
func parseUUIDs(field string, ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, domain.NewValidationError(field, "contains an invalid UUID")
		}
		out = append(out, id)
	}
	return out, nil
}

func parseOptionalUUID(field string, s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, domain.NewValidationError(field, "has invalid format")
	}
	return &id, nil
}

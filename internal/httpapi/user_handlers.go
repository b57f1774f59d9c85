package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"gatherly.org/internal/audit"
	"gatherly.org/internal/auth"
)

type updateUserRequest struct {
	Name         *string  `json:"name"`
	Email        *string  `json:"email"`
	Password     *string  `json:"password"`
	Phone        *string  `json:"phone"`
	Organization *string  `json:"organization"`
	ProfilePic   *string  `json:"profile_pic"`
	Roles        []string `json:"roles"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := a.auth.ListUsers(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, users)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/users/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := a.auth.GetUser(r.Context(), id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPut:
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.UpdateUser(r.Context(), id, auth.UpdateInput{
			Name:         req.Name,
			Email:        req.Email,
			Password:     req.Password,
			Phone:        req.Phone,
			Organization: req.Organization,
			ProfilePic:   req.ProfilePic,
			Roles:        req.Roles,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "users.updated", map[string]any{
			"user_id": id,
		})
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if err := a.auth.DeleteUser(r.Context(), id); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "users.deleted", map[string]any{
			"user_id": id,
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// pathID extracts the trailing numeric id from a resource path. On failure
// it writes the error response and reports false.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

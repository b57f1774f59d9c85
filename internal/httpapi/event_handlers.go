package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gatherly.org/internal/audit"
	"gatherly.org/internal/auth"
	"gatherly.org/internal/events"
)

type purchaseRequest struct {
	EventID  int64 `json:"event_id"`
	Quantity int   `json:"quantity"`
}

func (a *API) handleEventCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req events.EventInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	event, err := a.events.CreateEvent(r.Context(), req)
	if err != nil {
		handleEventsError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "events.created", map[string]any{
		"event_id": event.ID,
		"name":     event.Name,
	})
	w.Header().Set("Location", "/api/events/"+strconv.FormatInt(event.ID, 10))
	writeJSON(w, http.StatusCreated, event)
}

func (a *API) handleEventsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := a.events.ListEvents(r.Context())
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleEventResource(w http.ResponseWriter, r *http.Request) {
	// /api/events/create is registered separately; everything else under
	// /api/events/ is a numeric resource.
	id, ok := pathID(w, r, "/api/events/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		event, err := a.events.GetEvent(r.Context(), id)
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, event)

	case http.MethodPut:
		var req events.EventInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		event, err := a.events.UpdateEvent(r.Context(), id, req)
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "events.updated", map[string]any{
			"event_id": id,
		})
		writeJSON(w, http.StatusOK, event)

	case http.MethodDelete:
		if err := a.events.DeleteEvent(r.Context(), id); err != nil {
			handleEventsError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "events.deleted", map[string]any{
			"event_id": id,
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleEventCards(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cards, err := a.events.ListCards(r.Context())
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cards)

	case http.MethodPost:
		var req events.CardInput
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		card, err := a.events.CreateCard(r.Context(), req)
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "eventcards.created", map[string]any{
			"card_id": card.ID,
		})
		writeJSON(w, http.StatusCreated, card)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTicketPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.EventID <= 0 {
		writeError(w, r, http.StatusBadRequest, "event_id is required")
		return
	}

	purchase, err := a.events.Purchase(r.Context(), req.EventID, principal.Email, req.Quantity)
	if err != nil {
		handleEventsError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tickets.purchased", map[string]any{
		"event_id": purchase.EventID,
		"quantity": purchase.Quantity,
	})
	writeJSON(w, http.StatusCreated, purchase)
}

// --- helpers ---

func handleEventsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, events.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pixelbattle/pixel-battle-backend/internal/canvas"
	"github.com/pixelbattle/pixel-battle-backend/internal/place"
	"github.com/pixelbattle/pixel-battle-backend/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// validationStatus maps placement-service errors to an HTTP status;
// anything outside the taxonomy is a store failure.
func validationStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, place.ErrMissingField),
		errors.Is(err, place.ErrInvalidTeam),
		errors.Is(err, place.ErrInvalidColor),
		errors.Is(err, place.ErrOutOfBounds),
		errors.Is(err, place.ErrUnknownUser),
		errors.Is(err, place.ErrCooldown):
		return http.StatusBadRequest, true
	}
	return 0, false
}

func GetUser(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := st.GetUser(r.Context(), Identity(r))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func SelectTeam(svc *place.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Team string `json:"team"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		team, err := svc.SelectTeam(r.Context(), Identity(r), canvas.Team(req.Team))
		if err != nil {
			if status, ok := validationStatus(err); ok {
				writeError(w, status, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Team canvas.Team `json:"team"`
		}{Team: team})
	}
}

func PlacePixel(svc *place.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req place.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		pixel, err := svc.PlacePixel(r.Context(), Identity(r), req)
		if err != nil {
			if status, ok := validationStatus(err); ok {
				writeError(w, status, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Pixel *store.Pixel `json:"pixel"`
		}{Pixel: pixel})
	}
}

// GetPixels returns the full log in insertion order, for first paint.
func GetPixels(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pixels, err := st.ListPixels(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, pixels)
	}
}

func TeamStats(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := st.TeamCounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// AdminPixels returns the full log most-recent-first. No authorization
// check here yet; see routes.go.
func AdminPixels(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pixels, err := st.ListPixelsDesc(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, pixels)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

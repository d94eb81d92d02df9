package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

type ctxKey int

const identityKey ctxKey = iota

// maxBodyBytes bounds how much of a request body the identity probe
// will buffer.
const maxBodyBytes = 1 << 20

// RequireIdentity rejects requests that carry no identity in either the
// query string or the JSON body. The identity is trusted as given; this
// is presence-checking, not authentication. The body is re-buffered so
// downstream handlers can decode it again.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := r.URL.Query().Get("identity")
		if identity == "" && r.Body != nil {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var probe struct {
				Identity string `json:"identity"`
			}
			_ = json.Unmarshal(body, &probe)
			identity = probe.Identity
		}
		if identity == "" {
			writeError(w, http.StatusUnauthorized, "identity required")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identity returns the identity stashed by RequireIdentity, or "".
func Identity(r *http.Request) string {
	identity, _ := r.Context().Value(identityKey).(string)
	return identity
}

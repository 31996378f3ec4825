package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// userHeader carries the user id issued by the external auth service.
const userHeader = "X-User-ID"

type ctxKey int

const userKey ctxKey = iota

// requireUser rejects requests without a valid user UUID.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(userHeader)
		if raw == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Error: userHeader + " header is required"})
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Error: userHeader + " must be a UUID"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, id.String())))
	})
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

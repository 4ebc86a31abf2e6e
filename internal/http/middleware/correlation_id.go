package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/pkg/correlationid"
)

// CorrelationID reuses the caller's correlation id or mints one, stores it in
// the request context and echoes it back on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.Header)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}

			w.Header().Set(correlationid.Header, id)
			next.ServeHTTP(w, r.WithContext(correlationid.NewContext(r.Context(), id)))
		})
	}
}

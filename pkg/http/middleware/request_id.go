package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
)

const (
	RequestIdHeader = "X-Request-Id"

	maxRequestIdLength = 128
)

// WithRequestId propagates the caller's request id or assigns a new one, both
// to the response headers and to the request context. Ids that are too long
// or contain anything but printable ASCII are replaced.
func WithRequestId(next http.Handler, nextRequestId func() string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(RequestIdHeader)

		if !acceptableRequestId(requestId) {
			requestId = nextRequestId()
		}

		ctx := appcontext.WithRequestId(r.Context(), requestId)

		w.Header().Set(RequestIdHeader, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func acceptableRequestId(id string) bool {
	if id == "" || len(id) > maxRequestIdLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

func DefaultRequestIdProvider() string {
	return uuid.NewString()
}

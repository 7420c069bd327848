package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
)

func TestWithRequestId(t *testing.T) {
	var seen string

	h := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appcontext.RequestId(r.Context())
	}), func() string { return "generated" })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "generated", seen)
	assert.Equal(t, "generated", rec.Header().Get(RequestIdHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIdHeader, "from-caller")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "from-caller", seen)
	assert.Equal(t, "from-caller", rec.Header().Get(RequestIdHeader))
}

func TestWithRequestId_ReplacesUnacceptable(t *testing.T) {
	var seen string

	h := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appcontext.RequestId(r.Context())
	}), func() string { return "generated" })

	for _, id := range []string{"with space", strings.Repeat("a", 129), "tab\there"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIdHeader, id)

		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "generated", seen, id)
	}
}

func TestDefaultRequestIdProvider(t *testing.T) {
	a, b := DefaultRequestIdProvider(), DefaultRequestIdProvider()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestWithRequestLogging(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := logrus.New()
	logger.Out = buf
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := WithRequestId(WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}), logger), func() string { return "req-1" })

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/backups/x.zip", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"warning"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"content_length":7`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactQuery(t *testing.T) {
	cases := map[string]string{
		"/v1/socket?token=abc.def.ghi":   "/v1/socket?token=REDACTED",
		"/v1/search?q=go&token=abc":      "/v1/search?q=go&token=REDACTED",
		"/v1/search?q=go":                "/v1/search?q=go",
		"/v1/posts":                      "/v1/posts",
		"/v1/socket?token=a;b":           "/v1/socket?REDACTED",
		"/v1/socket?token=one&token=two": "/v1/socket?token=REDACTED",
	}
	for in, want := range cases {
		assert.Equal(t, want, redactQuery(in), in)
	}
}

func TestAccessLog_MasksTokenButKeepsItForHandlers(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := AccessLog(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = BearerToken(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/socket?token=SECRET-JWT-VALUE", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "SECRET-JWT-VALUE", seen)
	assert.NotContains(t, buf.String(), "SECRET-JWT-VALUE")
	assert.Contains(t, buf.String(), "/v1/socket?token=REDACTED")
}

func TestAccessLog_PlainRequestLoggedAsIs(t *testing.T) {
	var buf bytes.Buffer
	h := AccessLog(&buf)(http.HandlerFunc(okHandler))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/search?q=gopher", nil))

	assert.Contains(t, buf.String(), `"GET http://example.com/v1/search?q=gopher HTTP/1.1"`)
	assert.Contains(t, buf.String(), "200")
}

package middleware

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// redactedParams never reach the access log in clear text. The socket
// accepts its bearer token as ?token= because browsers cannot set headers
// on a websocket upgrade.
var redactedParams = []string{"token"}

const redacted = "REDACTED"

// AccessLog is chi's request logger writing to out, with credential query
// parameters masked. The request seen by downstream handlers is untouched.
func AccessLog(out io.Writer) func(http.Handler) http.Handler {
	return chimiddleware.RequestLogger(&redactingFormatter{
		inner: &chimiddleware.DefaultLogFormatter{
			Logger:  log.New(out, "", log.LstdFlags),
			NoColor: true,
		},
	})
}

type redactingFormatter struct {
	inner chimiddleware.LogFormatter
}

func (f *redactingFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	uri := redactQuery(r.RequestURI)
	if uri == r.RequestURI {
		return f.inner.NewLogEntry(r)
	}
	lr := r.WithContext(r.Context())
	lr.RequestURI = uri
	return f.inner.NewLogEntry(lr)
}

// redactQuery masks the values of redactedParams in a request URI. A query
// that does not parse is dropped entirely.
func redactQuery(uri string) string {
	path, rawQuery, ok := strings.Cut(uri, "?")
	if !ok || rawQuery == "" {
		return uri
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path + "?" + redacted
	}
	changed := false
	for _, p := range redactedParams {
		if _, present := q[p]; present {
			q.Set(p, redacted)
			changed = true
		}
	}
	if !changed {
		return uri
	}
	return path + "?" + q.Encode()
}

package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("cache: entry not found")
	ErrNoActiveGeneration = errors.New("cache: no active generation")
)

// Entry is a stored response. It is immutable once written and replaced
// wholesale on re-fetch.
type Entry struct {
	RequestKey string
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// RequestKey identifies a request by method and URL (fragment dropped).
func RequestKey(r *http.Request) string {
	return KeyFor(r.Method, r.URL.String())
}

// KeyFor builds the key RequestKey would produce for method and rawURL.
func KeyFor(method, rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(method), rawURL)
}

// Response rebuilds an *http.Response carrying the stored status, headers and
// body bytes.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// StripHopByHop returns a copy of header without connection-level fields,
// those named by its Connection header, and any extra keys.
func StripHopByHop(header http.Header, extra ...string) http.Header {
	clone := header.Clone()
	if clone == nil {
		clone = http.Header{}
	}

	for _, k := range []string{
		"Connection", "Proxy-Connection", "Keep-Alive",
		"Proxy-Authenticate", "Proxy-Authorization", "TE",
		"Trailer", "Transfer-Encoding", "Upgrade",
	} {
		clone.Del(k)
	}
	for _, k := range extra {
		clone.Del(k)
	}
	if conn := header.Get("Connection"); conn != "" {
		for _, token := range strings.Split(conn, ",") {
			if token = strings.TrimSpace(token); token != "" {
				clone.Del(token)
			}
		}
	}
	return clone
}

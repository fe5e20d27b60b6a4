package middleware

import (
	"bytes"
	"net/http"
)

const (
	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

// bufferedResponseWriter holds the body back so a validator can be computed
// before anything reaches the client.
type bufferedResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	body        bytes.Buffer
	wroteHeader bool
}

func newBufferedResponseWriter(w http.ResponseWriter) *bufferedResponseWriter {
	return &bufferedResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}

	w.statusCode = code
	w.wroteHeader = true
}

func (w *bufferedResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.body.Write(b)
}

func (w *bufferedResponseWriter) flush() {
	w.ResponseWriter.WriteHeader(w.statusCode)
	_, _ = w.ResponseWriter.Write(w.body.Bytes())
}

// ConditionalGET tags successful GET and HEAD responses with an ETag and answers
// 304 Not Modified when the client already holds the representation.
func ConditionalGET(generator *ETagGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)

				return
			}

			brw := newBufferedResponseWriter(w)

			next.ServeHTTP(brw, r)

			if brw.statusCode != http.StatusOK {
				brw.flush()

				return
			}

			etag := generator.Generate(brw.body.Bytes())
			w.Header().Set(headerETag, etag)

			if ifNoneMatch := r.Header.Get(headerIfNoneMatch); ifNoneMatch != "" && etagMatches(ifNoneMatch, etag) {
				w.Header().Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)

				return
			}

			brw.flush()
		})
	}
}

package middleware

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	encodingGzip     = "gzip"
	encodingBrotli   = "br"
	encodingIdentity = "identity"

	compressionAlgorithmKey  = "compression.algorithm"
	compressionSkipReasonKey = "compression.skip_reason"

	httpCompressionTotal        = "http_compression_total"
	httpCompressionSkippedTotal = "http_compression_skipped_total"

	skipReasonBelowMinSize    = "below_min_size"
	skipReasonNonCompressible = "non_compressible_type"
	skipReasonNoEncoding      = "no_accept_encoding"
	skipReasonSkippedPath     = "skipped_path"
)

// compressibleTypes are the media types this service emits that benefit from compression.
var compressibleTypes = []string{
	"application/json",
	"text/plain",
}

// serverPreference breaks ties between encodings the client weights equally.
var serverPreference = []string{encodingGzip, encodingBrotli}

type (
	// resettableEncoder is satisfied by both *gzip.Writer and *brotli.Writer.
	resettableEncoder interface {
		io.WriteCloser
		Reset(w io.Writer)
	}

	acceptEncoding struct {
		encoding string
		quality  float64
	}

	encoderPools map[string]*sync.Pool
)

func newEncoderPools(level int) encoderPools {
	return encoderPools{
		encodingGzip: {
			New: func() any {
				w, err := gzip.NewWriterLevel(io.Discard, level)
				if err != nil {
					w = gzip.NewWriter(io.Discard)
				}

				return w
			},
		},
		encodingBrotli: {
			New: func() any {
				return brotli.NewWriterLevel(io.Discard, level)
			},
		},
	}
}

// Compression negotiates gzip or brotli from Accept-Encoding and compresses
// compressible bodies of at least cfg.MinSize bytes.
func Compression(cfg config.Compression, metricsClient metrics.Client) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	pools := newEncoderPools(cfg.Level)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if shouldSkipPath(r.URL.Path, cfg.SkipPaths) {
				recordCompressionSkipped(ctx, metricsClient, skipReasonSkippedPath)
				next.ServeHTTP(w, r)

				return
			}

			encoding := selectEncoding(parseAcceptEncoding(r.Header.Get("Accept-Encoding")))
			if encoding == "" || r.Method == http.MethodHead {
				recordCompressionSkipped(ctx, metricsClient, skipReasonNoEncoding)
				next.ServeHTTP(w, r)

				return
			}

			w.Header().Add("Vary", "Accept-Encoding")

			cw := &compressResponseWriter{
				ResponseWriter: w,
				ctx:            ctx,
				metricsClient:  metricsClient,
				encoding:       encoding,
				pool:           pools[encoding],
				minSize:        cfg.MinSize,
				statusCode:     http.StatusOK,
			}

			defer func() { _ = cw.Close() }()

			next.ServeHTTP(cw, r)
		})
	}
}

func recordCompressionSkipped(ctx context.Context, metricsClient metrics.Client, reason string) {
	if metricsClient == nil {
		return
	}

	metricsClient.Inc(ctx, httpCompressionSkippedTotal, int64(1), attribute.String(compressionSkipReasonKey, reason))
}

func parseAcceptEncoding(header string) []acceptEncoding {
	var encodings []acceptEncoding

	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, params, _ := strings.Cut(part, ";")
		enc := acceptEncoding{
			encoding: strings.ToLower(strings.TrimSpace(name)),
			quality:  1.0,
		}

		for param := range strings.SplitSeq(params, ";") {
			value, ok := strings.CutPrefix(strings.TrimSpace(param), "q=")
			if !ok {
				continue
			}

			if q, err := strconv.ParseFloat(value, 64); err == nil {
				enc.quality = q
			}
		}

		encodings = append(encodings, enc)
	}

	return encodings
}

// selectEncoding returns the supported encoding with the highest quality, or ""
// when identity is the best option.
func selectEncoding(encodings []acceptEncoding) string {
	best, bestQuality, bestRank := "", 0.0, len(serverPreference)
	identityQuality := 0.0

	for _, enc := range encodings {
		if enc.quality <= 0 {
			continue
		}

		if enc.encoding == encodingIdentity {
			identityQuality = enc.quality

			continue
		}

		candidates := []string{enc.encoding}
		if enc.encoding == "*" {
			candidates = serverPreference
		}

		for _, candidate := range candidates {
			rank := slices.Index(serverPreference, candidate)
			if rank < 0 {
				continue
			}

			if enc.quality > bestQuality || (enc.quality == bestQuality && rank < bestRank) {
				best, bestQuality, bestRank = candidate, enc.quality, rank
			}
		}
	}

	if identityQuality > bestQuality {
		return ""
	}

	return best
}

func shouldSkipPath(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}

	return false
}

func isCompressible(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return slices.Contains(compressibleTypes, mediaType)
}

// compressResponseWriter buffers the head of the body until it knows whether
// compression pays off, then commits the status line once.
type compressResponseWriter struct {
	http.ResponseWriter
	ctx           context.Context
	metricsClient metrics.Client

	encoding string
	pool     *sync.Pool
	minSize  int

	statusCode  int
	wroteHeader bool
	committed   bool
	buf         []byte
	encoder     resettableEncoder
}

func (w *compressResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}

	w.statusCode = statusCode
	w.wroteHeader = true

	if !bodyAllowed(statusCode) || w.Header().Get("Content-Encoding") != "" {
		w.commitPlain("")
	}
}

func (w *compressResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.committed {
		if w.encoder != nil {
			return w.encoder.Write(b)
		}

		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)

	if len(w.buf) >= w.minSize {
		if !isCompressible(w.Header().Get("Content-Type")) {
			w.commitPlain(skipReasonNonCompressible)

			return len(b), nil
		}

		if err := w.commitCompressed(); err != nil {
			return 0, err
		}
	}

	return len(b), nil
}

func (w *compressResponseWriter) commitPlain(reason string) {
	w.committed = true

	if reason != "" {
		recordCompressionSkipped(w.ctx, w.metricsClient, reason)
	}

	w.ResponseWriter.WriteHeader(w.statusCode)

	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
		w.buf = nil
	}
}

func (w *compressResponseWriter) commitCompressed() error {
	w.committed = true

	w.Header().Set("Content-Encoding", w.encoding)
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.statusCode)

	encoder, _ := w.pool.Get().(resettableEncoder)
	encoder.Reset(w.ResponseWriter)
	w.encoder = encoder

	if w.metricsClient != nil {
		w.metricsClient.Inc(w.ctx, httpCompressionTotal, int64(1), attribute.String(compressionAlgorithmKey, w.encoding))
	}

	_, err := w.encoder.Write(w.buf)
	w.buf = nil

	return err
}

// Close commits a body that never reached the threshold and releases the encoder.
func (w *compressResponseWriter) Close() error {
	if !w.committed {
		if !w.wroteHeader && len(w.buf) == 0 {
			return nil
		}

		w.commitPlain(skipReasonBelowMinSize)
	}

	if w.encoder == nil {
		return nil
	}

	err := w.encoder.Close()
	w.encoder.Reset(io.Discard)
	w.pool.Put(w.encoder)
	w.encoder = nil

	return err
}

func (w *compressResponseWriter) Flush() {
	if !w.committed {
		w.commitPlain(skipReasonBelowMinSize)
	}

	if flusher, ok := w.encoder.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}

	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}

	return nil, nil, http.ErrNotSupported
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}

	return true
}

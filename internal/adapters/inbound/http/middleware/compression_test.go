package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/pkg/metrics/noop"
	"github.com/stretchr/testify/require"
)

func compressionConfig() config.Compression {
	return config.Compression{
		Enabled:   true,
		Level:     5,
		MinSize:   128,
		SkipPaths: []string{"/health"},
	}
}

func largeJSON() string {
	devices := make([]string, 40)
	for i := range devices {
		devices[i] = `{"uid":` + strings.Repeat("1", 8) + `,"vendor":"Hawlett-Packard","status":"ONLINE"}`
	}

	return "[" + strings.Join(devices, ",") + "]"
}

func serveCompressed(t *testing.T, cfg config.Compression, path, acceptEncoding, contentType, body string, status int) *httptest.ResponseRecorder {
	t.Helper()

	handler := Compression(cfg, noop.NewMetricsClient())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestCompression(t *testing.T) {
	t.Parallel()

	body := largeJSON()

	cases := []struct {
		name           string
		path           string
		acceptEncoding string
		contentType    string
		body           string
		status         int
		wantEncoding   string
	}{
		{
			name:           "gzip for large json",
			path:           "/gateway/list",
			acceptEncoding: "gzip, deflate",
			contentType:    "application/json",
			body:           body,
			status:         http.StatusOK,
			wantEncoding:   encodingGzip,
		},
		{
			name:           "brotli when preferred",
			path:           "/gateway/list",
			acceptEncoding: "gzip;q=0.5, br",
			contentType:    "application/json",
			body:           body,
			status:         http.StatusOK,
			wantEncoding:   encodingBrotli,
		},
		{
			name:           "error bodies compress too",
			path:           "/gateway/create",
			acceptEncoding: "br",
			contentType:    "application/json; charset=utf-8",
			body:           body,
			status:         http.StatusBadRequest,
			wantEncoding:   encodingBrotli,
		},
		{
			name:           "below minimum size",
			path:           "/gateway/list",
			acceptEncoding: "gzip",
			contentType:    "application/json",
			body:           `{"ok":true}`,
			status:         http.StatusOK,
		},
		{
			name:           "non compressible type",
			path:           "/gateway/list",
			acceptEncoding: "gzip",
			contentType:    "image/png",
			body:           body,
			status:         http.StatusOK,
		},
		{
			name:           "skipped path",
			path:           "/health/readiness",
			acceptEncoding: "gzip",
			contentType:    "application/json",
			body:           body,
			status:         http.StatusOK,
		},
		{
			name:        "no accept encoding",
			path:        "/gateway/list",
			contentType: "application/json",
			body:        body,
			status:      http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := serveCompressed(t, compressionConfig(), tc.path, tc.acceptEncoding, tc.contentType, tc.body, tc.status)

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.wantEncoding, rec.Header().Get("Content-Encoding"))

			var reader io.Reader = rec.Body
			switch tc.wantEncoding {
			case encodingGzip:
				gz, err := gzip.NewReader(rec.Body)
				require.NoError(t, err)

				reader = gz
			case encodingBrotli:
				reader = brotli.NewReader(rec.Body)
			}

			decoded, err := io.ReadAll(reader)
			require.NoError(t, err)
			require.Equal(t, tc.body, string(decoded))
		})
	}
}

func TestCompressionDisabled(t *testing.T) {
	t.Parallel()

	cfg := compressionConfig()
	cfg.Enabled = false

	rec := serveCompressed(t, cfg, "/gateway/list", "gzip", "application/json", largeJSON(), http.StatusOK)

	require.Empty(t, rec.Header().Get("Content-Encoding"))
	require.Empty(t, rec.Header().Get("Vary"))
}

func TestCompressionKeepsNoContent(t *testing.T) {
	t.Parallel()

	rec := serveCompressed(t, compressionConfig(), "/gateway/list", "gzip", "", "", http.StatusNoContent)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("Content-Encoding"))
	require.Zero(t, rec.Body.Len())
}

func TestSelectEncoding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
	}{
		{header: "gzip", want: encodingGzip},
		{header: "br", want: encodingBrotli},
		{header: "br, gzip", want: encodingGzip},
		{header: "br;q=1.0, gzip;q=0.8", want: encodingBrotli},
		{header: "*", want: encodingGzip},
		{header: "gzip;q=0, br;q=0", want: ""},
		{header: "deflate", want: ""},
		{header: "identity, gzip;q=0.5", want: ""},
		{header: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, selectEncoding(parseAcceptEncoding(tc.header)))
		})
	}
}

package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/architeacher/gateways/internal/adapters/inbound/http/middleware"
	"github.com/stretchr/testify/require"
)

func TestETagGenerator(t *testing.T) {
	t.Parallel()

	generator := middleware.NewETagGenerator()

	first := generator.Generate([]byte(`[{"uid":1}]`))
	require.Equal(t, first, generator.Generate([]byte(`[{"uid":1}]`)))
	require.NotEqual(t, first, generator.Generate([]byte(`[{"uid":2}]`)))
	require.Regexp(t, `^"[0-9a-f]{16}"$`, first)
}

func TestConditionalGET(t *testing.T) {
	t.Parallel()

	const body = `[{"serialNumber":"GW-1"}]`

	etag := middleware.NewETagGenerator().Generate([]byte(body))

	cases := []struct {
		name        string
		method      string
		status      int
		ifNoneMatch string
		wantStatus  int
		wantETag    bool
		wantBody    string
	}{
		{
			name:       "first fetch carries etag",
			method:     http.MethodGet,
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantETag:   true,
			wantBody:   body,
		},
		{
			name:        "matching validator",
			method:      http.MethodGet,
			status:      http.StatusOK,
			ifNoneMatch: etag,
			wantStatus:  http.StatusNotModified,
			wantETag:    true,
		},
		{
			name:        "weak validator in a list",
			method:      http.MethodGet,
			status:      http.StatusOK,
			ifNoneMatch: `"other", W/` + etag,
			wantStatus:  http.StatusNotModified,
			wantETag:    true,
		},
		{
			name:        "stale validator",
			method:      http.MethodGet,
			status:      http.StatusOK,
			ifNoneMatch: `"0000000000000000"`,
			wantStatus:  http.StatusOK,
			wantETag:    true,
			wantBody:    body,
		},
		{
			name:        "non ok responses pass through",
			method:      http.MethodGet,
			status:      http.StatusNoContent,
			ifNoneMatch: "*",
			wantStatus:  http.StatusNoContent,
		},
		{
			name:       "writes are not tagged",
			method:     http.MethodPut,
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantBody:   body,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.ConditionalGET(middleware.NewETagGenerator())(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(tc.status)

					if tc.status == http.StatusOK {
						_, _ = io.WriteString(w, body)
					}
				}),
			)

			req := httptest.NewRequest(tc.method, "/gateway/list", nil)
			if tc.ifNoneMatch != "" {
				req.Header.Set("If-None-Match", tc.ifNoneMatch)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantBody, rec.Body.String())

			if tc.wantETag {
				require.Equal(t, etag, rec.Header().Get("ETag"))
			} else {
				require.Empty(t, rec.Header().Get("ETag"))
			}
		})
	}
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonecheck/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (v *stubValidator) ValidateToken(string) (*Claims, error) {
	return v.claims, v.err
}

func TestRequireAuth(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		validator  *stubValidator
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer good",
			validator:  &stubValidator{claims: &Claims{Subject: "svc"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			validator:  &stubValidator{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic Zm9v",
			validator:  &stubValidator{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected token",
			header:     "Bearer bad",
			validator:  &stubValidator{err: errors.New("expired")},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireAuth(tc.validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestJWTValidator(t *testing.T) {
	validator := NewJWTValidator("test-signing-key")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       "svc-permits",
		"client_id": "permits-api",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	claims, err := validator.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "svc-permits", claims.Subject)
	assert.Equal(t, "permits-api", claims.ClientID)

	_, err = validator.ValidateToken("not-a-token")
	assert.Error(t, err)

	wrongKey, err := token.SignedString([]byte("other-key"))
	require.NoError(t, err)
	_, err = validator.ValidateToken(wrongKey)
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	var gotID string
	var gotCorrelation string
	var gotTime time.Time

	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.RequestID(r.Context())
		gotCorrelation = requestcontext.CorrelationID(r.Context())
		gotTime = requestcontext.Now(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, gotID)
	assert.Equal(t, gotID, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "corr-7", gotCorrelation)
	assert.WithinDuration(t, time.Now(), gotTime, time.Minute)
}

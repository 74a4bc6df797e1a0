package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"altguard/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	t.Run("first forwarded hop wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/verify", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1, 10.0.0.2")
		r.Header.Set("X-Real-IP", "9.9.9.9")
		assert.Equal(t, "1.2.3.4", ClientIPFromRequest(r))
	})

	t.Run("real ip used without forwarded header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/verify", nil)
		r.Header.Set("X-Real-IP", " 9.9.9.9 ")
		assert.Equal(t, "9.9.9.9", ClientIPFromRequest(r))
	})

	t.Run("remote addr port is stripped", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/verify", nil)
		r.RemoteAddr = "5.5.5.5:41234"
		assert.Equal(t, "5.5.5.5", ClientIPFromRequest(r))

		r.RemoteAddr = "[::1]:41234"
		assert.Equal(t, "::1", ClientIPFromRequest(r))
	})
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/verify", nil)
	r.Header.Set("X-Forwarded-For", "6.6.6.6")
	r.Header.Set("User-Agent", "Mozilla/5.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "6.6.6.6", gotIP)
	assert.Equal(t, "Mozilla/5.0", gotUA)
}

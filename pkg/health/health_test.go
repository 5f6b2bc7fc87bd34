package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	tests := []struct {
		code      int
		reachable bool
	}{
		{http.StatusOK, true},
		{http.StatusForbidden, true},
		{999, true},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := statusServer(t, tt.code)
			status, err := Probe(context.Background(), srv.URL, "test-agent", time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.code, status)
			assert.Equal(t, tt.reachable, Reachable(status))
		})
	}
}

func TestProbe_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	status, err := Probe(context.Background(), url, "", 500*time.Millisecond)
	assert.Error(t, err)
	assert.Zero(t, status)
}

func TestCheck(t *testing.T) {
	t.Setenv("CHROME_PATH", os.Args[0])
	for _, env := range llm.EnvKeys {
		t.Setenv(env, "")
	}
	t.Setenv("GEMINI_API_KEY", "g")

	path := filepath.Join(t.TempDir(), "cookies.json")
	require.True(t, session.NewStore(path).Save([]session.Cookie{{Name: "li_at", Value: "v", Domain: ".linkedin.com"}}))

	srv := statusServer(t, http.StatusOK)
	r := Check(context.Background(), Options{CookiesPath: path, Network: true, SiteURL: srv.URL})

	assert.True(t, r.Available)
	assert.Equal(t, os.Args[0], r.ChromePath)
	assert.Equal(t, path, r.SessionFile)
	assert.Equal(t, 1, r.SessionCookies)
	require.NotNil(t, r.SiteReachable)
	assert.True(t, *r.SiteReachable)
	assert.Equal(t, []string{"gemini", "ollama"}, r.Providers)
	assert.True(t, IsAvailable())
}

func TestCheck_Offline(t *testing.T) {
	r := Check(context.Background(), Options{CookiesPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Nil(t, r.SiteReachable)
	assert.Zero(t, r.SessionCookies)
	assert.NotNil(t, r.Providers)
}

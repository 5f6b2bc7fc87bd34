package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), DefaultFileName))
	s.now = func() time.Time { return now }
	return s
}

// --- Store Tests ---

func TestStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	cookies := []Cookie{
		{Name: "li_at", Value: "token", Domain: ".www.linkedin.com", Path: "/", Expires: float64(now.Add(time.Hour).Unix()), HTTPOnly: true, Secure: true, SameSite: "None"},
		{Name: "JSESSIONID", Value: "ajax:1", Domain: ".www.linkedin.com", Path: "/", Expires: -1},
	}
	require.True(t, s.Save(cookies))

	got := s.Load()
	assert.Equal(t, cookies, got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestStore_SaveEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Save(nil))
	assert.False(t, s.Save([]Cookie{}))
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadFiltersExpired(t *testing.T) {
	s := newTestStore(t)
	data, _ := json.Marshal([]Cookie{
		{Name: "old", Value: "1", Expires: float64(now.Add(-time.Minute).Unix())},
		{Name: "edge", Value: "2", Expires: float64(now.Unix())},
		{Name: "session", Value: "3", Expires: 0},
		{Name: "", Value: "nameless"},
	})
	require.NoError(t, os.WriteFile(s.Path(), data, 0o600))

	got := s.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "session", got[0].Name)
}

func TestStore_LoadNothingUsable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "{not json"},
		{"object", `{"name":"li_at"}`},
		{"empty list", `[]`},
		{"all expired", `[{"name":"a","value":"b","expires":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o600))
			assert.Nil(t, s.Load())
		})
	}

	assert.Nil(t, newTestStore(t).Load(), "missing file")
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete(), "missing file is not an error")

	require.True(t, s.Save([]Cookie{{Name: "a", Value: "b"}}))
	s.Invalidate()
	assert.Nil(t, s.Load())
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestNewStore_DefaultPath(t *testing.T) {
	s := NewStore("")
	assert.Equal(t, DefaultFileName, filepath.Base(s.Path()))
}

// --- Liveness Tests ---

func TestLiveness(t *testing.T) {
	present := func(sels ...string) func(string) bool {
		return func(sel string) bool {
			for _, s := range sels {
				if s == sel {
					return true
				}
			}
			return false
		}
	}

	tests := []struct {
		name   string
		url    string
		exists func(string) bool
		want   bool
	}{
		{"feed with nav", "https://www.linkedin.com/feed/", present("nav.global-nav"), true},
		{"feed with identity module", "https://www.linkedin.com/feed/", present(".feed-identity-module"), true},
		{"feed without account elements", "https://www.linkedin.com/feed/", present(), false},
		{"login redirect", "https://www.linkedin.com/login?session_redirect=x", present("nav.global-nav"), false},
		{"authwall", "https://www.linkedin.com/authwall?trk=1", present("#global-nav"), false},
		{"checkpoint", "https://www.linkedin.com/checkpoint/challenge/abc", present("#global-nav"), false},
		{"uas login", "https://www.linkedin.com/uas/login", present("#global-nav"), false},
		{"empty url", "", present("#global-nav"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Liveness(tt.url, tt.exists))
			assert.Equal(t, tt.want, Liveness(tt.url, tt.exists), "idempotent")
		})
	}
}

type fakePage struct {
	url       string
	selectors map[string]bool
	navigated []string
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}
func (p *fakePage) WaitFor(context.Context, string, time.Duration) bool { return true }
func (p *fakePage) Exists(_ context.Context, sel string) bool           { return p.selectors[sel] }
func (p *fakePage) Location(context.Context) string                     { return p.url }

func TestStore_Validate(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.Save([]Cookie{{Name: "li_at", Value: "x"}}))

	alive := &fakePage{url: FeedURL, selectors: map[string]bool{"img.global-nav__me-photo": true}}
	assert.True(t, s.Validate(context.Background(), alive))
	assert.Equal(t, []string{FeedURL}, alive.navigated)
	assert.NotNil(t, s.Load())

	dead := &fakePage{url: "https://www.linkedin.com/login"}
	assert.False(t, s.Validate(context.Background(), dead))
	assert.Nil(t, s.Load(), "dead session must be deleted")
}

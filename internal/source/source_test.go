package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetURL(t *testing.T) {
	got := SheetURL("docs.google.com", "abc123", "42")
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=42", got)
}

func serve(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second)
}

func TestFetch(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Nationality,Race_Entries,Podiums\nBritish,200,50\nGerman,150,40\n"))
	})

	store, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Rows)
	assert.Equal(t, []string{"Nationality", "Race_Entries", "Podiums"}, store.Names())
}

func TestFetchErrors(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		status  int
	}{
		"server error": {
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			status:  http.StatusInternalServerError,
		},
		"not found": {
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			status:  http.StatusNotFound,
		},
		"html sign-in page": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte("<html>sign in</html>"))
			},
			status: http.StatusOK,
		},
		"empty body": {
			handler: func(w http.ResponseWriter, r *http.Request) { w.Header().Set("Content-Type", "text/csv") },
			status:  http.StatusOK,
		},
		"ragged csv": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/csv")
				_, _ = w.Write([]byte("a,b\n1\n"))
			},
			status: http.StatusOK,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := serve(t, tt.handler)
			_, err := c.Fetch(context.Background())

			var fe *FetchError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.status, fe.Status)
			assert.Equal(t, c.URL, fe.URL)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c.Timeout = 50 * time.Millisecond

	_, err := c.Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
}

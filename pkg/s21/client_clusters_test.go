package s21

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClusterMap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/clusters/36621/map":
			require.Equal(t, "100", r.URL.Query().Get("limit"))
			require.Equal(t, "0", r.URL.Query().Get("offset"))
			_, _ = w.Write([]byte(`{"clusterMap":[
				{"login":"abcdefgh","row":"a","number":2},
				{"login":null,"row":"a","number":"3"}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient("http://unused.invalid", srv.URL)
	c.Limiter = nil

	t.Run("decodes mixed seat types", func(t *testing.T) {
		seats, err := c.ClusterMap(context.Background(), "good", "36621")
		require.NoError(t, err)
		require.Len(t, seats, 2)
		require.Equal(t, "abcdefgh", seats[0].Login)
		require.Equal(t, "a", seats[0].Row.String())
		require.Equal(t, "2", seats[0].Number.String())
		require.Empty(t, seats[1].Login)
		require.Equal(t, "3", seats[1].Number.String())
	})

	t.Run("wraps status errors", func(t *testing.T) {
		_, err := c.ClusterMap(context.Background(), "good", "99999")

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, "99999", fetchErr.ClusterID)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("reports unauthorized", func(t *testing.T) {
		_, err := c.ClusterMap(context.Background(), "stale", "36621")
		require.True(t, IsUnauthorized(err))
	})
}

func TestClusterMapFollowsFullPages(t *testing.T) {
	t.Parallel()

	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		n, base := clusterPageSize, 0
		if offset != "0" {
			n, base = 1, clusterPageSize
		}
		seats := make([]string, n)
		for i := range seats {
			seats[i] = fmt.Sprintf(`{"login":"user%04d","row":"b","number":%d}`, base+i, base+i)
		}
		_, _ = w.Write([]byte(`{"clusterMap":[` + strings.Join(seats, ",") + `]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("http://unused.invalid", srv.URL)
	c.Limiter = nil

	seats, err := c.ClusterMap(context.Background(), "good", "36622")
	require.NoError(t, err)
	require.Len(t, seats, clusterPageSize+1)
	require.Equal(t, []string{"0", "100"}, offsets)
}

func TestClusterMapStopsWhenOffsetIsIgnored(t *testing.T) {
	t.Parallel()

	var pages atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		// every page is the same full first page
		seats := make([]string, clusterPageSize)
		for i := range seats {
			seats[i] = fmt.Sprintf(`{"login":"user%04d","row":"c","number":%d}`, i, i)
		}
		_, _ = w.Write([]byte(`{"clusterMap":[` + strings.Join(seats, ",") + `]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("http://unused.invalid", srv.URL)
	c.Limiter = nil

	seats, err := c.ClusterMap(context.Background(), "good", "36623")
	require.NoError(t, err)
	require.Len(t, seats, clusterPageSize)
	require.EqualValues(t, 2, pages.Load())

	logins := make(map[string]int, len(seats))
	for _, s := range seats {
		logins[s.Login]++
	}
	for login, n := range logins {
		require.Equal(t, 1, n, login)
	}
}

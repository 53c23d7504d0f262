package neynar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFollowing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "1149437", r.URL.Query().Get("fids"))
		assert.Equal(t, "100", r.URL.Query().Get("viewer_fid"))
		w.Write([]byte(`{"users":[{"fid":1149437,"username":"beamr","viewer_context":{"following":true}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second, nil)
	assert.Equal(t, CheckSatisfied, client.IsFollowing(context.Background(), 100, 1149437))
}

func TestIsFollowingNotSatisfied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[{"fid":1149437,"viewer_context":{"following":false}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second, nil)
	assert.Equal(t, CheckNotSatisfied, client.IsFollowing(context.Background(), 100, 1149437))
}

func TestIsFollowingDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second, nil)
	check := client.IsFollowing(context.Background(), 100, 1149437)
	assert.Equal(t, CheckUnknown, check)
	assert.False(t, check.Satisfied())
}

func TestIsFollowingDegradesOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"users":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 20*time.Millisecond, nil)
	assert.Equal(t, CheckUnknown, client.IsFollowing(context.Background(), 100, 1149437))
}

func TestIsInChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "beamr", r.URL.Query().Get("q"))
		w.Write([]byte(`{"channels":[{"viewer_context":{"following":true}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second, nil)
	assert.Equal(t, CheckSatisfied, client.IsInChannel(context.Background(), 100, "beamr"))
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[{"fid":100,"username":"alice","display_name":"Alice","custody_address":"0xabc"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second, nil)
	user, err := client.FetchUser(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.FID)
	assert.Equal(t, "alice", user.Username)
}

func TestFetchUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second, nil)
	_, err := client.FetchUser(context.Background(), 100)
	assert.Error(t, err)
}

package device

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Disabled(t *testing.T) {
	assert.Nil(t, NewClient(config.DeviceConfig{}))
}

func TestFetchLogs_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logs", r.URL.Path)
		assert.Equal(t, "device-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2024-03-04T00:00:00Z", r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"logs":[{"user_id":"101","record_time":"2024-03-04T09:08:00+05:30"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.DeviceConfig{BaseURL: srv.URL + "/", APIKey: "device-key", Timeout: time.Second})
	logs, err := c.FetchLogs(context.Background(), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "101", logs[0].UserID)
}

func TestFetchLogs_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(config.DeviceConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.FetchLogs(context.Background(), time.Now())
	require.Error(t, err)

	var commErr *CommunicationError
	require.True(t, errors.As(err, &commErr))
	assert.True(t, commErr.Timeout())
}

func TestFetchLogs_Offline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(config.DeviceConfig{BaseURL: url, Timeout: time.Second})
	_, err := c.FetchLogs(context.Background(), time.Now())

	var commErr *CommunicationError
	require.ErrorAs(t, err, &commErr)
	assert.Equal(t, "fetch logs", commErr.Op)
}

func TestFetchLogs_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(config.DeviceConfig{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.FetchLogs(context.Background(), time.Now())

	var commErr *CommunicationError
	require.ErrorAs(t, err, &commErr)
	assert.Equal(t, http.StatusServiceUnavailable, commErr.StatusCode)
}

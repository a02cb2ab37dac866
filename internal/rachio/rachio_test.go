package rachio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

const sampleResponse = `{
  "state": {
    "deviceId": "REDACTED",
    "health": "GOOD",
    "state": "IDLE",
    "lastRun": "2025-09-29T11:03:30Z",
    "nextRun": "2025-10-05T12:00:00Z",
    "rainSensorTripped": false,
    "rssi": -62,
    "desiredState": "DESIRED_ACTIVE"
  }
}`

// seenRequest captures what the test server received.
type seenRequest struct {
	Method string
	Path   string
	Auth   string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *seenRequest) {
	t.Helper()
	got := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Method = r.Method
		got.Path = r.URL.Path
		got.Auth = r.Header.Get("Authorization")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestFetchState(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, sampleResponse)
	c := NewRealClient(srv.URL+"/", "secret", "dev-123")

	st, err := c.FetchState(context.Background())
	require.NoError(t, err)
	require.Equal(t, logic.DeviceState{Mode: logic.ModeIdle, NextRun: "2025-10-05T12:00:00Z"}, st)

	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/device/getDeviceState/dev-123", req.Path)
	require.Equal(t, "Bearer secret", req.Auth)
}

func TestFetchStateOptionalFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want logic.DeviceState
	}{
		{"no next run", `{"state": {"state": "IDLE"}}`, logic.DeviceState{Mode: logic.ModeIdle}},
		{"no mode", `{"state": {"nextRun": "2025-10-05T12:00:00Z"}}`, logic.DeviceState{NextRun: "2025-10-05T12:00:00Z"}},
		{"unknown mode", `{"state": {"state": "OFFLINE"}}`, logic.DeviceState{Mode: "OFFLINE"}},
		{"empty state", `{"state": {}}`, logic.DeviceState{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, tt.body)
			st, err := NewRealClient(srv.URL, "secret", "dev").FetchState(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.want, st)
		})
	}
}

func TestFetchStateMalformed(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"devices": []}`)
	_, err := NewRealClient(srv.URL, "secret", "dev").FetchState(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)

	srv, _ = newServer(t, http.StatusOK, `not json`)
	_, err = NewRealClient(srv.URL, "secret", "dev").FetchState(context.Background())
	require.Error(t, err)
}

func TestFetchStateHTTPErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"error":"bad token"}`)
	_, err := NewRealClient(srv.URL, "", "dev").FetchState(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	srv, _ = newServer(t, http.StatusInternalServerError, `oops`)
	_, err = NewRealClient(srv.URL, "secret", "dev").FetchState(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=500")
	require.False(t, errors.Is(err, ErrUnauthorized))
}

func TestFetchStateConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRealClient(url, "secret", "dev").FetchState(context.Background())
	require.Error(t, err)
}

func TestFetchStateCanceled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, sampleResponse)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRealClient(srv.URL, "secret", "dev").FetchState(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRealClientDefaultURL(t *testing.T) {
	require.Equal(t, DefaultBaseURL, NewRealClient(" ", "t", "d").baseURL)
}

func TestFakeFetcher(t *testing.T) {
	f := NewFakeFetcher(
		logic.DeviceState{Mode: logic.ModeWatering},
		logic.DeviceState{Mode: logic.ModeIdle},
	)

	st, _ := f.FetchState(context.Background())
	require.Equal(t, logic.ModeWatering, st.Mode)
	st, _ = f.FetchState(context.Background())
	require.Equal(t, logic.ModeIdle, st.Mode)
	st, _ = f.FetchState(context.Background())
	require.Equal(t, logic.ModeIdle, st.Mode, "last state repeats")
	require.Equal(t, 3, f.Calls)
}

// Package rachio fetches controller state from the Rachio cloud API.
package rachio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// DefaultBaseURL is the Rachio cloud REST endpoint.
const DefaultBaseURL = "https://cloud-rest.rach.io"

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnauthorized is returned on a 401 or 403 response.
	ErrUnauthorized = errors.New("rachio: unauthorized")

	// ErrMalformedResponse is returned when the response has no state object.
	ErrMalformedResponse = errors.New("rachio: malformed response")
)

// Fetcher returns the controller's current state.
type Fetcher interface {
	FetchState(ctx context.Context) (logic.DeviceState, error)
}

var _ Fetcher = &RealClient{}

// RealClient talks to the Rachio API over HTTPS.
type RealClient struct {
	baseURL    string
	token      string
	deviceID   string
	httpClient *http.Client
}

// NewRealClient builds a client for one device. An empty baseURL selects
// DefaultBaseURL.
func NewRealClient(baseURL, token, deviceID string) *RealClient {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = DefaultBaseURL
	}
	return &RealClient{
		baseURL:  strings.TrimRight(u, "/"),
		token:    token,
		deviceID: deviceID,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type deviceStateResponse struct {
	State *deviceStateBody `json:"state"`
}

type deviceStateBody struct {
	State   *string `json:"state"`
	NextRun *string `json:"nextRun"`
}

// FetchState requests the device state. Transport failures, non-2xx responses
// and a missing state object are errors. A missing mode or next run is logged
// and returned empty.
func (c *RealClient) FetchState(ctx context.Context) (logic.DeviceState, error) {
	endpoint := c.baseURL + "/device/getDeviceState/" + url.PathEscape(c.deviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return logic.DeviceState{}, fmt.Errorf("build device state request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	logrus.WithField("url", endpoint).Debug("fetching device state")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return logic.DeviceState{}, fmt.Errorf("device state request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return logic.DeviceState{}, fmt.Errorf("%w: status=%d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return logic.DeviceState{}, fmt.Errorf("device state request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return logic.DeviceState{}, fmt.Errorf("read device state response: %w", err)
	}

	return parseDeviceState(body)
}

func parseDeviceState(body []byte) (logic.DeviceState, error) {
	var raw deviceStateResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return logic.DeviceState{}, fmt.Errorf("decode device state response: %w", err)
	}
	if raw.State == nil {
		return logic.DeviceState{}, fmt.Errorf("%w: no state object", ErrMalformedResponse)
	}

	var st logic.DeviceState
	if raw.State.State != nil {
		st.Mode = logic.OperatingMode(*raw.State.State)
	} else {
		logrus.Warn("unable to determine device state from Rachio API")
	}
	if raw.State.NextRun != nil {
		st.NextRun = *raw.State.NextRun
	} else {
		logrus.Info("no future watering events are scheduled")
	}
	return st, nil
}

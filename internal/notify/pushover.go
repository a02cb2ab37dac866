package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

var _ Sender = &PushoverSender{}

// PushoverSender posts notifications to the Pushover relay.
type PushoverSender struct {
	endpoint   string
	appToken   string
	userKey    string
	httpClient *http.Client
}

// NewPushoverSender builds a sender. An empty endpoint selects DefaultPushoverURL.
func NewPushoverSender(endpoint, appToken, userKey string) *PushoverSender {
	e := strings.TrimSpace(endpoint)
	if e == "" {
		e = DefaultPushoverURL
	}
	return &PushoverSender{
		endpoint: e,
		appToken: appToken,
		userKey:  userKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts the notification text. The acknowledgment body is not interpreted
// beyond the status code.
func (p *PushoverSender) Send(ctx context.Context, n logic.Notification) error {
	form := url.Values{
		"token":   {p.appToken},
		"user":    {p.userKey},
		"message": {n.Text()},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("pushover request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	logrus.WithField("kind", n.Kind).Debug("pushover notification delivered")
	return nil
}

package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

var reminder = logic.Notification{
	Kind:    logic.KindReminder,
	Title:   "Reminder",
	Message: "Sprinklers will run tomorrow at 7:00AM",
}

func TestPushoverSend(t *testing.T) {
	var form url.Values
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		contentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"status":1,"request":"abc"}`))
	}))
	defer srv.Close()

	s := NewPushoverSender(srv.URL, "app-token", "user-key")
	require.NoError(t, s.Send(context.Background(), reminder))

	require.Equal(t, "application/x-www-form-urlencoded", contentType)
	require.Equal(t, "app-token", form.Get("token"))
	require.Equal(t, "user-key", form.Get("user"))
	require.Equal(t, "Reminder\nSprinklers will run tomorrow at 7:00AM", form.Get("message"))
}

func TestPushoverSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":0,"errors":["application token is invalid"]}`))
	}))
	defer srv.Close()

	err := NewPushoverSender(srv.URL, "bad", "user").Send(context.Background(), reminder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=400")
}

func TestPushoverDefaultURL(t *testing.T) {
	require.Equal(t, DefaultPushoverURL, NewPushoverSender("", "t", "u").endpoint)
}

package logging

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func withSyslogHook(t *testing.T, fn func() (logrus.Hook, error)) {
	t.Helper()
	old := newSyslogHook
	newSyslogHook = fn
	t.Cleanup(func() { newSyslogHook = old })
}

func TestSetupContainer(t *testing.T) {
	withSyslogHook(t, func() (logrus.Hook, error) {
		t.Fatal("syslog must not be used in a container")
		return nil, nil
	})
	l := logrus.New()

	require.NoError(t, Setup(l, "debug", true))
	require.Equal(t, logrus.DebugLevel, l.GetLevel())
	require.Equal(t, os.Stdout, l.Out)
	require.Empty(t, l.Hooks)
}

func TestSetupSyslog(t *testing.T) {
	hook := test.NewLocal(logrus.New())
	withSyslogHook(t, func() (logrus.Hook, error) { return hook, nil })
	l := logrus.New()

	require.NoError(t, Setup(l, "info", false))
	require.Equal(t, io.Discard, l.Out)

	l.Info("no change to irrigation schedule was detected")
	require.Len(t, hook.AllEntries(), 1)
	require.Equal(t, "no change to irrigation schedule was detected", hook.LastEntry().Message)
}

func TestSetupSyslogUnavailable(t *testing.T) {
	withSyslogHook(t, func() (logrus.Hook, error) { return nil, errors.New("no syslog socket") })
	l := logrus.New()

	require.NoError(t, Setup(l, "warn", false))
	require.Equal(t, os.Stdout, l.Out)
	require.Equal(t, logrus.WarnLevel, l.GetLevel())
}

func TestSetupInvalidLevel(t *testing.T) {
	require.Error(t, Setup(logrus.New(), "chatty", true))
}

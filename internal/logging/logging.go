// Package logging configures logrus for console or syslog output.
package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// Tag identifies this program in syslog.
const Tag = "rachio-notifier"

// newSyslogHook connects to the local syslog daemon. Replaced in tests.
var newSyslogHook = func() (logrus.Hook, error) {
	return lsyslog.NewSyslogHook("", "", syslog.LOG_INFO|syslog.LOG_DAEMON, Tag)
}

// Setup sets the level and sink of l. In a container logs go to stdout;
// otherwise they go to syslog, falling back to stdout when syslog is unreachable.
func Setup(l *logrus.Logger, level string, container bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})

	if container {
		l.SetOutput(os.Stdout)
		return nil
	}

	hook, err := newSyslogHook()
	if err != nil {
		l.SetOutput(os.Stdout)
		l.Warnf("syslog unavailable, logging to stdout: %v", err)
		return nil
	}
	l.AddHook(hook)
	// syslog adds its own timestamp and tag.
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetOutput(io.Discard)
	return nil
}

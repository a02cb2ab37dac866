// Command rachio-notifier checks a Rachio controller's next scheduled run and
// sends a Pushover notification when the schedule changes or a reminder is due.
// It is meant to be run periodically by cron or a container scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/rachio-notifier/internal/config"
	"github.com/sweeney/rachio-notifier/internal/logging"
	"github.com/sweeney/rachio-notifier/internal/logic"
	"github.com/sweeney/rachio-notifier/internal/mqtt"
	"github.com/sweeney/rachio-notifier/internal/notify"
	"github.com/sweeney/rachio-notifier/internal/rachio"
	"github.com/sweeney/rachio-notifier/internal/store"
)

// runTimeout bounds one whole invocation.
const runTimeout = 30 * time.Second

func main() {
	if err := newCommand(config.NewViper()).Execute(); err != nil {
		fatal(logrus.StandardLogger(), err)
	}
}

// fatal logs err once and exits non-zero through l.ExitFunc.
func fatal(l *logrus.Logger, err error) {
	l.Fatalf("fatal: %v", err)
}

type options struct {
	printState bool
	dryRun     bool
}

func newCommand(v *viper.Viper) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "rachio-notifier",
		Short: "Notify about Rachio irrigation schedule changes",
		Long: `rachio-notifier fetches the next scheduled run of a Rachio controller,
compares it with the previous run's record and sends a Pushover notification
when the schedule changed or when the sprinklers will run tomorrow.

Credentials and settings are read from the environment:
  RACHIO_API_TOKEN, RACHIO_DEVICE_ID, PUSHOVER_USER_KEY, PUSHOVER_API_TOKEN,
  TIMEZONE, CONTAINER, REMINDER_START_HOUR, REMINDER_END_HOUR, MQTT_BROKER`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := logging.Setup(logrus.StandardLogger(), cfg.LogLevel, cfg.Container); err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("state-file", store.DefaultPath, "path of the JSON state file")
	flags.StringP("log-level", "l", "info", "log level (trace, debug, info, warn, error)")
	flags.String("timezone", config.DefaultTimezone, "IANA timezone used for local times")
	flags.BoolVar(&opts.printState, "print-state", false, "print current device state and exit")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "log notifications without sending them or writing state")

	// Flags override the environment only when set explicitly.
	mustBindFlag(v, config.KeyStateFile, flags.Lookup("state-file"))
	mustBindFlag(v, config.KeyLogLevel, flags.Lookup("log-level"))
	mustBindFlag(v, config.KeyTimezone, flags.Lookup("timezone"))

	return cmd
}

// mustBindFlag binds flag to key and panics when the flag does not exist.
func mustBindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag for %s: %v", key, err))
	}
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	fetcher := rachio.NewRealClient(cfg.Rachio.BaseURL, cfg.Rachio.Token, cfg.Rachio.DeviceID)

	if opts.printState {
		return printState(ctx, out, fetcher, time.Now(), cfg.Location)
	}

	var mirror mirrorPublisher
	if cfg.MQTT.Broker != "" {
		publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			logrus.WithField("broker", cfg.MQTT.Broker).Warnf("mqtt mirror disabled: %v", err)
		} else {
			defer publisher.Close()
			mirror = publisher
		}
	}

	_, err := check(ctx, checker{
		store:   store.NewFile(cfg.StateFile),
		fetcher: fetcher,
		sender:  notify.NewPushoverSender(cfg.Pushover.URL, cfg.Pushover.AppToken, cfg.Pushover.UserKey),
		mirror:  mirror,
		now:     time.Now,
		loc:     cfg.Location,
		window:  cfg.Window,
		dryRun:  opts.dryRun,
	})
	return err
}

// mirrorPublisher receives a copy of every notification and the result of
// every invocation. Its failures never affect delivery or the saved record.
type mirrorPublisher interface {
	notify.Sender
	PublishOutcome(event mqtt.OutcomeEvent) error
}

// checker holds the collaborators of a single invocation.
type checker struct {
	store   store.Store
	fetcher rachio.Fetcher
	sender  notify.Sender
	mirror  mirrorPublisher // optional
	now     func() time.Time
	loc     *time.Location
	window  logic.ReminderWindow
	dryRun  bool
}

// check performs one fetch-compare-notify cycle. Handled conditions (device
// busy, nothing scheduled, first run) return a nil error; fetch, parse and
// state-file failures propagate and leave the record untouched.
func check(ctx context.Context, c checker) (logic.Outcome, error) {
	prev, err := c.store.Load()
	if errors.Is(err, store.ErrNotFound) {
		return bootstrap(ctx, c)
	}
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}

	st, err := c.fetcher.FetchState(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch device state: %w", err)
	}

	now := c.now()
	d, err := logic.Decide(prev, st, now, c.loc, c.window)
	if err != nil {
		return "", fmt.Errorf("evaluate schedule: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"mode":     st.Mode,
		"next_run": st.NextRun,
	})
	switch d.Outcome {
	case logic.OutcomeWatering:
		log.Info("Sprinklers are currently running. Not evaluating the schedule at this time.")
	case logic.OutcomeStandby:
		log.Info("Controller is in hibernation mode. No schedule to evaluate.")
	case logic.OutcomeUnknownMode:
		log.Warn("Unrecognized controller state. Not evaluating the schedule at this time.")
	case logic.OutcomeNoRunScheduled:
		log.Info("No future watering events are scheduled.")
	case logic.OutcomeNoChange:
		log.Info("No change to irrigation schedule was detected")
	}

	sent := 0
	for _, n := range d.Notifications {
		log.WithField("kind", n.Kind).Infof("%s - %s", n.Title, n.Message)
		if c.dryRun {
			continue
		}
		if err := c.sender.Send(ctx, n); err != nil {
			log.WithField("kind", n.Kind).Errorf("failed to send notification: %v", err)
		} else {
			sent++
		}
		c.mirrorNotification(ctx, n)
	}

	if d.Record != nil && !c.dryRun {
		if err := c.store.Save(*d.Record); err != nil {
			return "", fmt.Errorf("save state: %w", err)
		}
	}

	event := mqtt.OutcomeEvent{
		Timestamp:  now,
		Outcome:    d.Outcome,
		Mode:       st.Mode,
		NextRun:    st.NextRun,
		Evaluation: d.Evaluation,
		Sent:       sent,
	}
	if d.Record != nil {
		event.ReminderSent = d.Record.ReminderSent
	}
	c.publishOutcome(event)

	return d.Outcome, nil
}

// bootstrap records the current schedule on the very first run without
// notifying.
func bootstrap(ctx context.Context, c checker) (logic.Outcome, error) {
	logrus.Info("State file not found. Fetching current state and exiting.")

	st, err := c.fetcher.FetchState(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch device state: %w", err)
	}

	rec := logic.Record{NextRun: st.NextRun, ReminderSent: false}
	if !c.dryRun {
		if err := c.store.Save(rec); err != nil {
			return "", fmt.Errorf("save state: %w", err)
		}
	}

	c.publishOutcome(mqtt.OutcomeEvent{
		Timestamp: c.now(),
		Outcome:   logic.OutcomeBootstrapped,
		Mode:      st.Mode,
		NextRun:   st.NextRun,
	})
	return logic.OutcomeBootstrapped, nil
}

func (c checker) mirrorNotification(ctx context.Context, n logic.Notification) {
	if c.mirror == nil || c.dryRun {
		return
	}
	if err := c.mirror.Send(ctx, n); err != nil {
		logrus.WithField("kind", n.Kind).Warnf("failed to mirror notification: %v", err)
	}
}

func (c checker) publishOutcome(event mqtt.OutcomeEvent) {
	if c.mirror == nil || c.dryRun {
		return
	}
	if err := c.mirror.PublishOutcome(event); err != nil {
		logrus.Warnf("failed to publish outcome: %v", err)
	}
}

// printState fetches and prints the device state without notifying or
// touching the state file.
func printState(ctx context.Context, out io.Writer, fetcher rachio.Fetcher, now time.Time, loc *time.Location) error {
	st, err := fetcher.FetchState(ctx)
	if err != nil {
		return fmt.Errorf("fetch device state: %w", err)
	}

	mode := string(st.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	if st.NextRun == "" {
		fmt.Fprintf(out, "Mode: %s, Next run: none\n", mode)
		return nil
	}

	ev, err := logic.Evaluate(st.NextRun, now, loc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Mode: %s, %s\n", mode, logic.ScheduleMessage(ev))
	return nil
}

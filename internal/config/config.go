// Package config builds the runtime configuration once from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // containers may ship without a zoneinfo database

	"github.com/spf13/viper"

	"github.com/sweeney/rachio-notifier/internal/logic"
	"github.com/sweeney/rachio-notifier/internal/notify"
	"github.com/sweeney/rachio-notifier/internal/rachio"
	"github.com/sweeney/rachio-notifier/internal/store"
)

// Environment keys. viper maps each key to the upper-cased variable name.
const (
	KeyRachioToken       = "rachio_api_token"
	KeyRachioDeviceID    = "rachio_device_id"
	KeyRachioURL         = "rachio_api_url"
	KeyPushoverUserKey   = "pushover_user_key"
	KeyPushoverAppToken  = "pushover_api_token"
	KeyPushoverURL       = "pushover_api_url"
	KeyTimezone          = "timezone"
	KeyContainer         = "container"
	KeyReminderStartHour = "reminder_start_hour"
	KeyReminderEndHour   = "reminder_end_hour"
	KeyStateFile         = "state_file"
	KeyLogLevel          = "log_level"
	KeyMQTTBroker        = "mqtt_broker"
	KeyMQTTClientID      = "mqtt_client_id"
)

// DefaultTimezone is used when TIMEZONE is unset.
const DefaultTimezone = "America/Chicago"

// alpineRelease marks the container image.
var alpineRelease = "/etc/alpine-release"

// Config aggregates runtime configuration. Credentials are not validated;
// a missing token surfaces as an API auth failure.
type Config struct {
	Rachio    RachioConfig
	Pushover  PushoverConfig
	MQTT      MQTTConfig
	Timezone  string
	Location  *time.Location
	Container bool
	Window    logic.ReminderWindow
	StateFile string
	LogLevel  string
}

// RachioConfig holds device API settings.
type RachioConfig struct {
	Token    string
	DeviceID string
	BaseURL  string
}

// PushoverConfig holds notification relay settings.
type PushoverConfig struct {
	UserKey  string
	AppToken string
	URL      string
}

// MQTTConfig holds the optional mirror settings. An empty Broker disables it.
type MQTTConfig struct {
	Broker   string
	ClientID string
}

// NewViper returns a viper instance bound to the environment with defaults set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRachioURL, rachio.DefaultBaseURL)
	v.SetDefault(KeyPushoverURL, notify.DefaultPushoverURL)
	v.SetDefault(KeyTimezone, DefaultTimezone)
	v.SetDefault(KeyContainer, detectContainer())
	v.SetDefault(KeyReminderStartHour, logic.DefaultReminderWindow.StartHour)
	v.SetDefault(KeyReminderEndHour, logic.DefaultReminderWindow.EndHour)
	v.SetDefault(KeyStateFile, store.DefaultPath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMQTTClientID, "rachio-notifier")
	return v
}

// Load reads configuration from v. It fails on an unknown timezone or an
// invalid reminder window.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Rachio: RachioConfig{
			Token:    v.GetString(KeyRachioToken),
			DeviceID: v.GetString(KeyRachioDeviceID),
			BaseURL:  v.GetString(KeyRachioURL),
		},
		Pushover: PushoverConfig{
			UserKey:  v.GetString(KeyPushoverUserKey),
			AppToken: v.GetString(KeyPushoverAppToken),
			URL:      v.GetString(KeyPushoverURL),
		},
		MQTT: MQTTConfig{
			Broker:   strings.TrimSpace(v.GetString(KeyMQTTBroker)),
			ClientID: v.GetString(KeyMQTTClientID),
		},
		Timezone:  strings.TrimSpace(v.GetString(KeyTimezone)),
		Container: v.GetBool(KeyContainer),
		Window: logic.ReminderWindow{
			StartHour: v.GetInt(KeyReminderStartHour),
			EndHour:   v.GetInt(KeyReminderEndHour),
		},
		StateFile: v.GetString(KeyStateFile),
		LogLevel:  v.GetString(KeyLogLevel),
	}

	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func detectContainer() bool {
	_, err := os.Stat(alpineRelease)
	return err == nil
}

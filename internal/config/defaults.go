package config

const (
	defaultDataDir              = "~/.local/share/callwatch"
	defaultLogDir               = "~/.local/share/callwatch/logs"
	defaultStoreFile            = "calls.db"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultSettleDelayMS        = 2000
	defaultStabilityThresholdMS = 2000
	defaultPollIntervalMS       = 100
	defaultMQTTClientID         = "callwatch"
	defaultMQTTTopic            = "callwatch/calls/{system}/{talkgroup}"
	defaultNotifyRequestTimeout = 10
)

// DeleteMode values accepted by dir_watch.delete_mode.
const (
	DeleteModeAlways   = "always"
	DeleteModeImported = "imported"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Workflow: Workflow{
			SettleDelayMS:        defaultSettleDelayMS,
			StabilityThresholdMS: defaultStabilityThresholdMS,
			PollIntervalMS:       defaultPollIntervalMS,
		},
		Store: Store{
			Enabled: true,
		},
		MQTT: MQTT{
			ClientID: defaultMQTTClientID,
			Topic:    defaultMQTTTopic,
			QoS:      1,
		},
		Notifications: Notifications{
			RequestTimeout:   defaultNotifyRequestTimeout,
			ImportFailures:   true,
			CompanionMissing: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

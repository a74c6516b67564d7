package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeMQTT()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeDirWatch()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	var err error
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, defaultStoreFile)
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SettleDelayMS < 0 {
		c.Workflow.SettleDelayMS = 0
	}
	if c.Workflow.StabilityThresholdMS <= 0 {
		c.Workflow.StabilityThresholdMS = defaultStabilityThresholdMS
	}
	if c.Workflow.PollIntervalMS <= 0 {
		c.Workflow.PollIntervalMS = defaultPollIntervalMS
	}
}

func (c *Config) normalizeMQTT() {
	c.MQTT.Broker = strings.TrimSpace(c.MQTT.Broker)
	c.MQTT.ClientID = strings.TrimSpace(c.MQTT.ClientID)
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultMQTTClientID
	}
	c.MQTT.Topic = strings.TrimSpace(c.MQTT.Topic)
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = defaultMQTTTopic
	}
	c.MQTT.Username = strings.TrimSpace(c.MQTT.Username)
	if c.MQTT.Password == "" {
		if value, ok := os.LookupEnv("CALLWATCH_MQTT_PASSWORD"); ok {
			c.MQTT.Password = value
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CALLWATCH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// normalizeDirWatch only canonicalizes the typed fields. Untyped values are
// left alone; entries with an unusable directory are skipped by the watch layer.
func (c *Config) normalizeDirWatch() {
	for i := range c.DirWatch {
		entry := &c.DirWatch[i]
		entry.Type = strings.ToLower(strings.TrimSpace(entry.Type))
		entry.DeleteMode = strings.ToLower(strings.TrimSpace(entry.DeleteMode))
		if entry.DeleteMode == "" {
			entry.DeleteMode = DeleteModeAlways
		}
		if dir, ok := entry.Directory.(string); ok && strings.TrimSpace(dir) != "" {
			if expanded, err := expandPath(strings.TrimSpace(dir)); err == nil {
				entry.Directory = expanded
			}
		}
	}
}

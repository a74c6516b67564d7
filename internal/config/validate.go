package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMQTT(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDirWatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.stability_threshold_ms": c.Workflow.StabilityThresholdMS,
		"workflow.poll_interval_ms":       c.Workflow.PollIntervalMS,
		"notifications.request_timeout":   c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.SettleDelayMS < 0 {
		return errors.New("workflow.settle_delay_ms must be >= 0")
	}
	if c.Workflow.PollIntervalMS > c.Workflow.StabilityThresholdMS {
		return errors.New("workflow.poll_interval_ms must not exceed workflow.stability_threshold_ms")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must be set when store.enabled is true")
	}
	return nil
}

func (c *Config) validateMQTT() error {
	if !c.MQTT.Enabled {
		return nil
	}
	if c.MQTT.Broker == "" {
		return errors.New("mqtt.broker must be set when mqtt.enabled is true")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.New("mqtt.qos must be 0, 1, or 2")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// validateDirWatch rejects only typed fields with unknown values. Unusable
// directories or field specs are not fatal: those entries or files are
// skipped at runtime with a log line.
func (c *Config) validateDirWatch() error {
	for i, entry := range c.DirWatch {
		switch entry.DeleteMode {
		case DeleteModeAlways, DeleteModeImported:
		default:
			return fmt.Errorf("dir_watch[%d].delete_mode: unsupported value %q (use %q or %q)",
				i, entry.DeleteMode, DeleteModeAlways, DeleteModeImported)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

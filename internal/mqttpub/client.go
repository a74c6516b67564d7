package mqttpub

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"callwatch/internal/config"
	"callwatch/internal/logging"
)

const connectTimeout = 10 * time.Second

// Client manages the broker connection.
type Client struct {
	client mqtt.Client
	logger *slog.Logger
}

// Connect dials the broker configured in cfg.
func Connect(cfg config.MQTT, logger *slog.Logger) (*Client, error) {
	logger = logging.NewComponentLogger(logger, "mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt connected",
			logging.String("broker", cfg.Broker),
			logging.String(logging.FieldEventType, "mqtt_connected"),
		)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.WarnWithContext(logger, "mqtt connection lost; reconnecting", "mqtt_connection_lost",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the broker is reachable"),
			logging.String(logging.FieldImpact, "call announcements fail until the connection is back"),
		)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	return &Client{client: client, logger: logger}, nil
}

// Native returns the underlying paho client.
func (c *Client) Native() mqtt.Client {
	return c.client
}

// Close disconnects, giving in-flight messages a short grace period.
func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Disconnect(250)
	c.logger.Info("mqtt disconnected", logging.String(logging.FieldEventType, "mqtt_disconnected"))
}

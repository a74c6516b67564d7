package preflight

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const brokerDialTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckWatchDirectory verifies a watched directory. Write access is only
// required when recordings are deleted after import.
func CheckWatchDirectory(name, path string, deleteAfter bool) Result {
	if deleteAfter {
		return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
	}
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckBroker verifies that the MQTT broker accepts TCP connections.
func CheckBroker(ctx context.Context, broker string) Result {
	const name = "MQTT broker"

	address, err := brokerAddress(broker)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	dialCtx, cancel := context.WithTimeout(ctx, brokerDialTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%v)", address, err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", address)}
}

// brokerAddress turns a paho broker URL such as tcp://host:1883 into a dial
// address. Schemes without an explicit port get the MQTT defaults.
func brokerAddress(broker string) (string, error) {
	broker = strings.TrimSpace(broker)
	if broker == "" {
		return "", fmt.Errorf("missing broker url")
	}
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	u, err := url.Parse(broker)
	if err != nil {
		return "", fmt.Errorf("invalid broker url %q: %w", broker, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid broker url %q: missing host", broker)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "ssl", "tls", "mqtts":
			port = "8883"
		case "ws":
			port = "80"
		case "wss":
			port = "443"
		default:
			port = "1883"
		}
	}
	return net.JoinHostPort(host, port), nil
}

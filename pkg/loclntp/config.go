package loclntp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/AndrewLester/loclntp/internal/ntp"
)

const DEFAULT_HOST = "0.0.0.0"
const DEFAULT_SOCKET = "/var/run/loclntp.sock"

type Config struct {
	Listen   string   // UDP address to answer on
	Workers  int      // goroutines reading the socket
	Metrics  string   // Prometheus listen address, empty to disable
	Socket   string   // control socket path, empty to disable
	TOS      int      // IPv4 TOS byte for replies, 0 to leave unset
	LogLevel LogLevel // error, info or debug
}

func DefaultConfig() Config {
	return Config{
		Listen:   net.JoinHostPort(DEFAULT_HOST, ntp.Port),
		Workers:  runtime.NumCPU(),
		Socket:   DEFAULT_SOCKET,
		LogLevel: LogInfo,
	}
}

// ParseConfig reads a config file on top of DefaultConfig. Each line is a
// directive followed by a single value; blank lines and lines starting with
// '#' are skipped.
//
//	listen 0.0.0.0:124
//	workers 4
//	metrics 127.0.0.1:9123
//	socket /var/run/loclntp.sock
//	tos 184
//	loglevel debug
func ParseConfig(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config %s could not be read: %w", path, err)
	}
	defer file.Close()

	return parseConfig(file)
}

func parseConfig(r io.Reader) (Config, error) {
	config := DefaultConfig()

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		arguments := strings.Fields(scanner.Text())

		if len(arguments) == 0 || strings.HasPrefix(arguments[0], "#") {
			continue
		}
		if len(arguments) < 2 {
			return Config{}, configParseError(lineNumber, "Missing value for \"", arguments[0], "\"")
		}
		if len(arguments) > 2 {
			return Config{}, configParseError(lineNumber, "Invalid arguments supplied to command. One was: \"", arguments[2], "\"")
		}

		value := arguments[1]
		switch arguments[0] {
		case "listen":
			address, err := listenAddress(value)
			if err != nil {
				return Config{}, configParseError(lineNumber, "Invalid address: ", value)
			}
			config.Listen = address
		case "workers":
			workers, err := integerArgument(lineNumber, "workers", value, 1, 1024)
			if err != nil {
				return Config{}, err
			}
			config.Workers = workers
		case "metrics":
			if value == "off" {
				config.Metrics = ""
			} else {
				config.Metrics = value
			}
		case "socket":
			if value == "off" {
				config.Socket = ""
			} else {
				config.Socket = value
			}
		case "tos":
			tos, err := integerArgument(lineNumber, "tos", value, 0, 255)
			if err != nil {
				return Config{}, err
			}
			config.TOS = tos
		case "loglevel":
			level, err := ParseLogLevel(value)
			if err != nil {
				return Config{}, configParseError(lineNumber, err)
			}
			config.LogLevel = level
		default:
			return Config{}, configParseError(lineNumber, "Invalid command: ", arguments[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// OverrideListen replaces the host and/or port of the listen address, as set
// by NTP_HOST and NTP_PORT.
func (config *Config) OverrideListen(host, port string) error {
	currentHost, currentPort, err := net.SplitHostPort(config.Listen)
	if err != nil {
		return err
	}
	if host != "" {
		currentHost = host
	}
	if port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid port %q", port)
		}
		currentPort = port
	}
	config.Listen = net.JoinHostPort(currentHost, currentPort)
	return nil
}

func listenAddress(value string) (string, error) {
	host, port, err := net.SplitHostPort(value)
	if err != nil {
		// Bare host, keep the NTP port
		host, port = strings.Trim(value, "[]"), ntp.Port
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", err
	}
	return net.JoinHostPort(host, port), nil
}

func integerArgument(line int, name string, value string, min, max int) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, configParseError(line, name, " argument requires an integer value.")
	}
	if parsed < min || parsed > max {
		return 0, configParseError(line, name, " must be between ", min, " and ", max)
	}
	return parsed, nil
}

func configParseError(line int, args ...any) error {
	return fmt.Errorf("config parse error on line %d: %s", line, fmt.Sprint(args...))
}

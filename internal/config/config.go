// Package config reads the sntpal configuration file: one directive per
// line, servers in descending priority order.
//
//	server time.example.com port 1123
//	server pool.ntp.org
//	pollinterval 64
//	stepthreshold 128
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sntpal/sntpal/pkg/sntp"
)

const (
	DefaultPollInterval  = 64 * time.Second
	DefaultStepThreshold = 128 * time.Millisecond
)

type Config struct {
	// Servers in the order they should be tried.
	Servers []sntp.ServerInfo
	// PollInterval is the pause between daemon polling cycles.
	PollInterval time.Duration
	// StepThreshold separates slewable offsets from ones that step the clock.
	StepThreshold time.Duration
}

// Parse reads the file at path. Unknown directives are errors; a file with
// no server lines is an error as well, there would be nothing to poll.
func Parse(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer file.Close()

	config := &Config{
		PollInterval:  DefaultPollInterval,
		StepThreshold: DefaultStepThreshold,
	}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		arguments := strings.Fields(scanner.Text())
		if len(arguments) == 0 || strings.HasPrefix(arguments[0], "#") {
			continue
		}

		switch arguments[0] {
		case "server":
			if len(arguments) < 2 {
				return nil, parseError(lineNo, "missing required argument \"address\"")
			}
			host := arguments[1]
			arguments = arguments[2:]

			port, err := integerArgument("port", int(sntp.DefaultServerPort), &arguments)
			if err != nil {
				return nil, parseError(lineNo, "%s", err.Error())
			}
			if port < 1 || port > 65535 {
				return nil, parseError(lineNo, "port %d out of range", port)
			}
			if len(arguments) > 0 {
				return nil, parseError(lineNo, "unexpected argument %q", arguments[0])
			}

			config.Servers = append(config.Servers, sntp.ServerInfo{
				Name: host,
				Port: uint16(port),
			})
		case "pollinterval":
			seconds, err := directiveValue(arguments)
			if err != nil {
				return nil, parseError(lineNo, "%s", err.Error())
			}
			if seconds < 1 {
				return nil, parseError(lineNo, "pollinterval must be at least 1 second")
			}
			config.PollInterval = time.Duration(seconds) * time.Second
		case "stepthreshold":
			millis, err := directiveValue(arguments)
			if err != nil {
				return nil, parseError(lineNo, "%s", err.Error())
			}
			if millis < 0 {
				return nil, parseError(lineNo, "stepthreshold cannot be negative")
			}
			config.StepThreshold = time.Duration(millis) * time.Millisecond
		default:
			return nil, parseError(lineNo, "invalid directive %q", arguments[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if len(config.Servers) == 0 {
		return nil, fmt.Errorf("config %s declares no servers", path)
	}
	return config, nil
}

// integerArgument extracts an optional "name value" pair from arguments,
// removing both tokens, and returns initial when the name is absent.
func integerArgument(name string, initial int, arguments *[]string) (int, error) {
	for i, argument := range *arguments {
		if name != argument {
			continue
		}
		if i == len(*arguments)-1 {
			return 0, fmt.Errorf("no value supplied for argument %q", name)
		}
		value, err := strconv.Atoi((*arguments)[i+1])
		if err != nil {
			return 0, fmt.Errorf("%s argument requires an integer value", name)
		}
		*arguments = append((*arguments)[:i], (*arguments)[i+2:]...)
		return value, nil
	}
	return initial, nil
}

// directiveValue reads the single integer operand of a directive.
func directiveValue(arguments []string) (int, error) {
	if len(arguments) != 2 {
		return 0, fmt.Errorf("%s takes exactly one value", arguments[0])
	}
	value, err := strconv.Atoi(arguments[1])
	if err != nil {
		return 0, fmt.Errorf("%s requires an integer value", arguments[0])
	}
	return value, nil
}

func parseError(line int, format string, args ...any) error {
	return fmt.Errorf("config parse error on line %d: %s", line, fmt.Sprintf(format, args...))
}

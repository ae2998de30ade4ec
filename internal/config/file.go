package config

import (
	"bufio"
	"io"
	"os"
	"strings"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// LoadFile reads a KEY=value configuration file and applies recognized keys.
// The file is parsed, never executed. Unknown keys, malformed lines and
// invalid values become warnings and leave the current value in place.
// A missing file is an error only when required is true.
func (c *Config) LoadFile(path string, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return gitsyncErrors.NewConfigError("config", path,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, err.Error()))
	}
	defer func() {
		_ = f.Close()
	}()

	if err := c.parseFile(f, path); err != nil {
		return gitsyncErrors.NewConfigError("config", path,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, err.Error()))
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) parseFile(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, raw, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			c.warnf("%s:%d: expected KEY=value, got %q", name, lineNo, line)
			continue
		}

		s, known := lookupSetting(key)
		if !known || s.envOnly {
			c.warnf("%s:%d: unknown key %s", name, lineNo, key)
			continue
		}

		value := unquote(strings.TrimSpace(raw))
		if err := s.apply(c, value); err != nil {
			c.warnf("%s:%d: invalid %s %q (%v), keeping %s", name, lineNo, key, value, err, c.describe(key))
		}
	}
	return scanner.Err()
}

// unquote strips one pair of matching quotes. Unquoted values lose a
// trailing " # comment".
func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return value
}

// describe renders the current value of key for warning messages.
func (c *Config) describe(key string) string {
	switch key {
	case "PUSH_DELAY":
		return c.PushDelay.String()
	case "RETRY_DELAY":
		return c.RetryDelay.String()
	case "NETWORK_TIMEOUT":
		return c.NetworkTimeout.String()
	default:
		return "previous value"
	}
}

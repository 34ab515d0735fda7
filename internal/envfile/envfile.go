// Package envfile loads environment variables from .env files so that
// credentials such as RAGPROMPT_TOKEN and OPENAI_API_KEY need not be exported.
// Variables already set in the environment take precedence.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Load reads a .env file and sets any variables not already in the
// environment. It returns the names it set, in file order. A missing file is
// not an error.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only

	var set []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return set, fmt.Errorf("setting %s from %s: %w", key, path, err)
		}
		set = append(set, key)
	}
	if err := scanner.Err(); err != nil {
		return set, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return set, nil
}

// LoadAll loads each path in order; earlier files win for a given variable.
// It keeps going past unreadable files and returns their errors joined.
func LoadAll(paths ...string) ([]string, error) {
	var (
		set  []string
		errs []error
	)
	for _, path := range paths {
		keys, err := Load(path)
		set = append(set, keys...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return set, errors.Join(errs...)
}

// parseEnvLine extracts KEY=VALUE from a line.
// Handles an optional export prefix and matching quotes around the value.
func parseEnvLine(line string) (key, value string, ok bool) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}

	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
	value = strings.TrimSpace(value)
	if key == "" {
		return "", "", false
	}

	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}

	return key, value, true
}

// Package dotenv loads development-time environment files. Deployments set
// real environment variables; the .env file only fills in what is missing.
package dotenv

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Load reads the first existing file from paths and sets every KEY=VALUE
// pair that is not already present in the environment. Missing files are
// not an error.
func Load(paths ...string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read env file %q: %w", path, err)
		}

		for key, val := range parse(string(data)) {
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
			if err := os.Setenv(key, val); err != nil {
				return fmt.Errorf("set env %q from %q: %w", key, path, err)
			}
		}
		return nil
	}
	return nil
}

// parse extracts KEY=VALUE pairs from dotenv text. Blank lines and
// comments are skipped, "export " prefixes are tolerated, and single or
// double quotes around a value are stripped.
func parse(text string) map[string]string {
	pairs := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		pairs[key] = unquote(strings.TrimSpace(val))
	}
	return pairs
}

func unquote(val string) string {
	if len(val) < 2 {
		return val
	}
	if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
		return val[1 : len(val)-1]
	}
	return val
}

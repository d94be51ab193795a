package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAMLLoader reads flag values from a YAML document. Keys match flag names
// with either dashes or underscores; nested mappings are joined with an
// underscore, so "render: {timeout: 10s}" sets --render-timeout.
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	flat := make(map[string]string)
	flatten("", values, flat)

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		if v, ok := flat[configKey(flag.Name)]; ok {
			return v, nil
		}
		return nil, nil
	}), nil
}

func flatten(prefix string, values map[string]any, out map[string]string) {
	for k, v := range values {
		key := configKey(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(parts, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

func configKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// NewLogger returns a logger writing to w in the given format ("text" or
// "json") at the given minimum level.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "distill.db"
	}
	return filepath.Join(home, ".distill", "distill.db")
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"grimm.is/pfopn/internal/config"
	"grimm.is/pfopn/internal/logging"
	"grimm.is/pfopn/internal/report"
)

var loadToolConfig = sync.OnceValue(func() config.Config {
	cfg, err := config.Load(os.Getenv("PFOPN_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; ignoring config file\n", err)
		cfg = config.Config{}
	}

	if cfg.Logging != nil {
		logCfg := logging.DefaultConfig()
		level := strings.ToLower(cfg.Logging.Level)
		// PFOPN_LOG_LEVEL / DEBUG win over the config file level.
		if os.Getenv("PFOPN_LOG_LEVEL") != "" || os.Getenv("DEBUG") != "" {
			level = ""
		}
		switch level {
		case "debug":
			logCfg.Level = logging.LevelDebug
		case "warn":
			logCfg.Level = logging.LevelWarn
		case "error":
			logCfg.Level = logging.LevelError
		case "info":
			logCfg.Level = logging.LevelInfo
		}
		logCfg.JSON = cfg.Logging.JSON
		logging.SetDefault(logging.New(logCfg))
	}

	colorEnabled := term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.Color != nil {
		colorEnabled = *cfg.Color
	}
	report.SetColorEnabled(colorEnabled)

	return cfg
})

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// parseIfMap turns repeated src=dst pairs into an interface name map.
func parseIfMap(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		src, dst, ok := strings.Cut(pair, "=")
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("invalid --if-map %q (expected src=dst)", pair)
		}
		m[src] = dst
	}
	return m, nil
}

func parseOutputFormat(format string) (string, error) {
	switch format {
	case "text", "json", "yaml":
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text, json, or yaml)", format)
	}
}

// marshalReport serializes a report payload for the non-text formats.
// YAML round-trips through JSON so the snake_case field names stay
// consistent between the two.
func marshalReport(format string, v any) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "yaml":
		jsonData, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		var generic any
		if err := json.Unmarshal(jsonData, &generic); err != nil {
			return "", err
		}
		data, err := yaml.Marshal(generic)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return "", fmt.Errorf("format %q has no serialized form", format)
	}
}

func parseTargetPlatform(value string) (string, error) {
	switch value {
	case "", "pfsense", "opnsense":
		return value, nil
	default:
		return "", fmt.Errorf("unknown platform %q (expected pfsense or opnsense)", value)
	}
}

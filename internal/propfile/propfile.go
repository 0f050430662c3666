// Package propfile implements the line-oriented property file loader shared
// by the continuum's two configuration stages: the properties file
// (TOTAL_SERVERS, POINTS_PER_SERVER, RESERVE_FACTOR) and the shard file
// (host:port -> capacity). Both share the same grammar, so one loader
// serves both call sites.
//
// © 2025 contihash authors. MIT License.
package propfile

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Option configures Load.
type Option func(*config)

type config struct {
	sep    string
	logger *zap.Logger
}

func defaultConfig() *config {
	return &config{sep: "\t", logger: zap.NewNop()}
}

// WithSeparator overrides the default tab separator between key and value.
func WithSeparator(sep string) Option {
	return func(c *config) {
		if sep != "" {
			c.sep = sep
		}
	}
}

// WithLogger attaches a logger used to report malformed lines. Malformed
// lines are skipped, never fatal; default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Load parses r into a key/value map. Blank lines and lines starting with
// '#' are skipped silently. Lines lacking the separator are reported via the
// configured logger and skipped; they never abort the load.
func Load(r io.Reader, opts ...Option) map[string]string {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	props := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.Index(line, cfg.sep)
		if idx < 0 {
			cfg.logger.Warn("malformed config line: missing separator", zap.String("line", line))
			continue
		}

		key := line[:idx]
		val := line[idx+len(cfg.sep):]
		props[key] = val
	}
	return props
}

package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config declares a logger.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text|json
	// Output is "stderr" (default), "null", or a file path.
	Output string `json:"output" yaml:"output"`
	// Redact lists field keys whose values are replaced with [REDACTED].
	Redact []string `json:"redact" yaml:"redact"`
	// SampleInitial/SampleThereafter keep the first N identical messages and
	// then every Mth one. Disabled when SampleThereafter is 0.
	SampleInitial    int `json:"sampleInitial" yaml:"sampleInitial"`
	SampleThereafter int `json:"sampleThereafter" yaml:"sampleThereafter"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	var output Output
	switch cfg.Output {
	case "", "stderr":
		output = NewConsoleOutput()
	case "null":
		output = NullOutput{}
	default:
		fo, err := NewFileOutput(cfg.Output)
		if err != nil {
			return nil, err
		}
		output = fo
	}
	l := NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(output)).(*BaseLogger)
	h := newBridgeHandler(l).withRedactions(cfg.Redact).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	l.slogLogger = slog.New(h)
	return l, nil
}

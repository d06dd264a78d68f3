package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type entrypointConfig struct {
	Port int `env:"AI_HR_ENTRYPOINT_TEST_PORT" envDefault:"8090"`
}

func TestParseConfigFromArgs(t *testing.T) {
	t.Setenv("AI_HR_ENTRYPOINT_TEST_PORT", "9001")

	var cfg entrypointConfig
	fs := flag.NewFlagSet("interview", flag.ContinueOnError)
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port")
	if err := ParseArgs(fs, []string{"-port", "9002"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Port != 9002 {
		t.Fatalf("expected flag override 9002, got %d", cfg.Port)
	}
}

func TestParseConfigRequiresTarget(t *testing.T) {
	if err := ParseConfig[entrypointConfig](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestRunWithTelemetryRequiresService(t *testing.T) {
	err := RunWithTelemetry(context.Background(), "  ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	t.Setenv("AI_HR_OTEL_ENDPOINT", "")

	wantErr := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), ServiceInterview, func(context.Context) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected run error, got %v", err)
	}
}

package interview

import (
	"flag"
	"testing"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("interview", flag.ContinueOnError)
	t.Setenv("AI_HR_INTERVIEW_HTTP_ADDR", ":9090")
	t.Setenv("AI_HR_INTERVIEW_DB_PATH", "tmp/interview.db")

	cfg, err := ParseConfig(fs, []string{"-grpc-port", "9091"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.DBPath != "tmp/interview.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "tmp/interview.db")
	}
	if cfg.GRPCPort != 9091 {
		t.Fatalf("grpc port = %d, want 9091", cfg.GRPCPort)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("interview", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.GRPCPort != 8081 {
		t.Fatalf("grpc port = %d, want 8081", cfg.GRPCPort)
	}
	if cfg.DBPath != "data/interview.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/interview.db")
	}
	if cfg.NotificationsDBPath != "data/notifications.db" {
		t.Fatalf("notifications db path = %q, want %q", cfg.NotificationsDBPath, "data/notifications.db")
	}
}

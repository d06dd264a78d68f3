// Package interview parses interview command flags and launches the service.
package interview

import (
	"context"
	"flag"

	entrypoint "github.com/tokhirov-007/ai-hr-cv/internal/platform/cmd"
	interviewserver "github.com/tokhirov-007/ai-hr-cv/internal/services/interview/app"
)

// Config holds interview command configuration.
type Config struct {
	HTTPAddr            string `env:"AI_HR_INTERVIEW_HTTP_ADDR" envDefault:":8080"`
	GRPCPort            int    `env:"AI_HR_INTERVIEW_GRPC_PORT" envDefault:"8081"`
	DBPath              string `env:"AI_HR_INTERVIEW_DB_PATH" envDefault:"data/interview.db"`
	NotificationsDBPath string `env:"AI_HR_NOTIFICATIONS_DB_PATH" envDefault:"data/notifications.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The interview HTTP API bind address")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The interview health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The interview SQLite database path")
	fs.StringVar(&cfg.NotificationsDBPath, "notifications-db-path", cfg.NotificationsDBPath, "The notifications SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the interview service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceInterview, func(ctx context.Context) error {
		grant, err := interviewserver.LoadAccessGrantConfigFromEnv(nil)
		if err != nil {
			return err
		}
		return interviewserver.Run(ctx, interviewserver.Config{
			HTTPAddr:            cfg.HTTPAddr,
			GRPCPort:            cfg.GRPCPort,
			SessionDBPath:       cfg.DBPath,
			NotificationsDBPath: cfg.NotificationsDBPath,
			Grant:               grant,
		})
	})
}

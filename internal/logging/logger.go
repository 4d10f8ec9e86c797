package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger as the process default. Development
// builds also emit DEBUG records.
func Setup(appEnv string) *slog.JSONHandler {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return handler
}

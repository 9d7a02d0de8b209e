package app

import (
	"log/slog"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/lapse/config"
)

var logOnce sync.Once

// initLogger routes slog through a size-rotated log file in the XDG
// state directory.
func initLogger(cfg *config.Config) {
	logOnce.Do(func() {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.Settings.LogLevel)); err != nil {
			level = slog.LevelInfo
		}

		w := &lumberjack.Logger{
			Filename:   cfg.System.LogPath,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})))
	})
}

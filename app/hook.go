package app

import (
	"log/slog"
	"os/exec"

	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/lapse/config"
	"github.com/ayoisaiah/lapse/engine"
	"github.com/ayoisaiah/lapse/internal/interval"
	"github.com/ayoisaiah/lapse/internal/timeutil"
)

// machineHooks wires the user-facing side effects of state transitions:
// the configured flip command and desktop notifications.
func machineHooks(cfg *config.Config) engine.Hooks {
	return engine.Hooks{
		OnFlip:          flipHook(cfg.Settings.Cmd),
		OnGap:           gapNotifier(cfg.Notification.Enabled),
		OnAccessibility: accessibilityNotifier(cfg.Notification.Enabled),
	}
}

// flipHook runs the configured command on every working-state flip. The
// command receives "working" or "stopped" as its last argument.
func flipHook(cmd string) func(bool) {
	if cmd == "" {
		return nil
	}

	return func(working bool) {
		cmdSlice, err := shellquote.Split(cmd)
		if err != nil {
			slog.Error("unable to parse flip command", slog.Any("error", err))
			return
		}

		if len(cmdSlice) == 0 {
			return
		}

		arg := "stopped"
		if working {
			arg = "working"
		}

		name := cmdSlice[0]
		args := append(cmdSlice[1:], arg)

		if err := exec.Command(name, args...).Start(); err != nil {
			slog.Error("unable to run flip command", slog.Any("error", err))
		}
	}
}

func gapNotifier(enabled bool) func(interval.Interval) {
	if !enabled {
		return nil
	}

	return func(gap interval.Interval) {
		msg := "The previous run ended abnormally. Time since " +
			timeutil.FromUs(gap.StartUs).Local().Format(timeFormat) +
			" is unobserved."

		if err := beeep.Notify("Lapse: gap detected", msg, ""); err != nil {
			slog.Error("unable to send notification", slog.Any("error", err))
		}
	}
}

func accessibilityNotifier(enabled bool) func(bool) {
	if !enabled {
		return nil
	}

	return func(granted bool) {
		if granted {
			return
		}

		msg := "Window titles can no longer be captured. " +
			"Tracking continues at the application level."

		if err := beeep.Notify("Lapse: accessibility denied", msg, ""); err != nil {
			slog.Error("unable to send notification", slog.Any("error", err))
		}
	}
}

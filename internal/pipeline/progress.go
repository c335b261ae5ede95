package pipeline

import "log/slog"

// progressLogger logs every tenth percent and touches the watchdog on every
// update.
func progressLogger(log *slog.Logger, what string, touch func()) func(int) {
	last := -10
	return func(percent int) {
		if touch != nil {
			touch()
		}
		if percent >= last+10 || percent == 100 {
			last = percent - percent%10
			log.Info(what, "percent", percent)
		}
	}
}

// Package safego runs fire-and-forget background work without letting a panic
// take the process down.
package safego

import "log/slog"

// Go runs fn in its own goroutine. A panic inside fn is recovered and logged
// under the given task name instead of crashing the server. Use it for
// best-effort work that outlives the request, such as the post-login
// timestamp update.
func Go(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background task panicked", "task", task, "panic", r)
			}
		}()
		fn()
	}()
}

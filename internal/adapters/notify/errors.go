package notify

import "errors"

// ErrNotConfigured is returned when a notifier lacks required settings.
var ErrNotConfigured = errors.New("notifier not configured")

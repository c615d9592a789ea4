// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package alert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileNotifier appends one line per alert to a plain text file, suitable
// for tailing by a host-side watcher. Each line is
// "<timestamp> <message>\n" with the timestamp in RFC 3339 form.
type FileNotifier struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// NewFileNotifier creates a file notifier writing to path. The parent
// directory is created on first send, not here, so construction never
// touches the filesystem.
func NewFileNotifier(path string) *FileNotifier {
	return &FileNotifier{
		path:    path,
		enabled: path != "",
	}
}

// Name returns the notifier name.
func (n *FileNotifier) Name() string {
	return "file"
}

// Enabled returns whether this notifier is enabled.
func (n *FileNotifier) Enabled() bool {
	return n.enabled
}

// Send appends the alert to the file. The file is opened, written, and
// closed per alert so an external log rotation never holds a stale
// handle open.
func (n *FileNotifier) Send(ctx context.Context, alert *Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(n.path), 0o750); err != nil {
		return fmt.Errorf("failed to create alert file directory: %w", err)
	}

	f, err := os.OpenFile(n.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open alert file: %w", err)
	}

	line := fmt.Sprintf("%s %s\n", alert.CreatedAt.Format("2006-01-02T15:04:05.999999999-07:00"), alert.Message)
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write alert: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close alert file: %w", err)
	}
	return nil
}

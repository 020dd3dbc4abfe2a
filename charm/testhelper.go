// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Opens a local BadgerDB in a per-test temp dir with sync disabled

package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient creates a client on a temporary BadgerDB. It is closed when the test ends.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := OpenLocal(filepath.Join(t.TempDir(), AppName), &Config{
		Host:     "localhost",
		AutoSync: false,
	})
	if err != nil {
		t.Fatalf("Failed to open test kv: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test kv: %v", err)
		}
	})
	return c
}

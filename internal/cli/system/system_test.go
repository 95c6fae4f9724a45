package system

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
)

// setupTestContext returns a context whose store lives at storeName inside a
// fresh temp directory next to the config file.
func setupTestContext(t *testing.T, storeName string, opts ...app.Option) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.New(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	cfg.Timezone = "UTC"
	cfg.Notifications.Backend = "console"
	cfg.Store = filepath.Join(dir, storeName)

	var out bytes.Buffer
	ctx := cli.NewContext(cfg, &out, opts...)
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	return ctx, &out, cfg.Store
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return err == nil
}

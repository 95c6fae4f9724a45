// Package backup keeps timestamped copies of a file-backed habit store.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
)

const (
	// MaxBackups is the number of backups kept after rotation.
	MaxBackups = 14
	// DirName is the backup directory, created next to the store file.
	DirName = "backups"

	filePrefix  = constants.AppName + "-"
	stampFormat = "20060102-150405"
)

// ErrUnsupported is returned for stores that are not a local file.
var ErrUnsupported = errors.New("backups are only available for SQLite and JSON stores")

// Info describes one backup file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	path string
	dir  string
	kind storage.Kind
	now  func() time.Time
}

type Option func(*Manager)

// WithClock sets the time used to name new backups.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager for the store file at path.
func NewManager(path string, opts ...Option) (*Manager, error) {
	if path == string(storage.KindPostgres) || storage.KindOf(path) == storage.KindPostgres {
		return nil, ErrUnsupported
	}
	m := &Manager{
		path: path,
		dir:  filepath.Join(filepath.Dir(path), DirName),
		kind: storage.KindOf(path),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) ext() string {
	if m.kind == storage.KindJSON {
		return ".json"
	}
	return ".db"
}

// Create writes a new backup and prunes the oldest beyond MaxBackups.
func (m *Manager) Create() (string, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (string, error) {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return "", fmt.Errorf("store does not exist: %s", m.path)
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, err := m.nextName()
	if err != nil {
		return "", err
	}

	if m.kind == storage.KindSQLite {
		err = vacuumInto(m.path, dest)
	} else {
		err = copyFile(m.path, dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up store: %w", err)
	}
	logger.Debug("Backup created", "path", dest)

	if rotate {
		if err := m.rotate(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	return dest, nil
}

func (m *Manager) nextName() (string, error) {
	stamp := m.now().Format(stampFormat)
	name := filepath.Join(m.dir, filePrefix+stamp+m.ext())
	for n := 1; fileExists(name); n++ {
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		name = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, n, m.ext()))
	}
	return name, nil
}

// vacuumInto copies a live SQLite database consistently. It falls back to a
// plain copy on engines without VACUUM INTO.
func vacuumInto(src, dest string) error {
	db, err := sqlx.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM sqlite_master"); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		return copyFile(src, dest)
	}
	return nil
}

// List returns the backups for this store, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, m.ext()) {
			continue
		}
		stamp := strings.TrimPrefix(name, filePrefix)
		if len(stamp) < len(stampFormat) {
			continue
		}
		ts, err := time.ParseInLocation(stampFormat, stamp[:len(stampFormat)], time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.dir, name),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	slices.SortFunc(backups, func(a, b Info) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.Path, a.Path)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Resolve maps a bare backup filename to its path in the backup directory.
func (m *Manager) Resolve(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	if p := filepath.Join(m.dir, name); fileExists(p) {
		return p
	}
	return name
}

// Restore replaces the store with the backup at path. The current store is
// backed up first and that copy is returned. The store must not be open.
func (m *Manager) Restore(path string) (string, error) {
	if !fileExists(path) {
		return "", fmt.Errorf("backup file does not exist: %s", path)
	}
	if storage.KindOf(path) != m.kind {
		return "", fmt.Errorf("backup %s is not a %s store", filepath.Base(path), m.kind)
	}
	n, err := Verify(path)
	if err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	logger.Debug("Backup verified", "path", path, "habits", n)

	var previous string
	if fileExists(m.path) {
		if previous, err = m.create(false); err != nil {
			return "", fmt.Errorf("failed to back up current store before restore: %w", err)
		}
	}

	tmp := m.path + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return "", fmt.Errorf("failed to restore store: %w", err)
	}
	return previous, nil
}

// Verify opens a backup with its storage backend and checks every habit.
// It returns the number of habits found.
func Verify(path string) (int, error) {
	p, err := storage.Open(path)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	habits, err := p.Load()
	if err != nil {
		return 0, err
	}
	for i := range habits {
		if err := habits[i].Validate(); err != nil {
			return 0, fmt.Errorf("habit %q: %w", habits[i].ID, err)
		}
	}
	return len(habits), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

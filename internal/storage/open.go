package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage/jsonfile"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
)

// Kind identifies a storage backend.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindJSON     Kind = "json"
	KindPostgres Kind = "postgres"
)

// KindOf picks the backend a target string refers to.
func KindOf(target string) Kind {
	switch {
	case IsPostgresTarget(target):
		return KindPostgres
	case strings.HasSuffix(strings.ToLower(target), ".json"):
		return KindJSON
	default:
		return KindSQLite
	}
}

// IsPostgresTarget reports whether target is a PostgreSQL URL.
func IsPostgresTarget(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// Open builds the provider for target without touching the backend yet.
//
// The PostgreSQL target may be the literal "postgres" keyword, in which case
// the connection string is taken from the environment or the OS keyring and
// may carry credentials. Inline URLs must not.
func Open(target string) (Provider, error) {
	if target == string(KindPostgres) {
		connStr, err := ResolveConnectionString()
		if err != nil {
			return nil, err
		}
		return postgres.New(connStr), nil
	}

	switch KindOf(target) {
	case KindPostgres:
		if ok, err := postgres.ValidateConnString(target); !ok {
			return nil, err
		}
		return postgres.New(target), nil
	case KindJSON:
		path, err := utils.ExpandHome(target)
		if err != nil {
			return nil, err
		}
		return jsonfile.New(path), nil
	default:
		path, err := utils.ExpandHome(target)
		if err != nil {
			return nil, err
		}
		return sqlite.New(path), nil
	}
}

// ResolveConnectionString reads the PostgreSQL connection string from the
// environment first, then the OS keyring.
func ResolveConnectionString() (string, error) {
	if connStr := os.Getenv(constants.EnvDBConnection); connStr != "" {
		logger.Debug("Using connection string from environment")
		return connStr, nil
	}

	connStr, err := keyring.GetConnectionString()
	if err != nil {
		return "", fmt.Errorf("no PostgreSQL connection configured (set %s or run 'habitual keyring set'): %w",
			constants.EnvDBConnection, err)
	}
	return connStr, nil
}

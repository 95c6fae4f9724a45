package errors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Format formats an error message with a consistent "Error: " prefix,
// followed by a hint for errors the user can fix themselves.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint suggests a next step for well-known failures.
func Hint(err error) string {
	switch {
	case habits.IsNotFound(err):
		return "run 'habitual habit list' to see existing habits"
	case habits.IsValidation(err):
		return "habit names cannot be blank and reminder times use HH:MM"
	case errors.Is(err, keyring.ErrNotFound):
		return "store a connection string with 'habitual keyring set' or set HABITUAL_DB_CONNECTION"
	case errors.Is(err, postgres.ErrEmbeddedCredentials):
		return "use 'store: postgres' with the keyring, HABITUAL_DB_CONNECTION or ~/.pgpass instead"
	}
	return ""
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintln(stderr, Format(err))
		exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintln(stderr, Formatf(format, args...))
	exit(1)
}

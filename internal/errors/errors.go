package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitlit/internal/logger"
)

var (
	ErrHabitNotFound    = stderrors.New("habit not found")
	ErrDuplicateHabit   = stderrors.New("a habit with that name already exists")
	ErrInvalidDateKey   = stderrors.New("invalid date key")
	ErrInvalidHabit     = stderrors.New("invalid habit")
	ErrStorageNotLoaded = stderrors.New("storage not loaded")
	ErrFutureDay        = stderrors.New("cannot record a day in the future")
)

// Is is errors.Is, re-exported so callers importing this package under its
// default name don't also need the standard library package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

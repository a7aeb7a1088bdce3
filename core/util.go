package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NowFunc is swapped in tests to freeze the clock.
var NowFunc = time.Now

// Now returns the current UTC time.
func Now() time.Time {
	return NowFunc().UTC()
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd tries to find the project root, the closest parent directory holding a go.mod file.
// go-test changes the working directory to the test package being run during tests,
// so config and asset lookups start from there.
// Falls back to the working directory when no go.mod is found (e.g. deployed binaries).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// PaidDate returns the payment date of an obligation after a paid/unpaid write.
// A payment without an explicit date keeps the current date, or stamps now; unpaid obligations have none.
func PaidDate(paid bool, current, explicit *time.Time, now time.Time) *time.Time {
	switch {
	case !paid:
		return nil
	case explicit != nil:
		date := explicit.UTC()
		return &date
	case current == nil:
		return &now
	}
	return current
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Name string
}

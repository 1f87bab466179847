package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var nameSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// sanitizeName normalizes a human migration description into a file-safe
// snake_case fragment.
func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = nameSanitizer.ReplaceAllString(name, "")
	return strings.Trim(name, "_")
}

// CreateMigration writes an empty up/down SQL pair into dir and returns the
// two file paths. File names carry a timestamp prefix so golang-migrate
// orders them correctly.
func CreateMigration(dir, name string) (string, string, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return "", "", fmt.Errorf("invalid migration name %q", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations dir: %w", err)
	}

	version := time.Now().UTC().Format("20060102150405")
	upPath := filepath.Join(dir, fmt.Sprintf("%s_%s.up.sql", version, clean))
	downPath := filepath.Join(dir, fmt.Sprintf("%s_%s.down.sql", version, clean))

	header := fmt.Sprintf("-- %s\n\n", clean)
	if err := os.WriteFile(upPath, []byte(header), 0o644); err != nil {
		return "", "", fmt.Errorf("write up migration: %w", err)
	}
	if err := os.WriteFile(downPath, []byte(header), 0o644); err != nil {
		return "", "", fmt.Errorf("write down migration: %w", err)
	}

	return upPath, downPath, nil
}

// ListMigrations returns the sorted .sql file names under dir
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

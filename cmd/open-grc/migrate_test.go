package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var (
	createStmt     = regexp.MustCompile(`(?i)\bCREATE\s+(UNIQUE\s+)?(TABLE|INDEX)\b`)
	addConstraint  = regexp.MustCompile(`(?i)ADD\s+CONSTRAINT\s+(\w+)`)
	dropConstraint = regexp.MustCompile(`(?i)DROP\s+CONSTRAINT\s+IF\s+EXISTS\s+(\w+)`)
)

// Up migrations are applied to databases that may already hold part of the
// schema, so every statement has to be safe to run twice.
func TestUpMigrationsAreRerunnable(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "db", "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("filepath.Glob() error = %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no up migrations found")
	}

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("os.ReadFile(%s) error = %v", path, err)
		}
		sql := string(raw)

		for _, stmt := range strings.Split(sql, ";") {
			if createStmt.MatchString(stmt) && !strings.Contains(strings.ToUpper(stmt), "IF NOT EXISTS") {
				t.Errorf("%s: CREATE without IF NOT EXISTS: %s", filepath.Base(path), strings.TrimSpace(stmt))
			}
		}

		dropped := map[string]int{}
		for _, m := range dropConstraint.FindAllStringSubmatchIndex(sql, -1) {
			dropped[strings.ToLower(sql[m[2]:m[3]])] = m[0]
		}
		for _, m := range addConstraint.FindAllStringSubmatchIndex(sql, -1) {
			name := strings.ToLower(sql[m[2]:m[3]])
			at, ok := dropped[name]
			if !ok || at > m[0] {
				t.Errorf("%s: constraint %s is added without a preceding DROP CONSTRAINT IF EXISTS", filepath.Base(path), name)
			}
		}
	}
}

// Package migrations applies the embedded schema for the asset catalog
// (PostgreSQL) and the opportunity metrics history (ClickHouse).
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed clickhouse/*.sql
var clickhouseFS embed.FS

type migration struct {
	name string
	body string
}

// load returns the non-empty .sql files under dir sorted by name.
func load(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, migration{name: name, body: string(data)})
	}
	return out, nil
}

// splitStatements drops -- comment lines and splits on ';'.
// Semicolons inside string literals are rejected by checkStatements first.
func splitStatements(input string) []string {
	var kept []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// checkStatements fails when a single-quoted literal contains ';'.
func checkStatements(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return fmt.Errorf("semicolon inside string literal at offset %d", i)
			}
		}
	}
	return nil
}

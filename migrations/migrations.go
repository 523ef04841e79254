// Package migrations embeds the SQL schema for the MySQL customers table and
// the ClickHouse transactions table.
package migrations

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed *.sql
var files embed.FS

// Render returns the named migration with the table name filled in.
func Render(name, table string) (string, error) {
	raw, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read migration %s: %w", name, err)
	}
	tpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse migration %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, struct{ Table string }{table}); err != nil {
		return "", fmt.Errorf("render migration %s: %w", name, err)
	}
	return buf.String(), nil
}

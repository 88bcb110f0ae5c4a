package migrate

import (
	"fmt"

	"github.com/pressly/goose/v3"
)

// Create scaffolds a new timestamped SQL migration in dir.
func Create(dir, name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return fmt.Errorf("goose create: %w", err)
	}
	return nil
}

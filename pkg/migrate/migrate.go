package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source resolves the migration files for dir. The default directory is
// served from the binary so deployed images need no checkout.
func Source(dir string) (fs.FS, error) {
	if dir == "" || dir == DefaultDir {
		return fs.Sub(embedded, "migrations")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	return os.DirFS(dir), nil
}

// Runner applies storefront schema migrations against Postgres.
type Runner struct {
	provider *goose.Provider
}

func NewRunner(db *sql.DB, source fs.FS) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if source == nil {
		return nil, fmt.Errorf("migration source is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, source)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

// Step is one applied or pending migration as reported to the operator.
type Step struct {
	Version int64
	Path    string
	State   string
}

func (r *Runner) Up(ctx context.Context) ([]Step, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}
	return stepsFromResults(results, "applied"), nil
}

func (r *Runner) Down(ctx context.Context) (Step, error) {
	result, err := r.provider.Down(ctx)
	if err != nil {
		return Step{}, fmt.Errorf("goose down: %w", err)
	}
	steps := stepsFromResults([]*goose.MigrationResult{result}, "rolled back")
	return steps[0], nil
}

func (r *Runner) Status(ctx context.Context) ([]Step, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	steps := make([]Step, 0, len(statuses))
	for _, st := range statuses {
		if st == nil || st.Source == nil {
			continue
		}
		steps = append(steps, Step{Version: st.Source.Version, Path: st.Source.Path, State: string(st.State)})
	}
	return steps, nil
}

// MigrateTo moves the schema up or down until target (YYYYMMDDHHMMSS) is the
// current version.
func (r *Runner) MigrateTo(ctx context.Context, target string) ([]Step, error) {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == version:
		return nil, nil
	case current < version:
		results, err := r.provider.UpTo(ctx, version)
		if err != nil {
			return nil, fmt.Errorf("goose up-to %d: %w", version, err)
		}
		return stepsFromResults(results, "applied"), nil
	default:
		results, err := r.provider.DownTo(ctx, version)
		if err != nil {
			return nil, fmt.Errorf("goose down-to %d: %w", version, err)
		}
		return stepsFromResults(results, "rolled back"), nil
	}
}

func stepsFromResults(results []*goose.MigrationResult, state string) []Step {
	steps := make([]Step, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		steps = append(steps, Step{Version: res.Source.Version, Path: res.Source.Path, State: state})
	}
	return steps
}

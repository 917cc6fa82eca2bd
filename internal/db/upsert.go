package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a keyed bulk load into Table.
type UpsertConfig struct {
	Table        string   // possibly schema-qualified, e.g. "atlas.listings"
	Columns      []string // column order of every row
	ConflictKeys []string // unique key the rows are matched on
	UpdateCols   []string // nil updates every non-key column
}

func (c UpsertConfig) validate() error {
	if len(c.Columns) == 0 {
		return eris.New("db: upsert: no columns specified")
	}
	if len(c.ConflictKeys) == 0 {
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

// updateColumns returns UpdateCols, or every column outside the key.
func (c UpsertConfig) updateColumns() []string {
	if c.UpdateCols != nil {
		return c.UpdateCols
	}
	keys := make(map[string]bool, len(c.ConflictKeys))
	for _, k := range c.ConflictKeys {
		keys[k] = true
	}
	var out []string
	for _, col := range c.Columns {
		if !keys[col] {
			out = append(out, col)
		}
	}
	return out
}

// stagingTable names the temp table rows are copied into before the merge.
func (c UpsertConfig) stagingTable() string {
	return "_tmp_upsert_" + strings.ReplaceAll(c.Table, ".", "_")
}

func (c UpsertConfig) createStagingSQL() string {
	return fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{c.stagingTable()}.Sanitize(), Ident(c.Table).Sanitize())
}

func (c UpsertConfig) mergeSQL() string {
	update := c.updateColumns()
	set := make([]string, len(update))
	for i, col := range update {
		q := pgx.Identifier{col}.Sanitize()
		set[i] = q + " = EXCLUDED." + q
	}
	cols := quoteAndJoin(c.Columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		Ident(c.Table).Sanitize(), cols, cols,
		pgx.Identifier{c.stagingTable()}.Sanitize(),
		quoteAndJoin(c.ConflictKeys), strings.Join(set, ", "))
}

// BulkUpsert loads rows into a temp table with COPY and merges them into
// cfg.Table with INSERT ... ON CONFLICT DO UPDATE, all in one transaction.
// It returns the number of rows inserted or updated.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := UpsertTx(ctx, tx, cfg, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return n, nil
}

// UpsertTx is BulkUpsert inside a transaction the caller owns, so the merge
// commits or rolls back together with the caller's other writes. The temp
// table is dropped at commit.
func UpsertTx(ctx context.Context, tx pgx.Tx, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, cfg.createStagingSQL()); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create temp table for %s", cfg.Table)
	}
	if _, err := CopyFrom(ctx, tx, cfg.stagingTable(), cfg.Columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into temp table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, cfg.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}
	return tag.RowsAffected(), nil
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

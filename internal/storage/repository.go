package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database file and migrates it.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath)
}

// NewPostgresRepository connects with a pgx DSN and migrates the schema.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(DialectPostgres, dsn)
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	if d == DialectSQLite {
		// modernc serialises writers per connection; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *Repository) rebind(query string) string {
	return rebind(r.dialect, query)
}

func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

const txColumns = `id, user_id, amount, date, category, type, description, created_at`

func (r *Repository) Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	tx.Amount = core.NormalizeAmount(tx.Amount)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = r.now()

	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		tx.ID, tx.UserID, tx.Amount.String(), formatTime(tx.Date), tx.Category, string(tx.Type), tx.Description, formatTime(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"dialect", r.dialect)
	return tx, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM transactions WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res, "transaction", id)
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+txColumns+` FROM transactions WHERE id = ?`), id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return tx, err
}

func (r *Repository) ListTransactions(ctx context.Context, q ports.TransactionQuery) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{q.UserID}
	)
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(q.Type))
	}
	// Bounds are bare day keys, which sort before every stored value on that
	// day, whether it is a full timestamp or a date-only legacy row.
	if !q.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, core.DayKey(q.Since))
	}
	if !q.Until.IsZero() {
		where = append(where, "date < ?")
		args = append(args, core.DayKey(core.TruncateDay(q.Until).AddDate(0, 0, 1)))
	}
	order := "DESC"
	if q.Order == ports.OrderAsc {
		order = "ASC"
	}
	query := `SELECT ` + txColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date ` + order + `, created_at ` + order
	if q.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *Repository) ListUnsynced(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		r.rebind(`SELECT `+txColumns+` FROM transactions WHERE synced_at IS NULL ORDER BY created_at ASC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE transactions SET synced_at = ? WHERE id = ?`), formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return requireAffected(res, "transaction", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx                           core.Transaction
		amount, date, typ, createdAt string
	)
	if err := s.Scan(&tx.ID, &tx.UserID, &amount, &date, &tx.Category, &typ, &tx.Description, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: amount %q: %w", tx.ID, amount, err)
	}
	// Legacy rows may carry signed amounts; magnitudes are stored.
	tx.Amount = core.NormalizeAmount(tx.Amount)
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if tx.Type, err = core.ParseTransactionType(typ); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	tx.CreatedAt, _ = core.ParseDate(createdAt)
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

// PostgresConfig holds configuration for the Postgres export sink.
type PostgresConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Database       string        `json:"database"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	SSLMode        string        `json:"ssl_mode"`
	Table          string        `json:"table"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	MaxConnections int           `json:"max_connections"`
}

// PostgresSink writes anonymized tables into a Postgres table: one TEXT
// column per source column plus group_id and original_id.
type PostgresSink struct {
	config *PostgresConfig
	db     *sql.DB
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewPostgresSink creates a Postgres sink.
func NewPostgresSink(config *PostgresConfig, logger *logrus.Logger) (*PostgresSink, error) {
	if config == nil {
		return nil, errors.NewStorageError(errors.CodeConnectionFailed, "Postgres config cannot be nil")
	}
	if config.Table == "" {
		config.Table = "anonymized_records"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PostgresSink{config: config, logger: logger}, nil
}

// Connect establishes the database connection.
func (ps *PostgresSink) Connect(ctx context.Context) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.db != nil {
		return nil
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ps.config.Host,
		ps.config.Port,
		ps.config.Username,
		ps.config.Password,
		ps.config.Database,
		ps.config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			errors.CodeConnectionFailed, "failed to open Postgres connection")
	}
	if ps.config.MaxConnections > 0 {
		db.SetMaxOpenConns(ps.config.MaxConnections)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.WrapError(errors.ErrStorageConnection,
			errors.ErrorTypeStorage, errors.CodeConnectionFailed, err.Error())
	}

	ps.db = db
	ps.logger.WithFields(logrus.Fields{
		"host":     ps.config.Host,
		"database": ps.config.Database,
		"table":    ps.config.Table,
	}).Info("Connected to Postgres")

	return nil
}

// Close closes the database connection.
func (ps *PostgresSink) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.db == nil {
		return nil
	}
	err := ps.db.Close()
	ps.db = nil
	return err
}

// Write creates the target table if needed and inserts every row inside a
// single transaction.
func (ps *PostgresSink) Write(ctx context.Context, table Table) error {
	ps.mu.Lock()
	db := ps.db
	ps.mu.Unlock()
	if db == nil {
		return errors.NewStorageError(errors.CodeConnectionFailed, "sink is not connected")
	}

	if err := ps.ensureTable(ctx, db, table); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			errors.CodeWriteFailed, "failed to begin transaction")
	}
	defer tx.Rollback()

	insert := ps.insertStatement(table)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			errors.CodeWriteFailed, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, rec := range table.Records {
		args := make([]interface{}, 0, len(table.Schema.Columns)+2)
		for _, col := range table.Schema.Columns {
			args = append(args, rec.Values[col])
		}
		args = append(args, rec.GroupID, rec.OriginalID)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.WrapError(errors.ErrStorageWrite,
				errors.ErrorTypeStorage, errors.CodeWriteFailed, err.Error()).
				WithContext("original_id", rec.OriginalID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			errors.CodeWriteFailed, "failed to commit")
	}

	ps.logger.WithFields(logrus.Fields{
		"table": ps.config.Table,
		"rows":  len(table.Records),
	}).Info("Wrote anonymized table to Postgres")

	return nil
}

func (ps *PostgresSink) ensureTable(ctx context.Context, db *sql.DB, table Table) error {
	cols := make([]string, 0, len(table.Schema.Columns)+2)
	for _, col := range table.Schema.Columns {
		cols = append(cols, fmt.Sprintf("%s TEXT", pq.QuoteIdentifier(col)))
	}
	cols = append(cols, "group_id INTEGER NOT NULL", "original_id INTEGER NOT NULL")

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(ps.config.Table), strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			errors.CodeWriteFailed, "failed to create target table")
	}
	return nil
}

func (ps *PostgresSink) insertStatement(table Table) string {
	names := make([]string, 0, len(table.Schema.Columns)+2)
	placeholders := make([]string, 0, len(table.Schema.Columns)+2)
	for _, col := range table.Schema.Columns {
		names = append(names, pq.QuoteIdentifier(col))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(placeholders)+1))
	}
	names = append(names, "group_id", "original_id")
	placeholders = append(placeholders,
		fmt.Sprintf("$%d", len(placeholders)+1),
		fmt.Sprintf("$%d", len(placeholders)+2))

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(ps.config.Table),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "))
}

// Package dbexport writes a plain SQL dump of the application's tables.
package dbexport

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
)

const DefaultToolName = "sitebackup"

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Config struct {
	// only tables whose name starts with TablePrefix are exported
	TablePrefix string

	ToolName        string
	PlatformVersion string
}

type Exporter struct {
	logger logrus.FieldLogger

	db    Queryer
	fs    afero.Fs
	clock clock.Clock

	config Config
}

func New(logger logrus.FieldLogger, db Queryer, fs afero.Fs, clk clock.Clock, config Config) *Exporter {
	if config.ToolName == "" {
		config.ToolName = DefaultToolName
	}

	return &Exporter{
		logger: logger,
		db:     db,
		fs:     fs,
		clock:  clk,
		config: config,
	}
}

// ExportToDir dumps the database into a new transient file inside dir and
// returns its path. The caller owns the file and must remove it. On failure
// nothing is left behind.
func (e *Exporter) ExportToDir(ctx context.Context, dir string) (string, error) {
	name := filepath.Join(dir, fmt.Sprintf("temp_database_%d.sql", e.clock.Now().Unix()))

	err := e.Export(ctx, name)
	if err != nil {
		return "", err
	}

	return name, nil
}

func (e *Exporter) Export(ctx context.Context, name string) (err error) {
	f, err := e.fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrap(err, "unable to create database export file")
	}

	defer func() {
		if err != nil {
			_ = f.Close()

			if rmErr := e.fs.Remove(name); rmErr != nil {
				appcontext.LoggerFromContext(e.logger, ctx).WithError(rmErr).Warn("Unable to remove partial database export")
			}
		}
	}()

	w := bufio.NewWriterSize(f, 64*1024)

	err = e.Dump(ctx, w)
	if err != nil {
		return err
	}

	err = w.Flush()
	if err != nil {
		return errors.Wrap(err, "unable to write database export file")
	}

	err = f.Close()
	if err != nil {
		return errors.Wrap(err, "unable to close database export file")
	}

	return nil
}

// Dump writes the header and then, for every table in the configured
// namespace, its structure followed by one INSERT per row. Rows come in
// whatever order the server returns them.
func (e *Exporter) Dump(ctx context.Context, w io.Writer) error {
	logger := appcontext.LoggerFromContext(e.logger, ctx)

	tables, err := e.tables(ctx)
	if err != nil {
		return err
	}

	err = e.writeHeader(w)
	if err != nil {
		return err
	}

	for _, table := range tables {
		if !strings.HasPrefix(table, e.config.TablePrefix) {
			logger.WithField("table", table).Debug("Skipping table outside of prefix")
			continue
		}

		err = e.dumpStructure(ctx, w, table)
		if err != nil {
			return err
		}

		var count int
		count, err = e.dumpData(ctx, w, table)
		if err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{"table": table, "rows": count}).Debug("Table exported")
	}

	return nil
}

func (e *Exporter) writeHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"-- %s Database Backup\n-- Generated on: %s\n-- Platform Version: %s\n\n",
		e.config.ToolName,
		e.clock.Now().Format("2006-01-02 15:04:05"),
		e.config.PlatformVersion,
	)

	return errors.Wrap(err, "unable to write header")
}

func (e *Exporter) tables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, errors.Wrap(err, "unable to list tables")
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var table string

		err = rows.Scan(&table)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read table name")
		}

		tables = append(tables, table)
	}

	return tables, errors.Wrap(rows.Err(), "unable to list tables")
}

func (e *Exporter) dumpStructure(ctx context.Context, w io.Writer, table string) error {
	var name, create string

	err := e.db.QueryRowContext(ctx, "SHOW CREATE TABLE "+quoteIdentifier(table)).Scan(&name, &create)
	if err != nil {
		return errors.Wrapf(err, "unable to read structure of %s", table)
	}

	_, err = fmt.Fprintf(w,
		"\n-- Table structure for table %[1]s\nDROP TABLE IF EXISTS %[1]s;\n%[2]s;\n\n",
		quoteIdentifier(table),
		create,
	)

	return errors.Wrapf(err, "unable to write structure of %s", table)
}

func (e *Exporter) dumpData(ctx context.Context, w io.Writer, table string) (int, error) {
	rows, err := e.db.QueryContext(ctx, "SELECT * FROM "+quoteIdentifier(table))
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read data of %s", table)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read columns of %s", table)
	}

	values := make([]sql.NullString, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	literals := make([]string, len(columns))

	for rows.Next() {
		err = rows.Scan(ptrs...)
		if err != nil {
			return count, errors.Wrapf(err, "unable to read row of %s", table)
		}

		if count == 0 {
			_, err = fmt.Fprintf(w, "-- Dumping data for table %s\n", quoteIdentifier(table))
			if err != nil {
				return count, errors.Wrapf(err, "unable to write data of %s", table)
			}
		}

		for i, v := range values {
			literals[i] = Literal(v)
		}

		_, err = fmt.Fprintf(w, "INSERT INTO %s VALUES (%s);\n", quoteIdentifier(table), strings.Join(literals, ","))
		if err != nil {
			return count, errors.Wrapf(err, "unable to write data of %s", table)
		}

		count++
	}

	err = rows.Err()
	if err != nil {
		return count, errors.Wrapf(err, "unable to read data of %s", table)
	}

	if count > 0 {
		_, err = io.WriteString(w, "\n")
	}

	return count, errors.Wrapf(err, "unable to write data of %s", table)
}

// Literal renders a column value for embedding in an INSERT statement.
func Literal(v sql.NullString) string {
	if !v.Valid {
		return "NULL"
	}

	return "'" + Escape(v.String) + "'"
}

var escaper = strings.NewReplacer(
	"\\", "\\\\",
	"'", "\\'",
	"\"", "\\\"",
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"\x1a", "\\Z",
)

// Escape applies MySQL string literal escaping, the same set of characters
// mysql_real_escape_string handles.
func Escape(s string) string {
	return escaper.Replace(s)
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

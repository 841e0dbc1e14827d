// Package ckptadmin exposes checkpoint status through a SQLite virtual table.
package ckptadmin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"modernc.org/sqlite/vtab"

	"github.com/viant/syncpoint/checkpoint"
)

// TableName is the name Attach gives the virtual table.
const TableName = "ckpt_admin"

// Module provides checkpoint status via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE temp.ckpt_admin USING ckpt_admin(op);
//	SELECT op FROM ckpt_admin WHERE op MATCH 'cp-XXXX'; -- describe checkpoint
//
// Returns a single row with op='local=<n> pending=<n> completed=[...] remote=<m>'
// or op='missing' when no checkpoint is stored under the ID.
//
// The driver installs the module once per process, on the first connection
// opened after the first Register call. Only that connection can create or
// query ckpt_admin, so take it with db.Conn right after Register and pass it
// to Attach and Status. Lookups read the checkpoints table through the pool,
// which therefore needs a file database and room for a second connection.
type Module struct{}

type Table struct{}

type Cursor struct {
	rows []string
	pos  int
}

// reader is the database lookups go to. The driver keeps the first Module
// it was given, so the database is swapped here instead.
var reader atomic.Pointer[sql.DB]

// Register makes ckpt_admin available and directs its lookups to db.
func Register(db *sql.DB) error {
	reader.Store(db)
	if err := vtab.RegisterModule(db, TableName, &Module{}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

// ErrUnavailable is returned by Attach when conn does not carry the module.
var ErrUnavailable = errors.New("ckptadmin: ckpt_admin module not installed on this connection")

// Attach creates the ckpt_admin table in the temp schema of conn, so
// nothing is persisted in the database file.
func Attach(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS temp.%[1]s USING %[1]s(op)`, TableName))
	if err != nil && strings.Contains(err.Error(), "no such module") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Status describes the checkpoint stored under id by querying ckpt_admin on
// conn.
func Status(ctx context.Context, conn *sql.Conn, id string) (string, error) {
	var op string
	err := conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT op FROM %s WHERE op MATCH ?`, TableName), id).Scan(&op)
	if err != nil {
		return "", fmt.Errorf("ckpt_admin %s: %w", id, err)
	}
	return op, nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("ckpt_admin: need at least 3 args")
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op)", args[2])); err != nil {
		return nil, err
	}
	return &Table{}, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 1
			info.IdxNum = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{}, nil }
func (t *Table) Disconnect() error          { return nil }
func (t *Table) Destroy() error             { return nil }

func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	id, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("ckpt_admin: MATCH expects checkpoint id as TEXT")
	}
	db := reader.Load()
	if db == nil {
		return fmt.Errorf("ckpt_admin: not registered")
	}
	status, err := describe(db, id)
	if err != nil {
		return err
	}
	c.rows = []string{status}
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("ckpt_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}

func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }

func (c *Cursor) Close() error {
	c.rows = nil
	c.pos = 0
	return nil
}

// describe loads the checkpoint stored under id and renders its status.
func describe(db *sql.DB, id string) (string, error) {
	var body []byte
	err := db.QueryRowContext(context.Background(), `SELECT body FROM checkpoints WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "missing", nil
	}
	if err != nil {
		return "", err
	}
	return Describe(checkpoint.Parse(body)), nil
}

// Describe renders a one-line checkpoint summary.
func Describe(c *checkpoint.Checkpoint) string {
	remote := c.Remote().String()
	if remote == "" {
		remote = "-"
	}
	return fmt.Sprintf("local=%d pending=%d completed=%s remote=%s",
		c.LocalMinSequence(), c.PendingSequenceCount(), c.Completed(), remote)
}

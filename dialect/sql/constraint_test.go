package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "state " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		check      bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("connection reset")},
		{name: "pgx/unique", err: &pgconn.PgError{Code: "23505"}, unique: true},
		{name: "pgx/foreign_key", err: &pgconn.PgError{Code: "23503"}, foreignKey: true},
		{name: "pgx/check", err: &pgconn.PgError{Code: "23514"}, check: true},
		{name: "pgx/other", err: &pgconn.PgError{Code: "42P01", Message: "violates unique constraint"}},
		{name: "pq/unique", err: &pq.Error{Code: "23505"}, unique: true},
		{name: "pq/foreign_key", err: fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503"}), foreignKey: true},
		{name: "sqlstate/check", err: stateErr("23514"), check: true},
		{name: "mysql/unique", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, unique: true},
		{name: "mysql/parent", err: &mysql.MySQLError{Number: 1451}, foreignKey: true},
		{name: "mysql/child", err: &mysql.MySQLError{Number: 1452}, foreignKey: true},
		{name: "mysql/check", err: &mysql.MySQLError{Number: 3819}, check: true},
		{name: "sqlite/unique", err: errors.New("UNIQUE constraint failed: Items.Sku"), unique: true},
		{name: "sqlite/foreign_key", err: errors.New("FOREIGN KEY constraint failed"), foreignKey: true},
		{name: "sqlite/check", err: errors.New("CHECK constraint failed: Quantity >= 0"), check: true},
		{name: "sqlserver/foreign_key", err: errors.New(`The DELETE statement conflicted with the REFERENCE constraint "FK_Orders_Items"`), foreignKey: true},
		{name: "sqlserver/unique", err: errors.New("Cannot insert duplicate key row in object 'dbo.Items'"), unique: true},
		{name: "sqlserver/check", err: errors.New(`The UPDATE statement conflicted with the CHECK constraint "CK_Quantity"`), check: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.foreignKey, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check, IsConstraintError(tt.err))
		})
	}
}

package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func newQueryDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://localhost:5432/test?sslmode=disable")))
	database := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { database.Close() })
	return database
}

func TestCapabilitiesWithoutVectorQuery_ScopedToFirm(t *testing.T) {
	database := newQueryDB(t)

	var capabilities []CompanyCapability
	query := capabilitiesWithoutVectorQuery(database, "firm-1", &capabilities).String()

	assert.Contains(t, query, "JOIN company_profiles AS cp ON cp.id = cc.company_id")
	assert.Contains(t, query, "cp.firm_id = 'firm-1'")
	assert.Contains(t, query, "cc.vector_id IS NULL OR cc.vector_id = ''")
}

package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/seed"
)

const catalog = `name,generic_name,manufacturer,category,unit,price,stock_quantity,minimum_stock,expiry_date,batch_number
Paracetamol 500mg,Paracetamol,Kimia Farma,Analgesic,strip,12000,50,10,2026-05-01,B-1
Amoxicillin 500mg,Amoxicillin,Sanbe,Antibiotic,box,45000.50,8,,2025-12-31,
Broken,,,,,abc,1,1,2025-01-01,
`

func newDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

func TestLoadDrugs(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	n, err := seed.LoadDrugs(ctx, db, strings.NewReader(catalog), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var minimum int64
	require.NoError(t, db.Get(&minimum, `SELECT minimum_stock FROM drugs WHERE name = 'Amoxicillin 500mg'`))
	assert.EqualValues(t, 10, minimum)

	var price string
	require.NoError(t, db.Get(&price, `SELECT price FROM drugs WHERE name = 'Amoxicillin 500mg'`))
	assert.Equal(t, "45000.5", price)

	// loading the same file again inserts nothing
	n, err = seed.LoadDrugs(ctx, db, strings.NewReader(catalog), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadDrugsMissingColumn(t *testing.T) {
	db := newDB(t)
	_, err := seed.LoadDrugs(context.Background(), db, strings.NewReader("name,unit\nA,box\n"), zap.NewNop())
	assert.ErrorContains(t, err, `missing column "price"`)
}

func TestLoadDrugsFileMissing(t *testing.T) {
	db := newDB(t)
	n, err := seed.LoadDrugsFile(context.Background(), db, "does-not-exist.csv", zap.NewNop())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

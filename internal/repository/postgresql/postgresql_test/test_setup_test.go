package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup wraps the database used by the repository tests. The
// schema in migrations/ must already be applied.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and skips the test when it is
// not set.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(t, err, "failed to connect to test database")

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(context.Background()))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables empties every table owned by the engine.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"payroll_lop_deductions",
		"holidays",
		"leave_allocations",
		"leave_records",
		"regularization_requests",
		"attendance_records",
		"punch_events",
		"device_user_links",
		"shift_assignments",
		"shift_presets",
		"employees",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

// CreateEmployee inserts an active employee and returns its id.
func (t *TestDatabaseSetup) CreateEmployee(tb testing.TB, companyID, code, name string) string {
	tb.Helper()

	var id string
	err := t.DB.QueryRow(context.Background(), `
		INSERT INTO employees (id, company_id, employee_code, full_name, employment_status, base_salary)
		VALUES (uuidv7(), $1, $2, $3, 'active', 30000)
		RETURNING id`, companyID, code, name).Scan(&id)
	require.NoError(tb, err)
	return id
}

const testCompanyID = "0192d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"

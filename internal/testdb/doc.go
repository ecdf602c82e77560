//go:build integration

// Package testdb provides utilities for database integration tests.
//
// Tests run inside a transaction that is rolled back when the test finishes,
// so they can run in parallel against one database without cleanup:
//
//	func TestMyFeature(t *testing.T) {
//	    t.Parallel()
//	    if testdb.ShouldSkipDatabaseTest() {
//	        t.Skip("DATABASE_URL not set - skipping integration test")
//	    }
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresRawQuestionStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Migrations are applied once per test binary from the embedded set in
// internal/platform/postgres.
package testdb

package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=localhost user=quiz dbname=quiz sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true},
	)
	require.NoError(t, err)
	return db
}

func TestLockAnswerPaper_SelectsForUpdate(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return lockAnswerPaper(tx, 7) })

	assert.Contains(t, sql, `FROM "answer_papers"`)
	assert.Contains(t, sql, "id = 7")
	assert.True(t, strings.HasSuffix(sql, "FOR UPDATE"), sql)
}

func TestCompleteAnswerPaper_OnlyTouchesStatusAndEndTime(t *testing.T) {
	db := dryRunDB(t)
	end := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return completeAnswerPaper(tx, 7, end) })

	assert.True(t, strings.HasPrefix(sql, `UPDATE "answer_papers" SET`), sql)
	assert.Contains(t, sql, `"status"='completed'`)
	assert.Contains(t, sql, `"end_time"=`)
	assert.Contains(t, sql, "status = 'inprogress'")
	for _, column := range []string{"marks_obtained", "percent", "passed"} {
		assert.NotContains(t, sql, column)
	}
}

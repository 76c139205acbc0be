package database

import (
	"testing"

	"campus-dating-app/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpenMemoryStore(t *testing.T) {
	log, hook := test.NewNullLogger()

	store, closeFn, err := Open(MemoryURL, "warn", log)
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryStore{}, store)
	assert.NoError(t, closeFn())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "in-memory")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Error, gormLogLevel("ERROR"))
	assert.Equal(t, logger.Info, gormLogLevel("info"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
	assert.Equal(t, logger.Warn, gormLogLevel("verbose"))
}

package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockTimeoutClause(t *testing.T) {
	assert.Equal(t, "SET LOCAL lock_timeout = '3000ms'", lockTimeoutClause(3*time.Second))
	assert.Equal(t, "SET LOCAL lock_timeout = '250ms'", lockTimeoutClause(250*time.Millisecond))
}

func TestNewRepositoryLockTimeout(t *testing.T) {
	repo := NewRepository(nil, 0).(*postgresRepository)
	assert.Equal(t, defaultLockTimeout, repo.lockTimeout)

	repo = NewRepository(nil, 500*time.Millisecond).(*postgresRepository)
	assert.Equal(t, 500*time.Millisecond, repo.lockTimeout)
}

package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDualWriteBothSucceed(t *testing.T) {
	res := DualWrite(
		func() error { return nil },
		func() error { return nil },
	)
	assert.NoError(t, res.RepoErr)
	assert.NoError(t, res.CacheErr)
	assert.NoError(t, res.Primary())
	assert.False(t, res.PartialFailure())
}

func TestDualWriteSurfacesBothFailures(t *testing.T) {
	repoErr := errors.New("disk full")
	cacheErr := errors.New("redis down")

	res := DualWrite(
		func() error { return repoErr },
		func() error { return cacheErr },
	)
	assert.Equal(t, repoErr, res.RepoErr)
	assert.Equal(t, cacheErr, res.CacheErr)
	assert.False(t, res.PartialFailure(), "both failing is not partial")
}

func TestDualWritePartialFailure(t *testing.T) {
	cacheErr := errors.New("redis down")

	res := DualWrite(
		func() error { return nil },
		func() error { return cacheErr },
	)
	assert.NoError(t, res.Primary(), "cache failure never aborts the operation")
	assert.True(t, res.PartialFailure())

	res = DualWrite(
		func() error { return errors.New("constraint violation") },
		func() error { return nil },
	)
	assert.Error(t, res.Primary())
	assert.True(t, res.PartialFailure())
}

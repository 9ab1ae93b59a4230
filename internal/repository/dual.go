package repository

import (
	"sync"
)

// WriteResult carries the independent outcomes of a dual repository+cache
// write. The repository is the primary store: its failure aborts the calling
// operation, while a cache failure is reportable but survivable.
type WriteResult struct {
	RepoErr  error
	CacheErr error
}

// Primary returns the error that should abort the operation, if any.
func (r WriteResult) Primary() error {
	return r.RepoErr
}

// PartialFailure reports a write where exactly one of the two stores failed.
func (r WriteResult) PartialFailure() bool {
	return (r.RepoErr == nil) != (r.CacheErr == nil)
}

// DualWrite runs the repository and cache writes in parallel and surfaces
// both results. Neither write is cancelled by the other failing.
func DualWrite(repoFn, cacheFn func() error) WriteResult {
	var res WriteResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.RepoErr = repoFn()
	}()
	go func() {
		defer wg.Done()
		res.CacheErr = cacheFn()
	}()
	wg.Wait()
	return res
}

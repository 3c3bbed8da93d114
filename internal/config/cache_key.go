package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TaskProgressKey returns the cache key mirroring a task's live progress.
// The relational store stays the source of truth; the mirror is advisory,
// written best-effort by the worker and expired on a TTL.
func (r *CacheKeyStruct) TaskProgressKey(taskID string) string {
	return fmt.Sprintf("task:%s:progress", taskID)
}

var CacheKey = NewCacheKeyStruct()

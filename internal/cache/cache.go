// Package cache memoizes assessments so repeated scans of the same
// input are free. Analysis is deterministic, so within the TTL a hit
// is as good as a fresh run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"qrisk/internal/model"
)

// Cache is the memoization interface consumed by the batch processor
// and the CLI.
type Cache interface {
	Get(key string) (*model.RiskAssessment, bool)
	Set(key string, a *model.RiskAssessment, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Key derives the cache key for a raw input string. Inputs are
// attacker-controlled and can be arbitrarily long, so keys are hashed.
func Key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "qrisk:v1:" + hex.EncodeToString(sum[:])
}

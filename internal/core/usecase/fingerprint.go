package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

// queryFingerprint is the cache key for one normalized query. Normalization
// happens first so an implicit default and an explicit one hash the same.
func queryFingerprint(query domain.Query) string {
	q := query.Normalize()
	canonical := fmt.Sprintf("%s|%d|%d|%.4f|%s", q.Text, q.ContextLimit, q.MaxTokens, q.Temperature, q.SearchMode)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

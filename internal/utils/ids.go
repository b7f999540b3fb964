package utils

import (
	"github.com/google/uuid"
)

// NewID returns prefix followed by a UUIDv7: a millisecond timestamp plus
// random bits, monotonic within the process so keys sort in creation order.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		// 随机源不可用时退回 v4
		id = uuid.New()
	}
	return prefix + id.String()
}

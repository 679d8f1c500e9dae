package shared

import "fmt"

// IdempotencyRedisKey builds the redis key that records a processed request.
func IdempotencyRedisKey(module, key string) string {
	return fmt.Sprintf("comanda:idempotency:%s:%s", module, key)
}

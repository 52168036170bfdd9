// Package storage provides the recent uploads cache.
//
// Implementations:
//   - redis: JSON value with TTL
//   - memory: in-process, used when no Redis address is configured
package storage

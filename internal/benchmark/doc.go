// Package benchmark holds cross-package benchmarks for the pool and its
// containers. Run with go test -bench=. ./internal/benchmark/...
package benchmark

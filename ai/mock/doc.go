// Package mock provides test doubles for the ai package interfaces.
//
// The doubles track call counts under a mutex so concurrency tests can
// assert how many upstream calls were actually issued, and allow behavior
// injection via function fields.
package mock

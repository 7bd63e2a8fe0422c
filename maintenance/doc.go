// Package maintenance provides offline integrity checks for persisted
// document stores.
//
// The Verifier walks every store in a repository and confirms that each
// descriptor's bytes are present, match the recorded size and content hash,
// and can still be extracted. It supports progress tracking and retry logic
// with exponential backoff for flaky storage reads.
package maintenance

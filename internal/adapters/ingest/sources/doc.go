// Package sources downloads subscription lists from upstream URLs
//
// Design choices:
// - Three attempts per URL: normal, TLS verification off, then https downgraded to http.
// - Inside an attempt 429 and 5xx are retried with exponential backoff and jitter.
// - Bodies are read fully under a size cap; a source yields all of its text or nothing.
// - An optional on disk cache keeps the last good body per URL and serves it when every attempt fails.
package sources

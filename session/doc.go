// Package session persists finished session transcripts.
//
// A transcript keeps the original input, every executed step with its
// result, and the final output, so runs can be reviewed or replayed later.
package session

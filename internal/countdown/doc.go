// Package countdown implements the persisted countdown state machine that
// drives the focus timer. Every mutation hands its new snapshot to an
// injected Persister; the store never touches storage on its own.
package countdown

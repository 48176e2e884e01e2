// package session manages the client's authentication lifecycle: persisting
// the bearer token, restoring and verifying it on startup, and guarding
// navigation between public and protected views.
package session

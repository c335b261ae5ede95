// Package fetch performs the HTTP work of an update check: page requests
// retried with exponential backoff, and streamed archive downloads with
// percentage progress.
package fetch

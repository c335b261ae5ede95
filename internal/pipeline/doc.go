// Package pipeline sequences one zipwarden run: a health check on the
// installed tool, then PathCheck, LogRotation and UpdateCheck in order.
// Each step is safe to re-run; a failing step stops the run and there is no
// rollback of earlier steps.
package pipeline

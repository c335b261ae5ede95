// Package config builds the immutable run configuration: every path, timeout
// and threshold zipwarden uses, resolved once at startup from defaults, an
// optional .env override file and ZIPWARDEN_-prefixed environment variables.
package config

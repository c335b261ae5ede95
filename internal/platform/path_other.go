//go:build !windows

package platform

// persistentPath has no registry to read outside Windows; the process PATH
// is authoritative.
func persistentPath() []string { return nil }

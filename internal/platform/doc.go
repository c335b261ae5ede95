// Package platform wraps the few OS-specific operations zipwarden needs:
// executable naming, permission bits and registration of the install
// directory on the system PATH through an elevated helper script.
package platform

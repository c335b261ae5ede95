// Package profile describes the product a zipwarden install manages: how to
// read the installed version from the tool's banner, where the vendor publishes
// releases, how archive links are named and how the tool extracts an archive.
//
// Profiles are YAML documents validated against an embedded JSON schema. The
// default profile (7-Zip Extra) is embedded in the binary.
package profile

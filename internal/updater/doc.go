// Package updater keeps the managed tool current. The Oracle reads the
// installed version from the tool's banner and the latest release from the
// vendor download page; the Installer extracts an archive with the installed
// tool into a staging directory and merges it into the install directory;
// Service ties both to the download and records each check in a cache file.
package updater

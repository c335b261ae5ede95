//go:build windows

package platform

import (
	"golang.org/x/sys/windows/registry"
)

const (
	systemEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`
	userEnvKey   = `Environment`
)

// persistentPath returns the machine and user PATH values stored in the
// registry. A terminal started before the last PATH change still carries
// the old process PATH; these values are what a fresh one would see.
func persistentPath() []string {
	var out []string
	for _, k := range []struct {
		root registry.Key
		path string
	}{
		{registry.LOCAL_MACHINE, systemEnvKey},
		{registry.CURRENT_USER, userEnvKey},
	} {
		if v := readPathValue(k.root, k.path); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func readPathValue(root registry.Key, path string) string {
	key, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer key.Close()

	val, typ, err := key.GetStringValue("Path")
	if err != nil {
		return ""
	}
	if typ == registry.EXPAND_SZ {
		if expanded, err := registry.ExpandString(val); err == nil {
			return expanded
		}
	}
	return val
}

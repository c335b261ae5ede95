package updater

import (
	"fmt"
	"io"
	"time"
)

// PrintOutcome writes a short human summary of a check.
func PrintOutcome(w io.Writer, out *Outcome) {
	fmt.Fprintf(w, "Installed: %s", out.Installed)
	if out.Probe != "" && out.Probe != ProbeOK {
		fmt.Fprintf(w, " (%s)", out.Probe)
	}
	fmt.Fprintln(w)
	if out.Latest.IsUnknown() {
		fmt.Fprintf(w, "Latest:    unavailable")
		if out.Err != nil {
			fmt.Fprintf(w, " (%v)", out.Err)
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "Latest:    %s\n", out.Latest)
	fmt.Fprintf(w, "Download:  %s\n", out.DownloadURL)
	switch out.Action {
	case ActionAvailable:
		PrintUpdateBanner(w, out.Installed.String(), out.Latest.String())
	case ActionUpdated:
		fmt.Fprintf(w, "Updated:   %s -> %s\n", out.Installed, out.NewInstalled)
	case ActionUpToDate:
		fmt.Fprintln(w, "Up to date.")
	default:
		fmt.Fprintf(w, "Result:    %s\n", out.Action)
	}
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	fmt.Fprintf(w, "    Run `zipwarden run` to install it\n\n")
}

// PrintCache prints the last recorded check, or a note when none exists.
func PrintCache(w io.Writer, cache *VersionCache, now time.Time) {
	if cache == nil {
		fmt.Fprintln(w, "Last check: never")
		return
	}
	age := now.Sub(cache.CheckedAt).Truncate(time.Second)
	fmt.Fprintf(w, "Last check: %s (%s ago), result %s\n", cache.CheckedAt.Format(time.RFC3339), age, cache.Action)
	if cache.UpdateAvailable {
		PrintUpdateBanner(w, cache.CurrentVersion, cache.LatestVersion)
	}
	if IsCacheStale(cache, DefaultCacheMaxAge, now) {
		fmt.Fprintln(w, "Last check is more than a day old.")
	}
}

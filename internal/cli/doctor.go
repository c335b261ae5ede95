package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/zipwarden/zipwarden/internal/branding"
	"github.com/zipwarden/zipwarden/internal/config"
	"github.com/zipwarden/zipwarden/internal/platform"
	"github.com/zipwarden/zipwarden/internal/updater"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the installation and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runDoctor(cmd.Context(), os.Stdout, cfg, time.Now())
	},
}

func runDoctor(ctx context.Context, w io.Writer, cfg *config.Config, now time.Time) error {
	fmt.Fprintf(w, "%s doctor\n", branding.DisplayName())
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Layout:")
	checkPath(w, "Install dir", cfg.InstallDir)
	exeOK := checkPath(w, cfg.Profile.Executable, cfg.Executable())
	checkPath(w, "Log dir", cfg.LogDir)
	checkPath(w, "Downloads dir", cfg.DownloadDir)
	checkPath(w, "State dir", cfg.StateDir)
	checkPath(w, "PATH helper", cfg.PathHelper)
	if platform.IsWindows() {
		if p, err := exec.LookPath(cfg.PwshExe); err == nil {
			fmt.Fprintf(w, "  [ OK ] pwsh found at %s\n", p)
		} else {
			fmt.Fprintf(w, "  [MISS] pwsh (%s) not found\n", cfg.PwshExe)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	if cfg.EnvFile != "" {
		fmt.Fprintf(w, "  [ OK ] overrides read from %s\n", cfg.EnvFile)
	} else {
		fmt.Fprintln(w, "  [ -- ] no .env file, using defaults")
	}
	if cfg.ProfileFile != "" {
		fmt.Fprintf(w, "  [ OK ] profile %q from %s\n", cfg.Profile.ID, cfg.ProfileFile)
	} else {
		fmt.Fprintf(w, "  [ OK ] built-in profile %q\n", cfg.Profile.ID)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "PATH:")
	entries := platform.Entries(platform.CurrentPath())
	for _, e := range []struct{ label, dir string }{
		{"Install dir", cfg.InstallDir},
		{"Tags dir", cfg.TagsDir},
	} {
		if platform.Contains(entries, e.dir) {
			fmt.Fprintf(w, "  [ OK ] %s on PATH\n", e.label)
		} else {
			fmt.Fprintf(w, "  [MISS] %s not on PATH (%s)\n", e.label, e.dir)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installed version:")
	oracle := &updater.Oracle{
		Executable:   cfg.Executable(),
		Profile:      cfg.Profile,
		ProbeTimeout: cfg.ProbeTimeout,
	}
	probe := oracle.ProbeInstalled(ctx)
	if probe.Status == updater.ProbeOK {
		fmt.Fprintf(w, "  [ OK ] %s\n", probe.Version)
	} else {
		fmt.Fprintf(w, "  [MISS] %s (%s)\n", probe.Version, probe.Status)
	}

	cache, err := updater.LoadCache(cfg.StateDir)
	if err != nil {
		fmt.Fprintf(w, "  [MISS] %v\n", err)
	}
	updater.PrintCache(w, cache, now)

	if !exeOK {
		return fmt.Errorf("%s not found in %s", cfg.Profile.Executable, cfg.InstallDir)
	}
	return nil
}

func checkPath(w io.Writer, label, path string) bool {
	if path == "" {
		fmt.Fprintf(w, "  [MISS] %s not configured\n", label)
		return false
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  [MISS] %s not found at %s\n", label, path)
		return false
	}
	fmt.Fprintf(w, "  [ OK ] %s found at %s\n", label, path)
	return true
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zipwarden/zipwarden/internal/branding"
	"github.com/zipwarden/zipwarden/internal/platform"
	"github.com/zipwarden/zipwarden/internal/profile"
)

const (
	envFileName = ".env"
	envFileType = "env"
)

// Setting keys, as they appear in the .env file (case-insensitive) and, with
// the ZIPWARDEN_ prefix, in the environment.
const (
	KeyRoot              = "root"
	KeyInstallDir        = "install_dir"
	KeyLogDir            = "log_dir"
	KeyDownloads         = "downloads"
	KeyStateDir          = "state_dir"
	KeyPwshExe           = "pwsh_exe"
	KeyPathHelper        = "path_helper"
	KeyProfileFile       = "profile_file"
	KeyMetricsFile       = "metrics_file"
	KeyLogLevel          = "log_level"
	KeyRetentionDays     = "retention_days"
	KeyMaxLogMB          = "max_log_mb"
	KeyRequestTimeout    = "request_timeout"
	KeyPageTimeout       = "page_timeout"
	KeyProbeTimeout      = "probe_timeout"
	KeyDownloadTimeout   = "download_timeout"
	KeyMaxRetries        = "max_retries"
	KeyRetryDelay        = "retry_delay"
	KeyIdleTimeout       = "idle_timeout"
	KeyPathHelperTimeout = "path_helper_timeout"

	// legacy name for install_dir
	aliasSevenZipDir = "sevenzip_dir"
)

// Config is the resolved configuration. It is built once by Load and passed
// by value or pointer into every component; nothing mutates it afterwards.
type Config struct {
	Root        string
	InstallDir  string
	LogDir      string
	DownloadDir string
	StateDir    string
	TagsDir     string
	PwshExe     string
	PathHelper  string
	ProfileFile string
	MetricsFile string
	LogLevel    string

	// EnvFile is the override file that was read, empty when none existed.
	EnvFile string

	RetentionDays     int
	MaxLogBytes       int64
	RequestTimeout    time.Duration
	PageTimeout       time.Duration
	ProbeTimeout      time.Duration
	DownloadTimeout   time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	IdleTimeout       time.Duration
	PathHelperTimeout time.Duration

	Profile *profile.Profile
}

// LoadOptions control where Load looks for its inputs.
type LoadOptions struct {
	// EnvFile overrides the default .env location (next to the executable).
	EnvFile string
	// Executable is the path of the running binary, used for root
	// detection. Defaults to os.Executable().
	Executable string
}

// Load resolves the configuration. A missing .env file is not an error; an
// unreadable or malformed one is.
func Load(opts LoadOptions) (*Config, error) {
	exe := opts.Executable
	if exe == "" {
		p, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating executable: %w", err)
		}
		exe = p
	}
	exeDir := filepath.Dir(absPath(exe))

	v := viper.New()
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()
	setDefaults(v)

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = filepath.Join(exeDir, envFileName)
	}
	read, err := readEnvFile(v, envFile)
	if err != nil {
		return nil, err
	}
	// Must follow ReadInConfig so a SEVENZIP_DIR value read from the file is
	// moved under install_dir.
	v.RegisterAlias(aliasSevenZipDir, KeyInstallDir)

	root := v.GetString(KeyRoot)
	if root == "" {
		root = DetectRoot(exe)
	}
	root = absPath(root)

	prof, err := profile.Load(resolve(root, v.GetString(KeyProfileFile)))
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	cfg := &Config{
		Root:              root,
		InstallDir:        pathOr(v, root, KeyInstallDir, filepath.Join(root, "apps", prof.ID)),
		LogDir:            pathOr(v, root, KeyLogDir, filepath.Join(root, "logs", prof.ID+"log")),
		DownloadDir:       pathOr(v, root, KeyDownloads, filepath.Join(root, "downloads")),
		StateDir:          pathOr(v, root, KeyStateDir, filepath.Join(root, branding.StateDir())),
		TagsDir:           filepath.Join(root, "tags"),
		PwshExe:           pathOr(v, root, KeyPwshExe, filepath.Join(root, "apps", "pwsh", "pwsh.exe")),
		PathHelper:        pathOr(v, root, KeyPathHelper, filepath.Join(root, "devops", "pathupdate", "fix_path.ps1")),
		ProfileFile:       resolve(root, v.GetString(KeyProfileFile)),
		MetricsFile:       resolve(root, v.GetString(KeyMetricsFile)),
		LogLevel:          strings.ToLower(v.GetString(KeyLogLevel)),
		RetentionDays:     v.GetInt(KeyRetentionDays),
		MaxLogBytes:       v.GetInt64(KeyMaxLogMB) * 1024 * 1024,
		RequestTimeout:    v.GetDuration(KeyRequestTimeout),
		PageTimeout:       v.GetDuration(KeyPageTimeout),
		ProbeTimeout:      v.GetDuration(KeyProbeTimeout),
		DownloadTimeout:   v.GetDuration(KeyDownloadTimeout),
		MaxRetries:        v.GetInt(KeyMaxRetries),
		RetryDelay:        v.GetDuration(KeyRetryDelay),
		IdleTimeout:       v.GetDuration(KeyIdleTimeout),
		PathHelperTimeout: v.GetDuration(KeyPathHelperTimeout),
		Profile:           prof,
	}
	if read {
		cfg.EnvFile = envFile
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRetentionDays, 7)
	v.SetDefault(KeyMaxLogMB, 50)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyPageTimeout, 10*time.Second)
	v.SetDefault(KeyProbeTimeout, 5*time.Second)
	v.SetDefault(KeyDownloadTimeout, 10*time.Minute)
	v.SetDefault(KeyMaxRetries, 3)
	v.SetDefault(KeyRetryDelay, time.Second)
	v.SetDefault(KeyIdleTimeout, 2*time.Minute)
	v.SetDefault(KeyPathHelperTimeout, 60*time.Second)

	// Path keys have no static default; bind them so AutomaticEnv lookups
	// also work for keys that never appear in the file.
	for _, k := range []string{KeyRoot, KeyInstallDir, KeyLogDir, KeyDownloads, KeyStateDir,
		KeyPwshExe, KeyPathHelper, KeyProfileFile, KeyMetricsFile} {
		_ = v.BindEnv(k)
	}
}

func readEnvFile(v *viper.Viper, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	v.SetConfigFile(path)
	v.SetConfigType(envFileType)
	if err := v.ReadInConfig(); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// DetectRoot returns the project root for an executable installed as
// <root>/devops/<tool>/<binary>: two levels above its directory.
func DetectRoot(exe string) string {
	exe = absPath(exe)
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(filepath.Dir(exe)))
}

func pathOr(v *viper.Viper, root, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return resolve(root, s)
	}
	return fallback
}

// resolve makes a relative override absolute against root.
func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (c *Config) validate() error {
	var problems []string
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("%s: unknown level %q", KeyLogLevel, c.LogLevel))
	}
	if c.RetentionDays < 1 {
		problems = append(problems, fmt.Sprintf("%s must be at least 1", KeyRetentionDays))
	}
	if c.MaxLogBytes <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyMaxLogMB))
	}
	if c.MaxRetries < 1 {
		problems = append(problems, fmt.Sprintf("%s must be at least 1", KeyMaxRetries))
	}
	if c.RetryDelay < 0 || c.IdleTimeout < 0 {
		problems = append(problems, "durations must not be negative")
	}
	for key, d := range map[string]time.Duration{
		KeyRequestTimeout: c.RequestTimeout, KeyPageTimeout: c.PageTimeout,
		KeyProbeTimeout: c.ProbeTimeout, KeyDownloadTimeout: c.DownloadTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", key))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Executable returns the path of the managed tool inside the install dir.
func (c *Config) Executable() string {
	return filepath.Join(c.InstallDir, platform.ExecutableName(c.Profile.Executable))
}

// Setting is one resolved key/value pair, for display.
type Setting struct {
	Key   string
	Value string
}

// Settings lists the resolved configuration in key order.
func (c *Config) Settings() []Setting {
	s := []Setting{
		{KeyRoot, c.Root},
		{KeyInstallDir, c.InstallDir},
		{KeyLogDir, c.LogDir},
		{KeyDownloads, c.DownloadDir},
		{KeyStateDir, c.StateDir},
		{KeyPwshExe, c.PwshExe},
		{KeyPathHelper, c.PathHelper},
		{KeyProfileFile, c.ProfileFile},
		{KeyMetricsFile, c.MetricsFile},
		{KeyLogLevel, c.LogLevel},
		{KeyRetentionDays, fmt.Sprint(c.RetentionDays)},
		{KeyMaxLogMB, fmt.Sprint(c.MaxLogBytes / (1024 * 1024))},
		{KeyRequestTimeout, c.RequestTimeout.String()},
		{KeyPageTimeout, c.PageTimeout.String()},
		{KeyProbeTimeout, c.ProbeTimeout.String()},
		{KeyDownloadTimeout, c.DownloadTimeout.String()},
		{KeyMaxRetries, fmt.Sprint(c.MaxRetries)},
		{KeyRetryDelay, c.RetryDelay.String()},
		{KeyIdleTimeout, c.IdleTimeout.String()},
		{KeyPathHelperTimeout, c.PathHelperTimeout.String()},
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Key < s[j].Key })
	return s
}

// Get returns one resolved setting by key (case-insensitive). The legacy
// sevenzip_dir name is accepted for install_dir.
func (c *Config) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	if key == aliasSevenZipDir {
		key = KeyInstallDir
	}
	for _, s := range c.Settings() {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}

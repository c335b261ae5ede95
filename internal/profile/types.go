package profile

import (
	"regexp"
	"strings"
)

// Profile holds everything product-specific about a managed tool.
type Profile struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Executable     string   `yaml:"executable"`
	BannerPattern  string   `yaml:"banner_pattern"`
	PageURL        string   `yaml:"page_url"`
	BaseURL        string   `yaml:"base_url"`
	VersionPattern string   `yaml:"version_pattern"`
	LinkPattern    string   `yaml:"link_pattern"`
	FallbackURL    string   `yaml:"fallback_url"`
	ExtractArgs    []string `yaml:"extract_args"`
	UserAgent      string   `yaml:"user_agent"`
	LogPrefix      string   `yaml:"log_prefix"`

	banner  *regexp.Regexp
	version *regexp.Regexp
	link    *regexp.Regexp
}

// Banner returns the compiled installed-version pattern. Its first capture
// group is the version token.
func (p *Profile) Banner() *regexp.Regexp { return p.banner }

// VersionHeading returns the compiled vendor-page version pattern.
func (p *Profile) VersionHeading() *regexp.Regexp { return p.version }

// ArchiveLink returns the compiled pattern archive hrefs must match.
func (p *Profile) ArchiveLink() *regexp.Regexp { return p.link }

// ExtractCommandArgs expands the {archive} and {dest} placeholders of the
// extractor argument template.
func (p *Profile) ExtractCommandArgs(archive, dest string) []string {
	r := strings.NewReplacer("{archive}", archive, "{dest}", dest)
	args := make([]string, len(p.ExtractArgs))
	for i, a := range p.ExtractArgs {
		args[i] = r.Replace(a)
	}
	return args
}

// FallbackDownloadURL builds the archive URL from a version code when the
// vendor page has no matching link.
func (p *Profile) FallbackDownloadURL(code string) string {
	return strings.NewReplacer("{base}", p.BaseURL, "{code}", code).Replace(p.FallbackURL)
}

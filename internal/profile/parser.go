package profile

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultProfile []byte

// Default returns the embedded 7-Zip Extra profile.
func Default() (*Profile, error) {
	p, err := Parse(defaultProfile)
	if err != nil {
		return nil, fmt.Errorf("embedded profile: %w", err)
	}
	return p, nil
}

// Load reads a profile from path. An empty path selects the embedded default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default()
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse validates raw YAML against the profile schema, decodes it and
// compiles its patterns.
func Parse(data []byte) (*Profile, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &InvalidError{Issues: result.Issues}
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidError lists the schema violations of a rejected profile.
type InvalidError struct {
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Path != "" {
			parts = append(parts, is.Path+": "+is.Message)
		} else {
			parts = append(parts, is.Message)
		}
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

func (p *Profile) compile() error {
	var err error
	if p.banner, err = compileCapture("banner_pattern", p.BannerPattern); err != nil {
		return err
	}
	if p.version, err = compileCapture("version_pattern", p.VersionPattern); err != nil {
		return err
	}
	if p.link, err = regexp.Compile(p.LinkPattern); err != nil {
		return fmt.Errorf("link_pattern: %w", err)
	}

	hasDest := false
	for _, a := range p.ExtractArgs {
		if strings.Contains(a, "{dest}") {
			hasDest = true
			break
		}
	}
	if !hasDest {
		return fmt.Errorf("extract_args: no argument carries the {dest} placeholder")
	}
	return nil
}

// compileCapture compiles a pattern that must expose exactly one capture group.
func compileCapture(field, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("%s: want exactly one capture group, got %d", field, re.NumSubexp())
	}
	return re, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	return data, nil
}

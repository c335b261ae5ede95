package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/zipwarden/zipwarden/internal/fetch"
	"github.com/zipwarden/zipwarden/internal/profile"
)

// ProbeStatus says how an installed-version probe ended.
type ProbeStatus string

const (
	ProbeOK          ProbeStatus = "ok"
	ProbeAbsent      ProbeStatus = "absent"
	ProbeTimeout     ProbeStatus = "timeout"
	ProbeUnparseable ProbeStatus = "unparseable"
	ProbeFailed      ProbeStatus = "failed"
)

// Probe is the result of running the installed tool.
type Probe struct {
	Version Version
	Status  ProbeStatus
	Err     error
}

// Release is the latest version offered by the vendor and where to get it.
type Release struct {
	Version     Version
	DownloadURL string
	// Synthesized is set when no archive link was found on the page and the
	// URL was built from the version code.
	Synthesized bool
}

// Oracle answers "what is installed" and "what is latest".
type Oracle struct {
	Executable   string
	Profile      *profile.Profile
	Fetcher      *fetch.Client
	Retry        fetch.RetryPolicy
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

func (o *Oracle) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// ProbeInstalled runs the installed tool without arguments and parses the
// version from its banner. It never returns an error; the status tells
// absence, timeout and an unreadable banner apart.
func (o *Oracle) ProbeInstalled(ctx context.Context) Probe {
	if _, err := os.Stat(o.Executable); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Probe{Status: ProbeAbsent, Err: err}
		}
		return Probe{Status: ProbeFailed, Err: err}
	}

	timeout := o.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, o.Executable)
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Probe{Status: ProbeTimeout, Err: fmt.Errorf("no output within %s", timeout)}
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Probe{Status: ProbeFailed, Err: err}
	}

	m := o.Profile.Banner().FindSubmatch(out)
	if m == nil {
		return Probe{Status: ProbeUnparseable, Err: fmt.Errorf("%w: banner does not match %q", ErrParse, o.Profile.BannerPattern)}
	}
	v, perr := ParseVersion(string(m[1]))
	if perr != nil {
		return Probe{Status: ProbeUnparseable, Err: perr}
	}
	return Probe{Version: v, Status: ProbeOK}
}

// InstalledVersion is ProbeInstalled collapsed to a version: every outcome
// other than ok is Unknown.
func (o *Oracle) InstalledVersion(ctx context.Context) Version {
	p := o.ProbeInstalled(ctx)
	if p.Status != ProbeOK {
		o.log().Warn("installed version not determined", "status", p.Status, "executable", o.Executable, "error", p.Err)
		return Unknown
	}
	return p.Version
}

// LatestRelease fetches the vendor page and extracts the latest version and
// its archive URL. Network failures wrap ErrNetwork, missing content wraps
// ErrParse; both mean "no update information" to the caller.
func (o *Oracle) LatestRelease(ctx context.Context) (*Release, error) {
	resp, err := o.Fetcher.GetWithRetry(ctx, o.Profile.PageURL, o.Retry)
	if err != nil {
		return nil, err
	}
	rel, err := ParsePage(o.Profile, resp.Body)
	if err != nil {
		return nil, err
	}
	o.log().Info("latest release found", "version", rel.Version, "url", rel.DownloadURL, "synthesized", rel.Synthesized)
	return rel, nil
}

// ParsePage extracts the release from a vendor download page.
func ParsePage(p *profile.Profile, page []byte) (*Release, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page: %w", ErrParse, err)
	}
	text, hrefs := scanDocument(doc)

	m := p.VersionHeading().FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: no version heading matching %q", ErrParse, p.VersionPattern)
	}
	v, err := ParseVersion(m[1])
	if err != nil {
		return nil, err
	}

	rel := &Release{Version: v}
	for _, href := range hrefs {
		if p.ArchiveLink().MatchString(href) {
			abs, err := resolveURL(p.BaseURL, href)
			if err != nil {
				continue
			}
			rel.DownloadURL = abs
			return rel, nil
		}
	}

	code, err := VersionCode(v)
	if err != nil {
		return nil, err
	}
	rel.DownloadURL = p.FallbackDownloadURL(code)
	rel.Synthesized = true
	return rel, nil
}

// scanDocument returns the visible text of the page, space separated, and
// every anchor href in document order.
func scanDocument(doc *html.Node) (string, []string) {
	var sb strings.Builder
	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				sb.WriteString(s)
				sb.WriteByte(' ')
			}
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "a":
				for _, a := range n.Attr {
					if a.Key == "href" && a.Val != "" {
						hrefs = append(hrefs, strings.TrimSpace(a.Val))
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String(), hrefs
}

func resolveURL(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(h).String(), nil
}

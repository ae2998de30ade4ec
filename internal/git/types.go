package git

import (
	"net/url"
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultSummaryWidth is the display width commit summaries are truncated to.
const DefaultSummaryWidth = 72

// Remote is a configured remote of the local repository.
type Remote struct {
	Name string
	URL  string
}

// Redacted returns the URL with any password replaced by "xxxxx". Over
// http(s) a bare username is usually a token, so it is masked too.
// scp-like addresses are returned unchanged.
func (r Remote) Redacted() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.User == nil {
		return r.URL
	}
	if _, ok := u.User.Password(); !ok && isHTTP(u.Scheme) && u.User.Username() != "" {
		u.User = url.User("xxxxx")
		return u.String()
	}
	return u.Redacted()
}

func isHTTP(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "https" || scheme == "http"
}

// Commit identifies one commit of a gap.
type Commit struct {
	Hash    string
	Subject string
}

// ShortHash returns the abbreviated hash used in console output.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Summary returns the subject truncated to DefaultSummaryWidth cells.
func (c Commit) Summary() string {
	return Summarize(c.Subject, DefaultSummaryWidth)
}

// Summarize truncates s to at most width terminal cells, marking the cut
// with "...". Wide runes count as two cells.
func Summarize(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

package detect

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"

	"github.com/hazyhaar/jobtrack/clock"
	"github.com/hazyhaar/jobtrack/domain"
)

// Fields is what one strategy found. Either field may be empty.
type Fields struct {
	Title   string
	Company string
}

// page is the input every strategy reads.
type page struct {
	site Site
	kind PageKind
	url  *url.URL
	snap *Snapshot
}

// strategy is one named step of a site's extraction chain. Each is a pure
// function of the page so it can be exercised on its own.
type strategy struct {
	Name string
	// Fallback strategies run only when no earlier strategy found a title.
	Fallback bool
	Extract  func(p page) Fields
}

// strategies returns the ordered extraction chain for a page kind.
func strategies(kind PageKind) []strategy {
	chain := []strategy{{Name: "panel", Extract: panelFields}}
	// Search pages only carry job details in the side panel; page-wide
	// selectors would pick up the results list chrome.
	if kind != ListingSearch {
		chain = append(chain, strategy{Name: "page", Extract: pageFields})
	}
	if kind == SubmissionConfirmation {
		chain = append(chain, strategy{Name: "heading", Extract: headingFields})
	}
	return append(chain, strategy{Name: "url-keywords", Fallback: true, Extract: keywordFields})
}

// Extractor turns a classified page into a JobRecord.
type Extractor struct {
	clock  clock.Clock
	policy *bluemonday.Policy
	md     *converter.Converter
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithClock sets the clock used for DetectedAt.
func WithClock(c clock.Clock) ExtractorOption {
	return func(e *Extractor) { e.clock = c }
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		clock:  clock.Real(),
		policy: bluemonday.StrictPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// Extract runs the default Extractor.
func Extract(c Classification, rawURL string, snap *Snapshot) (domain.JobRecord, bool) {
	return defaultExtractor.Extract(c, rawURL, snap)
}

// Extract walks the strategy chain for the classified page. It returns false
// when no strategy yields a title, which is the normal outcome for pages
// without job details.
func (e *Extractor) Extract(c Classification, rawURL string, snap *Snapshot) (domain.JobRecord, bool) {
	if !c.Known() || c.PageKind == Unrecognized {
		return domain.JobRecord{}, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.JobRecord{}, false
	}
	site := c.site
	if site == nil {
		s := siteByID(c.SiteID)
		site = &s
	}
	p := page{site: *site, kind: c.PageKind, url: u, snap: snap}

	f, ok := e.runChain(p)
	if !ok {
		return domain.JobRecord{}, false
	}

	rec := domain.JobRecord{
		Title:      f.Title,
		Company:    f.Company,
		URL:        rawURL,
		SiteID:     c.SiteID,
		DetectedAt: e.clock.Now(),
		Status:     domain.JobViewed,
	}
	if c.PageKind == SubmissionConfirmation {
		rec.Status = domain.JobApplied
	}
	if p.site.JobID != nil {
		rec.JobID = p.site.JobID(u)
	}
	rec.Description = e.describe(p)
	return rec, true
}

func (e *Extractor) runChain(p page) (Fields, bool) {
	var partial Fields
	for _, s := range strategies(p.kind) {
		if s.Fallback && partial.Title != "" {
			break
		}
		f := s.Extract(p)
		f.Title = e.clean(f.Title)
		f.Company = e.clean(f.Company)
		if f.Title == "" {
			continue
		}
		if f.Company != "" {
			return f, true
		}
		if partial.Title == "" {
			partial = f
		}
	}
	if partial.Title == "" {
		return Fields{}, false
	}
	partial.Company = p.site.DefaultCompany
	return partial, true
}

// clean strips any markup left in extracted text and normalises whitespace.
func (e *Extractor) clean(s string) string {
	if s == "" {
		return ""
	}
	return CleanText(html.UnescapeString(e.policy.Sanitize(s)))
}

func (e *Extractor) describe(p page) string {
	for _, sel := range p.site.Describe {
		n := p.snap.First(sel)
		if n == nil {
			continue
		}
		md, err := e.md.ConvertString(renderNode(n), converter.WithDomain(p.url.Scheme+"://"+p.url.Host))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(md)
	}
	return ""
}

func panelFields(p page) Fields {
	for _, sel := range p.site.Panels {
		panel := p.snap.First(sel)
		if panel == nil {
			continue
		}
		return Fields{
			Title:   firstText(panel, p.site.Title),
			Company: firstText(panel, p.site.Company),
		}
	}
	return Fields{}
}

func pageFields(p page) Fields {
	if p.snap == nil {
		return Fields{}
	}
	return Fields{
		Title:   firstText(p.snap.root, p.site.Title),
		Company: firstText(p.snap.root, p.site.Company),
	}
}

var forAtRe = regexp.MustCompile(`(?i)for\s+(.+?)\s+at\s+(\S+)`)

// headingFields reads "for <title> at <company>" from the section around the
// first heading that talks about the application.
func headingFields(p page) Fields {
	for _, h := range p.snap.All(headingSelector) {
		if !submissionLanguageRe.MatchString(nodeText(h)) {
			continue
		}
		scope := closest(h, "section")
		if scope == nil {
			scope = h.Parent
		}
		m := forAtRe.FindStringSubmatch(CleanText(nodeText(scope)))
		if m == nil {
			return Fields{}
		}
		return Fields{
			Title:   m[1],
			Company: strings.TrimRight(m[2], ".,;:!?"),
		}
	}
	return Fields{}
}

// keywordFields derives a title from the search-keywords parameter. The value
// is percent-decoded and '+' becomes a space.
func keywordFields(p page) Fields {
	if p.site.KeywordParam == "" {
		return Fields{}
	}
	prefix := p.site.KeywordParam + "="
	for _, pair := range strings.Split(p.url.RawQuery, "&") {
		raw, ok := strings.CutPrefix(pair, prefix)
		if !ok || raw == "" {
			continue
		}
		v, err := url.PathUnescape(raw)
		if err != nil {
			v = raw
		}
		return Fields{
			Title:   strings.ReplaceAll(v, "+", " "),
			Company: p.site.SearchLabel,
		}
	}
	return Fields{}
}

// firstText returns the first non-blank text found by trying the selectors in
// order within scope.
func firstText(scope *nethtml.Node, selectors []string) string {
	for _, sel := range selectors {
		for _, n := range querySelectorAll(scope, sel) {
			if t := strings.TrimSpace(nodeText(n)); t != "" {
				return t
			}
		}
	}
	return ""
}

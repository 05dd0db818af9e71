package detect

import (
	"net/url"
	"regexp"
	"strings"
)

// PageKind is what a classified page represents.
type PageKind string

const (
	ListingSearch          PageKind = "listing-search"
	JobView                PageKind = "job-view"
	SubmissionConfirmation PageKind = "submission-confirmation"
	Unrecognized           PageKind = "unrecognized"
)

// Classification is the outcome of Classify. SiteID is empty when the URL
// belongs to no known or custom site.
type Classification struct {
	SiteID   string   `json:"siteId,omitempty"`
	PageKind PageKind `json:"pageKind"`

	// site is the table entry that matched. Nil on classifications built
	// outside Classify; Extract then resolves SiteID.
	site *Site
}

// Known reports whether the page belongs to a known or custom site.
func (c Classification) Known() bool { return c.SiteID != "" }

var (
	// submissionLanguageRe finds headings worth reading on a confirmation page.
	submissionLanguageRe = regexp.MustCompile(`(?i)\b(applied|application|submitted)\b`)
	// confirmationHeadingRe is stricter: on custom sites a heading is the only
	// confirmation marker, and "Job application form" must not count.
	confirmationHeadingRe = regexp.MustCompile(`(?i)(application (was |has been )?(submitted|received|sent)|you applied|thank you for applying|successfully applied)`)
)

const headingSelector = "h1, h2, h3"

// Classify decides which site rawURL belongs to and what kind of page the
// snapshot shows. It is a pure function of its inputs. Submission markers
// take priority over job-view and listing markers.
func Classify(rawURL string, snap *Snapshot, customSites []string) Classification {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Classification{PageKind: Unrecognized}
	}
	site, ok := lookupSite(u, customSites)
	if !ok {
		return Classification{PageKind: Unrecognized}
	}
	return Classification{SiteID: site.ID, PageKind: pageKind(site, u, snap), site: &site}
}

func pageKind(site Site, u *url.URL, snap *Snapshot) PageKind {
	if isSubmission(site, u, snap) {
		return SubmissionConfirmation
	}
	if site.ListingURL != nil && site.ListingURL(u) {
		return ListingSearch
	}
	lower := strings.ToLower(u.EscapedPath())
	for _, m := range site.JobViewURL {
		if strings.Contains(lower, m) {
			return JobView
		}
	}
	return Unrecognized
}

func isSubmission(site Site, u *url.URL, snap *Snapshot) bool {
	full := strings.ToLower(u.String())
	for _, m := range site.SubmissionURL {
		if strings.Contains(full, m) {
			return true
		}
	}
	for _, sel := range site.SubmissionDOM {
		if snap.Has(sel) {
			return true
		}
	}
	if site.SubmissionHeadings {
		for _, h := range snap.All(headingSelector) {
			if confirmationHeadingRe.MatchString(nodeText(h)) {
				return true
			}
		}
	}
	return false
}

package detect

import (
	"net/url"
	"regexp"
	"strings"
)

// Site describes how to recognise and read one job board. Marker lists are
// substring checks against the lowercased URL (host plus path and query) or
// selector groups checked against the snapshot.
type Site struct {
	ID string

	// Hosts are substrings of the URL host that select this site.
	Hosts []string

	SubmissionURL []string
	SubmissionDOM []string
	// SubmissionHeadings enables the submission-language heading check as a
	// confirmation marker. Used by custom sites, which have no known classes.
	SubmissionHeadings bool

	ListingURL func(u *url.URL) bool
	JobViewURL []string

	Panels   []string
	Title    []string
	Company  []string
	Describe []string

	// DefaultCompany is used when only a title is found.
	DefaultCompany string

	// KeywordParam is the search-keywords query parameter; SearchLabel is the
	// company recorded with a keyword-derived title.
	KeywordParam string
	SearchLabel  string

	// JobID extracts the board's own job identifier from the URL.
	JobID func(u *url.URL) string
}

var (
	linkedInJobIDRe = regexp.MustCompile(`currentJobId=(\d+)`)
	linkedInViewRe  = regexp.MustCompile(`/jobs/view/(\d+)`)
	naukriJobIDRe   = regexp.MustCompile(`/job-listings-.*-(\d+)(?:$|[/?])`)
)

// builtinSites is the fixed site table, checked before custom sites.
var builtinSites = []Site{
	{
		ID:            "linkedin",
		Hosts:         []string{"linkedin.com"},
		SubmissionURL: []string{"/post-apply/", "/applied/", "next-best-action"},
		SubmissionDOM: []string{
			".application-confirmation",
			".jobs-easy-apply-content",
			".artdeco-inline-feedback--success",
		},
		ListingURL: func(u *url.URL) bool { return strings.Contains(u.Path, "/jobs/search/") },
		JobViewURL: []string{"/jobs/", "/job/"},
		Panels:     []string{".jobs-search__right-rail", ".jobs-search-two-pane__details"},
		Title: []string{
			".jobs-unified-top-card__job-title",
			".job-details-jobs-unified-top-card__job-title",
			".job-title",
			".topcard__title",
			"h1",
		},
		Company: []string{
			".jobs-unified-top-card__company-name",
			".job-details-jobs-unified-top-card__company-name",
			".company-name",
			".topcard__org-name-link",
			".jobs-unified-top-card__subtitle-primary-grouping a",
		},
		Describe:       []string{".jobs-description__content", ".jobs-description", ".description__text"},
		DefaultCompany: "LinkedIn Company",
		KeywordParam:   "keywords",
		SearchLabel:    "LinkedIn Search",
		JobID: func(u *url.URL) string {
			s := u.String()
			if m := linkedInJobIDRe.FindStringSubmatch(s); m != nil {
				return m[1]
			}
			if m := linkedInViewRe.FindStringSubmatch(s); m != nil {
				return m[1]
			}
			return ""
		},
	},
	{
		ID:            "indeed",
		Hosts:         []string{"indeed.com"},
		SubmissionURL: []string{"/apply/confirmation"},
		SubmissionDOM: []string{".indeed-apply-confirmation", ".ia-JobApplicationSuccess"},
		ListingURL: func(u *url.URL) bool {
			return strings.TrimSuffix(u.Path, "/") == "/jobs" && u.RawQuery != ""
		},
		JobViewURL:     []string{"/viewjob", "/job/", "/jobs/"},
		Panels:         []string{".jobsearch-RightPane", "#jobsearch-ViewjobPaneWrapper"},
		Title:          []string{".jobsearch-JobInfoHeader-title", "h1.icl-u-xs-mb--xs"},
		Company:        []string{".jobsearch-InlineCompanyRating-companyName", ".icl-u-lg-mr--sm", "[data-company-name=true]"},
		Describe:       []string{"#jobDescriptionText"},
		DefaultCompany: "Indeed Job",
		KeywordParam:   "q",
		SearchLabel:    "Indeed Search",
		JobID:          func(u *url.URL) string { return u.Query().Get("jk") },
	},
	{
		ID:            "naukri",
		Hosts:         []string{"naukri.com"},
		SubmissionURL: []string{"/application-successful"},
		SubmissionDOM: []string{".successMsg", ".success-message"},
		ListingURL: func(u *url.URL) bool {
			p := strings.TrimSuffix(u.Path, "/")
			return strings.HasSuffix(p, "-jobs") && !strings.Contains(p, "/job-listings-")
		},
		JobViewURL:     []string{"/job-listings-", "/jobs/"},
		Title:          []string{".jd-header-title", "h1.jd-header-title"},
		Company:        []string{".jd-header-comp-name", ".comp-name"},
		Describe:       []string{".job-desc", ".dang-inner-html"},
		DefaultCompany: "Naukri Job",
		KeywordParam:   "k",
		SearchLabel:    "Naukri Search",
		JobID: func(u *url.URL) string {
			if m := naukriJobIDRe.FindStringSubmatch(u.Path); m != nil {
				return m[1]
			}
			return ""
		},
	},
}

// customSite builds the generic entry used for a user-configured pattern.
func customSite(pattern string) Site {
	return Site{
		ID:                 pattern,
		SubmissionURL:      []string{"/confirmation", "/thank-you", "/thankyou", "/application-submitted", "/applied"},
		SubmissionHeadings: true,
		JobViewURL:         []string{"/job", "/jobs", "/careers", "/positions", "/opening"},
		Title:              []string{"meta[property=og:title]", "h1"},
		Company:            []string{"meta[property=og:site_name]", "[itemprop=hiringOrganization]", ".company-name"},
		Describe:           []string{"[itemprop=description]", ".job-description", "#job-description"},
		DefaultCompany:     pattern,
		KeywordParam:       "keywords",
		SearchLabel:        pattern,
	}
}

// Builtin returns the IDs of the built-in sites.
func Builtin() []string {
	ids := make([]string, len(builtinSites))
	for i, s := range builtinSites {
		ids[i] = s.ID
	}
	return ids
}

// lookupSite finds the site for u. Built-in sites win over custom patterns.
func lookupSite(u *url.URL, custom []string) (Site, bool) {
	host := strings.ToLower(u.Hostname())
	for _, s := range builtinSites {
		for _, h := range s.Hosts {
			if strings.Contains(host, h) {
				return s, true
			}
		}
	}
	full := strings.ToLower(u.String())
	target := host + strings.ToLower(u.EscapedPath())
	for _, p := range custom {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		bare := stripScheme(p)
		if bare == "" {
			continue
		}
		if strings.Contains(full, p) || strings.Contains(target, bare) {
			return customSite(bare), true
		}
	}
	return Site{}, false
}

// stripScheme turns "https://careers.acme.com" into "careers.acme.com" so a
// pattern pasted as a URL matches the same pages as the bare host.
func stripScheme(p string) string {
	if _, rest, ok := strings.Cut(p, "://"); ok {
		return rest
	}
	return p
}

// siteByID returns the built-in site with id, or a custom site for it. Only
// used for classifications that did not come from Classify.
func siteByID(id string) Site {
	for _, s := range builtinSites {
		if s.ID == id {
			return s
		}
	}
	return customSite(id)
}

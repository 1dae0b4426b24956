// Package linkcheck finds broken links and anchors in rendered pages and
// applies the site's broken link policies to them.
package linkcheck

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Kind classifies a broken reference.
type Kind string

const (
	// KindLink is an internal link to a path no route or file serves.
	KindLink Kind = "link"
	// KindAnchor is a link whose #fragment names no element of the target page.
	KindAnchor Kind = "anchor"
	// KindMarkdown is a markdown file link that matches no document.
	KindMarkdown Kind = "markdown-link"
)

// Broken is one broken reference found on a page.
type Broken struct {
	Kind   Kind
	Source string
	Target string
}

func (b Broken) String() string {
	switch b.Kind {
	case KindAnchor:
		return fmt.Sprintf("broken anchor %q on %s", b.Target, b.Source)
	case KindMarkdown:
		return fmt.Sprintf("markdown link %q on %s matches no document", b.Target, b.Source)
	default:
		return fmt.Sprintf("broken link %q on %s", b.Target, b.Source)
	}
}

// BrokenLinkError is returned when broken references are found under the
// throw policy.
type BrokenLinkError struct {
	Broken []Broken
}

func (e *BrokenLinkError) Error() string {
	if len(e.Broken) == 1 {
		return e.Broken[0].String()
	}
	return fmt.Sprintf("%d broken links, first: %s", len(e.Broken), e.Broken[0])
}

// Category implements errors.Categorized.
func (e *BrokenLinkError) Category() errors.ErrorCategory { return errors.CategoryLink }

// Link is a reference extracted from an HTML page.
type Link struct {
	URL       string
	Tag       string
	Attribute string
}

// Index knows every path a build serves and the anchors of its HTML pages.
type Index struct {
	base    string
	paths   map[string]bool
	anchors map[string]map[string]bool
}

// NewIndex creates an index for a site served under baseURL.
func NewIndex(baseURL string) *Index {
	if baseURL == "" {
		baseURL = "/"
	}
	return &Index{
		base:    baseURL,
		paths:   make(map[string]bool),
		anchors: make(map[string]map[string]bool),
	}
}

// AddFile registers a path served without anchors (assets, static files).
// routePath is relative to the base URL.
func (ix *Index) AddFile(routePath string) {
	ix.paths[key(routePath)] = true
}

// AddPage registers an HTML page and collects the ids it defines.
func (ix *Index) AddPage(routePath string, body []byte) error {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse %s: %w", routePath, err)
	}
	ids := make(map[string]bool)
	walk(doc, func(n *html.Node) {
		if id := attr(n, "id"); id != "" {
			ids[id] = true
		}
		if n.Data == "a" {
			if name := attr(n, "name"); name != "" {
				ids[name] = true
			}
		}
	})
	k := key(routePath)
	ix.paths[k] = true
	ix.anchors[k] = ids
	return nil
}

// Check returns the broken links and anchors of one rendered page.
func (ix *Index) Check(routePath string, body []byte) ([]Broken, error) {
	links, err := ExtractLinks(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", routePath, err)
	}
	pageURL, err := url.Parse(ix.base + strings.TrimPrefix(routePath, "/"))
	if err != nil {
		return nil, fmt.Errorf("page url %s: %w", routePath, err)
	}

	seen := make(map[string]bool)
	var broken []Broken
	for _, l := range links {
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true

		ref, err := url.Parse(l.URL)
		if err != nil {
			broken = append(broken, Broken{Kind: KindLink, Source: routePath, Target: l.URL})
			continue
		}
		if ref.Scheme != "" || ref.Host != "" {
			continue
		}
		rel, ok := ix.relative(pageURL.ResolveReference(ref).Path)
		target := key(rel)
		if !ok || !ix.paths[target] {
			broken = append(broken, Broken{Kind: KindLink, Source: routePath, Target: l.URL})
			continue
		}
		if ref.Fragment == "" {
			continue
		}
		if ids, ok := ix.anchors[target]; ok && !ids[ref.Fragment] {
			broken = append(broken, Broken{Kind: KindAnchor, Source: routePath, Target: l.URL})
		}
	}
	return broken, nil
}

// relative strips the base URL from an absolute site path. It reports false
// for paths outside the base URL.
func (ix *Index) relative(p string) (string, bool) {
	if p == strings.TrimSuffix(ix.base, "/") {
		return "/", true
	}
	if !strings.HasPrefix(p, ix.base) {
		return "", false
	}
	return "/" + strings.TrimPrefix(p, ix.base), true
}

// ExtractLinks returns the href of every anchor element of an HTML page.
func ExtractLinks(body []byte) ([]Link, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var links []Link
	walk(doc, func(n *html.Node) {
		if n.Data != "a" {
			return
		}
		if href := attr(n, "href"); href != "" {
			links = append(links, Link{URL: href, Tag: "a", Attribute: "href"})
		}
	})
	return links, nil
}

// Policies are the site's broken reference policies per kind.
type Policies struct {
	Links    config.LinkPolicy
	Anchors  config.LinkPolicy
	Markdown config.LinkPolicy
}

// PoliciesFor returns the policies configured for a site.
func PoliciesFor(site *config.SiteConfig) Policies {
	return Policies{
		Links:    site.OnBrokenLinks,
		Anchors:  site.OnBrokenAnchors,
		Markdown: site.OnBrokenMarkdownLinks,
	}
}

func (p Policies) forKind(k Kind) config.LinkPolicy {
	switch k {
	case KindAnchor:
		return p.Anchors
	case KindMarkdown:
		return p.Markdown
	default:
		return p.Links
	}
}

// Apply sorts broken references by policy. Throw collects them into a
// *BrokenLinkError, warn logs them and returns them as warnings, ignore drops
// them.
func Apply(p Policies, broken []Broken, logger *slog.Logger) ([]Broken, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sort.SliceStable(broken, func(i, j int) bool {
		if broken[i].Source != broken[j].Source {
			return broken[i].Source < broken[j].Source
		}
		return broken[i].Target < broken[j].Target
	})

	var warnings, fatal []Broken
	for _, b := range broken {
		switch p.forKind(b.Kind) {
		case config.LinkPolicyIgnore:
		case config.LinkPolicyWarn:
			logger.Warn("Broken reference",
				logfields.Route(b.Source),
				slog.String("target", b.Target),
				slog.String("kind", string(b.Kind)))
			warnings = append(warnings, b)
		default:
			fatal = append(fatal, b)
		}
	}
	if len(fatal) > 0 {
		return warnings, &BrokenLinkError{Broken: fatal}
	}
	return warnings, nil
}

func key(routePath string) string {
	p := "/" + strings.TrimPrefix(routePath, "/")
	p = strings.TrimSuffix(p, "index.html")
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

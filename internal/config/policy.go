package config

import "git.home.luguber.info/inful/docsite/internal/foundation"

// LinkPolicy is the severity applied when content references a missing target.
type LinkPolicy string

const (
	LinkPolicyThrow  LinkPolicy = "throw"
	LinkPolicyWarn   LinkPolicy = "warn"
	LinkPolicyIgnore LinkPolicy = "ignore"
)

var linkPolicyNormalizer = foundation.NewNormalizer(map[string]LinkPolicy{
	"throw":  LinkPolicyThrow,
	"error":  LinkPolicyThrow,
	"warn":   LinkPolicyWarn,
	"ignore": LinkPolicyIgnore,
	"off":    LinkPolicyIgnore,
}, "")

// NormalizeLinkPolicy canonicalizes a raw policy string. Unknown values return "".
func NormalizeLinkPolicy(raw string) LinkPolicy {
	return linkPolicyNormalizer.Normalize(raw)
}

// NavbarKind discriminates navbar items.
type NavbarKind string

const (
	NavbarDocLink   NavbarKind = "doc-link"
	NavbarPageLink  NavbarKind = "page-link"
	NavbarSearchBox NavbarKind = "search-box"
)

// The short spellings are the ones used by Docusaurus configurations.
var navbarKindNormalizer = foundation.NewNormalizer(map[string]NavbarKind{
	"":           NavbarPageLink,
	"default":    NavbarPageLink,
	"link":       NavbarPageLink,
	"page-link":  NavbarPageLink,
	"doc":        NavbarDocLink,
	"doc-link":   NavbarDocLink,
	"search":     NavbarSearchBox,
	"search-box": NavbarSearchBox,
}, "")

// NormalizeNavbarKind canonicalizes a navbar item type. Unknown values return "".
func NormalizeNavbarKind(raw string) NavbarKind {
	return navbarKindNormalizer.Normalize(raw)
}

// Position places a navbar item on one side of the bar.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// FooterStyle selects the footer color scheme.
type FooterStyle string

const (
	FooterDark  FooterStyle = "dark"
	FooterLight FooterStyle = "light"
)

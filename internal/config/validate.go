package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// SchemaValidationError holds every violation found in one validation pass.
type SchemaValidationError struct {
	Violations []Violation
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("schema validation failed with %d violation(s): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Category classifies schema failures for exit code mapping.
func (e *SchemaValidationError) Category() errors.ErrorCategory {
	return errors.CategoryValidation
}

// Has reports whether a violation exists for field.
func (e *SchemaValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

var (
	validateOnce sync.Once
	structValid  *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return yamlName(f)
		})
		structValid = v
	})
	return structValid
}

// Validate checks a raw configuration document and decodes it into a typed,
// not yet defaulted SiteConfig. All violations are collected before returning.
func Validate(doc *yaml.Node) (*SiteConfig, error) {
	if doc == nil || doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, &SchemaValidationError{Violations: []Violation{{Message: "configuration document is empty"}}}
	}

	violations := checkNode(doc, reflect.TypeOf(SiteConfig{}), "")
	structural := len(violations)

	var cfg SiteConfig
	if err := doc.Decode(&cfg); err != nil {
		var te *yaml.TypeError
		if !stderrors.As(err, &te) {
			return nil, errors.WrapError(err, errors.CategoryConfig, "decode site config").Fatal().Build()
		}
		// The structural walk already reports these with field paths.
		if structural == 0 {
			for _, msg := range te.Errors {
				violations = append(violations, Violation{Message: msg})
			}
		}
	}

	violations = append(violations, tagViolations(&cfg)...)
	violations = append(violations, semanticViolations(&cfg)...)

	if len(violations) > 0 {
		return nil, &SchemaValidationError{Violations: dedupe(violations)}
	}
	return &cfg, nil
}

func tagViolations(cfg *SiteConfig) []Violation {
	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []Violation{{Message: err.Error()}}
	}

	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, Violation{
			Field:    field,
			Expected: expectation(fe),
			Actual:   fmt.Sprint(fe.Value()),
			Message:  tagMessage(fe),
		})
	}
	return out
}

func expectation(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be ≥ " + fe.Param()
	case "max":
		return "must be ≤ " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// semanticViolations covers the cross-field rules struct tags cannot express.
func semanticViolations(cfg *SiteConfig) []Violation {
	var out []Violation
	add := func(field, expected, actual, msg string) {
		out = append(out, Violation{Field: field, Expected: expected, Actual: actual, Message: msg})
	}

	if b := cfg.BaseURL; b != "" && (!strings.HasPrefix(b, "/") || !strings.HasSuffix(b, "/")) {
		add("baseUrl", "path beginning and ending with /", b, "must begin and end with /")
	}

	policies := []struct {
		field string
		value LinkPolicy
	}{
		{"onBrokenLinks", cfg.OnBrokenLinks},
		{"onBrokenAnchors", cfg.OnBrokenAnchors},
		{"onBrokenMarkdownLinks", cfg.OnBrokenMarkdownLinks},
	}
	for _, p := range policies {
		if p.value != "" && !linkPolicyNormalizer.IsValid(string(p.value)) {
			add(p.field, "throw|warn|ignore", string(p.value), "must be one of: throw, warn, ignore")
		}
	}

	seen := make(map[string]bool, len(cfg.I18n.Locales))
	for i, loc := range cfg.I18n.Locales {
		field := fmt.Sprintf("i18n.locales[%d]", i)
		if _, err := ParseLocale(loc); err != nil && loc != "" {
			add(field, "BCP 47 language tag", loc, "is not a valid language tag")
		}
		if seen[loc] {
			add(field, "unique locale", loc, "duplicate locale")
		}
		seen[loc] = true
	}
	if dl := cfg.I18n.DefaultLocale; dl != "" && len(cfg.I18n.Locales) > 0 && !seen[dl] {
		add("i18n.defaultLocale", "member of i18n.locales", dl, "must be one of i18n.locales")
	}
	for loc := range cfg.I18n.LocaleConfigs {
		if len(cfg.I18n.Locales) > 0 && !seen[loc] {
			add("i18n.localeConfigs["+loc+"]", "member of i18n.locales", loc, "configures a locale that is not built")
		}
	}

	toc := cfg.ThemeConfig.TableOfContents
	minLevel, maxLevel := toc.MinHeadingLevel, toc.MaxHeadingLevel
	if minLevel == 0 {
		minLevel = DefaultMinHeadingLevel
	}
	if maxLevel == 0 {
		maxLevel = DefaultMaxHeadingLevel
	}
	if minLevel > maxLevel {
		add("themeConfig.tableOfContents", "minHeadingLevel ≤ maxHeadingLevel",
			fmt.Sprintf("%d > %d", minLevel, maxLevel), "min must be ≤ max")
	}

	for i, item := range cfg.ThemeConfig.Navbar.Items {
		out = append(out, navbarItemViolations(fmt.Sprintf("themeConfig.navbar.items[%d]", i), item)...)
	}

	for g, group := range cfg.ThemeConfig.Footer.Links {
		for i, link := range group.Items {
			if (link.To == "") == (link.Href == "") {
				add(fmt.Sprintf("themeConfig.footer.links[%d].items[%d]", g, i), "exactly one of to, href",
					link.To+link.Href, "footer link needs exactly one of to or href")
			}
		}
	}

	return out
}

func navbarItemViolations(path string, item NavbarItem) []Violation {
	kind := NormalizeNavbarKind(string(item.Type))
	switch kind {
	case NavbarDocLink:
		if item.DocID == "" {
			return []Violation{{Field: path + ".docId", Expected: "document id", Message: "is required for doc-link items"}}
		}
	case NavbarPageLink:
		if item.To == "" && item.Href == "" {
			return []Violation{{Field: path + ".to", Expected: "route or URL", Message: "page-link items need to or href"}}
		}
		if item.To != "" && item.Href != "" {
			return []Violation{{Field: path + ".to", Expected: "exactly one of to, href", Actual: item.To, Message: "page-link items cannot set both to and href"}}
		}
	case NavbarSearchBox:
	default:
		return []Violation{{
			Field:    path + ".type",
			Expected: "doc-link|page-link|search-box",
			Actual:   string(item.Type),
			Message:  "unknown navbar item type",
		}}
	}
	return nil
}

func dedupe(in []Violation) []Violation {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		key := v.Field + "\x00" + v.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

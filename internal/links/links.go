// Package links resolves internal link paths against the base path a site is
// deployed under.
package links

import "strings"

// Normalize resolves href against basePath, which carries no trailing slash.
// The first matching rule wins:
//
//   - href starting with "http", "mailto" or "#" is returned unchanged
//   - an empty basePath (site at the domain root) leaves href unchanged
//   - "/" resolves to basePath
//   - href not starting with "/" is treated as relative and left unchanged
//   - any other href is prefixed with basePath
//
// The last rule never checks whether href already begins with basePath: a
// collection named like the base segment ("/blog/post" under "/blog") is a
// site-root path and becomes "/blog/blog/post".
func Normalize(href, basePath string) string {
	out, _ := Resolve(href, basePath)
	return out
}

// Rule names the normalization rule that decided an href.
type Rule int

const (
	RuleExternal Rule = iota
	RuleRootDeployment
	RuleSiteRoot
	RuleRelative
	RulePrefixed
)

func (r Rule) String() string {
	switch r {
	case RuleExternal:
		return "external"
	case RuleRootDeployment:
		return "root-deployment"
	case RuleSiteRoot:
		return "site-root"
	case RuleRelative:
		return "relative"
	case RulePrefixed:
		return "prefixed"
	default:
		return "unknown"
	}
}

// Resolve is Normalize that also reports which rule applied.
func Resolve(href, basePath string) (string, Rule) {
	switch {
	case strings.HasPrefix(href, "http"), strings.HasPrefix(href, "mailto"), strings.HasPrefix(href, "#"):
		return href, RuleExternal
	case basePath == "":
		return href, RuleRootDeployment
	case href == "/":
		return basePath, RuleSiteRoot
	case !strings.HasPrefix(href, "/"):
		return href, RuleRelative
	default:
		return basePath + href, RulePrefixed
	}
}

// TrimBase turns a configured base URL into a base path usable by Normalize
// by dropping one trailing slash, so "/" becomes "" and "/blog/" becomes "/blog".
func TrimBase(raw string) string {
	return strings.TrimSuffix(raw, "/")
}

// Normalizer binds Normalize to a fixed base path.
type Normalizer struct {
	BasePath string
}

// NewNormalizer creates a Normalizer from a raw base URL such as "/blog/".
func NewNormalizer(baseURL string) Normalizer {
	return Normalizer{BasePath: TrimBase(baseURL)}
}

// Normalize resolves href against the bound base path.
func (n Normalizer) Normalize(href string) string {
	return Normalize(href, n.BasePath)
}

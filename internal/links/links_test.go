package links

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		basePath string
		want     string
	}{
		{name: "https external", href: "https://example.com/x", basePath: "/blog", want: "https://example.com/x"},
		{name: "http external", href: "http://example.com", basePath: "/blog", want: "http://example.com"},
		{name: "mailto", href: "mailto:me@example.com", basePath: "/blog", want: "mailto:me@example.com"},
		{name: "fragment", href: "#intro", basePath: "/blog", want: "#intro"},
		{name: "root deployment", href: "/about", basePath: "", want: "/about"},
		{name: "root deployment slash", href: "/", basePath: "", want: "/"},
		{name: "site root", href: "/", basePath: "/blog", want: "/blog"},
		{name: "relative", href: "about", basePath: "/blog", want: "about"},
		{name: "dot relative", href: "./about", basePath: "/blog", want: "./about"},
		{name: "empty href", href: "", basePath: "/blog", want: ""},
		{name: "absolute", href: "/about", basePath: "/blog", want: "/blog/about"},
		{name: "collection sharing base segment", href: "/blog/post-1", basePath: "/blog", want: "/blog/blog/post-1"},
		{name: "nested base", href: "/tags/go", basePath: "/sites/blog", want: "/sites/blog/tags/go"},
		{name: "http-like relative path", href: "httpbin/page", basePath: "/blog", want: "httpbin/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.href, tt.basePath); got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.href, tt.basePath, got, tt.want)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	for range 3 {
		if got := Normalize("/blog/post-1", "/blog"); got != "/blog/blog/post-1" {
			t.Fatalf("Normalize() = %q, want %q", got, "/blog/blog/post-1")
		}
	}
}

func TestTrimBase(t *testing.T) {
	tests := map[string]string{
		"/":      "",
		"":       "",
		"/blog/": "/blog",
		"/blog":  "/blog",
	}
	for in, want := range tests {
		if got := TrimBase(in); got != want {
			t.Errorf("TrimBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizer(t *testing.T) {
	n := NewNormalizer("/blog/")
	if n.BasePath != "/blog" {
		t.Fatalf("BasePath = %q, want %q", n.BasePath, "/blog")
	}
	if got := n.Normalize("/"); got != "/blog" {
		t.Errorf("Normalize(/) = %q, want /blog", got)
	}

	root := NewNormalizer("/")
	if got := root.Normalize("/about"); got != "/about" {
		t.Errorf("root Normalize(/about) = %q, want /about", got)
	}
}

func TestResolveRule(t *testing.T) {
	tests := []struct {
		href, basePath string
		want           Rule
	}{
		{href: "mailto:x@y.z", basePath: "", want: RuleExternal},
		{href: "/about", basePath: "", want: RuleRootDeployment},
		{href: "/", basePath: "/blog", want: RuleSiteRoot},
		{href: "about", basePath: "/blog", want: RuleRelative},
		{href: "/blog/x", basePath: "/blog", want: RulePrefixed},
	}
	for _, tt := range tests {
		if _, got := Resolve(tt.href, tt.basePath); got != tt.want {
			t.Errorf("Resolve(%q, %q) rule = %v, want %v", tt.href, tt.basePath, got, tt.want)
		}
	}
	if got := Rule(99).String(); got != "unknown" {
		t.Errorf("Rule(99).String() = %q, want unknown", got)
	}
}

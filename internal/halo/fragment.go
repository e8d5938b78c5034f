package halo

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Props are the inputs of the image component.
type Props struct {
	Source     string
	AltText    string
	StyleClass string
}

const (
	containerClass = "group relative"
	layerClass     = "absolute inset-0 -z-10 rounded-xl opacity-40 blur-3xl transition-colors duration-1000"
	imageClass     = "relative z-10 h-auto w-full rounded-xl shadow-md"
	panelClass     = "mt-4 flex flex-col gap-2 rounded-lg border border-white/20 bg-white/50 p-4 shadow-sm backdrop-blur-sm transition-all duration-1000 dark:bg-black/20"
	swatchClass    = "h-3 w-3 rounded-full shadow-sm ring-1 ring-white/50"
	codeClass      = "bg-muted rounded px-1 py-0.5"

	// PanelTitle heads the info panel.
	PanelTitle = "Image Palette Analysis"
)

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendChildren(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

func joinClass(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Fragment builds the component tree: the halo layer, the image and, when
// h.ShowInfoPanel is set, the info panel showing the hex colour as text.
func Fragment(p Props, h Halo) *html.Node {
	background := h.Color
	if background == "" {
		background = "transparent"
	}

	root := element(atom.Div,
		"class", joinClass(containerClass, p.StyleClass, "mb-8"),
		"data-halo", fmt.Sprintf("%t", h.Visible()),
	)

	layer := element(atom.Div,
		"class", layerClass,
		"style", fmt.Sprintf("background-color: %s; transform: scale(1.05);", background),
		"aria-hidden", "true",
	)

	// Pixel access for sampling needs an anonymous CORS request.
	img := element(atom.Img,
		"src", p.Source,
		"alt", p.AltText,
		"class", imageClass,
		"crossorigin", "anonymous",
		"loading", "lazy",
	)

	appendChildren(root, layer, img)

	if h.ShowInfoPanel {
		root.AppendChild(infoPanel(h))
	}
	return root
}

func infoPanel(h Halo) *html.Node {
	panel := element(atom.Div,
		"class", panelClass,
		"style", fmt.Sprintf("border-left: 4px solid %s;", h.InfoPanelAccent),
		"data-dark", fmt.Sprintf("%t", h.IsDark),
	)

	heading := appendChildren(element(atom.Div, "class", "flex items-center gap-2"),
		element(atom.Div, "class", swatchClass, "style", fmt.Sprintf("background-color: %s;", h.InfoPanelAccent)),
		appendChildren(element(atom.Span, "class", "text-sm font-medium"), text(PanelTitle)),
	)

	description := appendChildren(element(atom.P, "class", "text-muted-foreground text-xs"),
		text("Extracted dominant color: "),
		appendChildren(element(atom.Code, "class", codeClass), text(h.Color)),
		text(". This gradient is dynamically generated from the image content."),
	)

	return appendChildren(panel, heading, description)
}

// RenderHTML writes the component for p and h to w.
func RenderHTML(w io.Writer, p Props, h Halo) error {
	if err := html.Render(w, Fragment(p, h)); err != nil {
		return fmt.Errorf("failed to render component: %w", err)
	}
	return nil
}

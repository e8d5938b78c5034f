package links

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteHTML passes the href of every <a> element in content through
// Normalize. Full documents and fragments are both accepted; fragments are
// rendered back without an <html><body> wrapper.
func RewriteHTML(content, basePath string) (string, error) {
	return Normalizer{BasePath: basePath}.RewriteHTML(content)
}

// RewriteHTML rewrites every <a href> in content against n.BasePath.
func (n Normalizer) RewriteHTML(content string) (string, error) {
	if n.BasePath == "" {
		return content, nil
	}

	doc, isFragment, err := parseHTML(content)
	if err != nil {
		return "", err
	}

	n.rewriteNode(doc)

	return renderHTML(doc, isFragment)
}

func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (n Normalizer) rewriteNode(node *html.Node) {
	if node.Type == html.ElementNode && node.DataAtom == atom.A {
		for i, attr := range node.Attr {
			if attr.Namespace == "" && attr.Key == "href" {
				node.Attr[i].Val = n.Normalize(attr.Val)
			}
		}
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		n.rewriteNode(c)
	}
}

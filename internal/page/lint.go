package page

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/net/html"
)

// Lint reports problems in a shell that would break asset resolution or
// config injection. It never fails hard; the messages are warnings.
func Lint(doc []byte, assets []string) []string {
	var warnings []string

	if indexFold(doc, "</head>") < 0 {
		warnings = append(warnings, "shell has no </head>; config script will be appended to the end")
	}

	seen := make(map[string]string, len(assets))
	for _, a := range assets {
		p := Placeholder(a)
		if prev, dup := seen[p]; dup {
			warnings = append(warnings, fmt.Sprintf("assets %q and %q share placeholder %q", prev, a, p))
			continue
		}
		seen[p] = a
	}

	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return append(warnings, fmt.Sprintf("shell does not parse: %v", err))
	}
	refs := make(map[string]bool)
	collectRefs(root, refs)

	for _, a := range assets {
		if !refs[Placeholder(a)] {
			warnings = append(warnings, fmt.Sprintf("asset %q is not referenced by a script or link tag", a))
		}
	}
	return warnings
}

func collectRefs(n *html.Node, refs map[string]bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script":
			if v := getAttr(n, "src"); v != "" {
				refs[strings.TrimSpace(v)] = true
			}
		case "link":
			if v := getAttr(n, "href"); v != "" {
				refs[strings.TrimSpace(v)] = true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectRefs(c, refs)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// LintAll lints every feature's shell, prefixing warnings with the slug.
func (r *Renderer) LintAll() []string {
	var warnings []string
	for _, f := range r.cfg.Features {
		shell, err := fs.ReadFile(r.assets, f.Shell)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: shell %q: %v", f.Slug, f.Shell, err))
			continue
		}
		for _, w := range Lint(shell, f.Assets) {
			warnings = append(warnings, f.Slug+": "+w)
		}
		for _, a := range f.Assets {
			if _, err := fs.Stat(r.assets, a); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: asset %q: %v", f.Slug, a, err))
			}
		}
	}
	return warnings
}

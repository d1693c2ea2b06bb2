// Package icons renders the inline SVG icons used by the storefront templates.
package icons

import (
	"html/template"
	"sort"
	"strings"

	g "maragu.dev/gomponents"
)

type shape func() []g.Node

func path(d string) g.Node { return g.El("path", g.Attr("d", d)) }

func line(x1, y1, x2, y2 string) g.Node {
	return g.El("line", g.Attr("x1", x1), g.Attr("y1", y1), g.Attr("x2", x2), g.Attr("y2", y2))
}

var shapes = map[string]shape{
	"shirt": func() []g.Node {
		return []g.Node{path("M20.38 3.46 16 2a4 4 0 0 1-8 0L3.62 3.46a2 2 0 0 0-1.34 2.23l.58 3.47a1 1 0 0 0 .99.84H6v10c0 1.1.9 2 2 2h8a2 2 0 0 0 2-2V10h2.15a1 1 0 0 0 .99-.84l.58-3.47a2 2 0 0 0-1.34-2.23z")}
	},
	"menu": func() []g.Node {
		return []g.Node{line("4", "6", "20", "6"), line("4", "12", "20", "12"), line("4", "18", "20", "18")}
	},
	"x": func() []g.Node {
		return []g.Node{path("M18 6 6 18"), path("m6 6 12 12")}
	},
	"star": func() []g.Node {
		return []g.Node{g.El("polygon", g.Attr("points", "12 2 15.09 8.26 22 9.27 17 14.14 18.18 21.02 12 17.77 5.82 21.02 7 14.14 2 9.27 8.91 8.26 12 2"))}
	},
	"phone": func() []g.Node {
		return []g.Node{path("M22 16.92v3a2 2 0 0 1-2.18 2 19.79 19.79 0 0 1-8.63-3.07 19.5 19.5 0 0 1-6-6 19.79 19.79 0 0 1-3.07-8.67A2 2 0 0 1 4.11 2h3a2 2 0 0 1 2 1.72 12.84 12.84 0 0 0 .7 2.81 2 2 0 0 1-.45 2.11L8.09 9.91a16 16 0 0 0 6 6l1.27-1.27a2 2 0 0 1 2.11-.45 12.84 12.84 0 0 0 2.81.7A2 2 0 0 1 22 16.92z")}
	},
	"mail": func() []g.Node {
		return []g.Node{
			g.El("rect", g.Attr("width", "20"), g.Attr("height", "16"), g.Attr("x", "2"), g.Attr("y", "4"), g.Attr("rx", "2")),
			path("m22 7-8.97 5.7a1.94 1.94 0 0 1-2.06 0L2 7"),
		}
	},
	"map-pin": func() []g.Node {
		return []g.Node{
			path("M20 10c0 6-8 12-8 12s-8-6-8-12a8 8 0 0 1 16 0Z"),
			g.El("circle", g.Attr("cx", "12"), g.Attr("cy", "10"), g.Attr("r", "3")),
		}
	},
}

// Names lists the known icon names, sorted.
func Names() []string {
	out := make([]string, 0, len(shapes))
	for name := range shapes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Node builds the SVG element for name, or nil when the name is unknown.
func Node(name, class string) g.Node {
	s, ok := shapes[name]
	if !ok {
		return nil
	}
	children := []g.Node{
		g.Attr("xmlns", "http://www.w3.org/2000/svg"),
		g.Attr("viewBox", "0 0 24 24"),
		g.Attr("fill", "none"),
		g.Attr("stroke", "currentColor"),
		g.Attr("stroke-width", "2"),
		g.Attr("stroke-linecap", "round"),
		g.Attr("stroke-linejoin", "round"),
		g.Attr("aria-hidden", "true"),
	}
	if class = strings.TrimSpace(class); class != "" {
		children = append(children, g.Attr("class", class))
	}
	children = append(children, s()...)
	return g.El("svg", children...)
}

// HTML renders the icon for use in html/template. Unknown names render nothing.
func HTML(name, class string) template.HTML {
	n := Node(name, class)
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := n.Render(&b); err != nil {
		return ""
	}
	return template.HTML(b.String())
}

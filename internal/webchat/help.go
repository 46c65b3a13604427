// ABOUTME: Help page rendered from embedded markdown at request time

package webchat

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
)

const helpShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>parley help</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
       max-width: 42rem; margin: 2rem auto; padding: 0 1rem;
       color: #1a1a2e; line-height: 1.6; }
h1, h2 { color: #16213e; }
code { background: #f0f0f5; padding: 0.1rem 0.3rem; border-radius: 3px; }
pre { background: #f0f0f5; padding: 0.8rem; border-radius: 6px; overflow-x: auto; }
a { color: #0f3460; }
</style>
</head>
<body>
{{.Content}}
<p><a href="/">&larr; back to chat</a></p>
</body>
</html>
`

var helpTemplate = template.Must(template.New("help").Parse(helpShell))

// handleHelp handles GET /help, converting the embedded guide to HTML.
func (c *Channel) handleHelp(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := goldmark.Convert(helpDoc, &buf); err != nil {
		c.logger.Error("failed to render help content", "error", err)
		buf.Reset()
		buf.WriteString("<p>Failed to render help content.</p>")
	}

	data := struct {
		Content template.HTML
	}{
		Content: template.HTML(buf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := helpTemplate.Execute(w, data); err != nil {
		c.logger.Error("failed to render help page", "error", err)
	}
}

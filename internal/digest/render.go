package digest

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"SignalsDigest/internal/domain"
)

const markdownTemplate = `# {{inline .Title}} — {{inline .Period}}

## Top Lines
{{range .TopLines}}- {{inline .}}
{{end}}
{{- range .Sections}}
## {{inline .Name}}
{{if not .Items}}
{{placeholder}}
{{end}}
{{- range .Items}}
### {{inline .Headline}}
- **Section:** {{inline .Section}}
- **Published:** {{published .Published}}
- **Summary:** {{inline .Summary}}
- **Why it matters:** {{inline .WhyItMatters}}
- **Signals to watch:** {{list .SignalsToWatch "; "}}
- **Sources:** {{list .Sources ", "}}
{{- if .Notes}}
- **Notes:** {{list .Notes "; "}}
{{- end}}
{{end}}
{{- end}}
## Sources
{{range .Sources}}- {{inline .}}
{{else}}- none
{{end}}`

var markdown = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inline":      inline,
	"list":        list,
	"published":   published,
	"placeholder": func() string { return domain.NoItemsInRange },
}).Parse(markdownTemplate))

// Render produces the Markdown body of doc.
func Render(doc domain.DigestDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render digest %s: %w", doc.Kind, err)
	}
	return buf.Bytes(), nil
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// inline keeps a value verbatim apart from collapsing line breaks.
func inline(s string) string {
	return strings.TrimSpace(newlines.Replace(s))
}

func list(values []string, sep string) string {
	var parts []string
	for _, v := range values {
		if v = inline(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, sep)
}

func published(s string) string {
	if s = inline(s); s == "" {
		return "undated"
	}
	return s
}

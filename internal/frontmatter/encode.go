package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is one key of a front matter block. Fields are written in the order given.
//
// Value may be a string, any integer type, or a []string which is written as a
// bullet list. A nil Value or an empty list omits the key.
type Field struct {
	Key   string
	Value any
}

// Encode renders fields as a delimited front matter block, including the trailing newline.
func Encode(fields []Field) string {
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	for _, f := range fields {
		switch v := f.Value.(type) {
		case nil:
			continue
		case []string:
			if len(v) == 0 {
				continue
			}
			b.WriteString(f.Key + ":\n")
			for _, item := range v {
				b.WriteString("  - " + Scalar(item) + "\n")
			}
		case string:
			b.WriteString(f.Key + ": " + Scalar(v) + "\n")
		default:
			b.WriteString(fmt.Sprintf("%s: %v\n", f.Key, v))
		}
	}
	b.WriteString(Delimiter + "\n")
	return b.String()
}

// Scalar renders s as a YAML value that decodes back to the same string.
// Plain text is kept unquoted; anything YAML would read differently is quoted.
func Scalar(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ")), " ")
	if s == "" {
		return `""`
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte("v: "+s), &doc); err == nil && plain(&doc, s) {
		return s
	}

	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return strings.TrimSuffix(string(out), "\n")
}

// plain reports whether doc is the mapping {v: s} with s read back verbatim as
// text. Timestamps count as text since Parse keeps them in their source form.
func plain(doc *yaml.Node, s string) bool {
	if len(doc.Content) != 1 {
		return false
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode || len(m.Content) != 2 {
		return false
	}
	v := m.Content[1]
	if v.Kind != yaml.ScalarNode || v.Style != 0 || v.Value != s {
		return false
	}
	tag := v.ShortTag()
	return tag == strTag || tag == timestampTag
}

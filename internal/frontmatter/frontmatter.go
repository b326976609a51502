// Package frontmatter reads and writes the YAML block at the top of a markdown note.
//
// A note starts with a line containing only "---", followed by a YAML mapping,
// followed by another "---" line. Everything after the closing delimiter is the body.
package frontmatter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the front matter block.
const Delimiter = "---"

const (
	strTag       = "!!str"
	timestampTag = "!!timestamp"
)

// TimestampKey holds the epoch-millisecond update time of the remote item.
const TimestampKey = "timestamp"

var (
	// ErrMalformed is returned when a note's front matter cannot be trusted.
	ErrMalformed = errors.New("malformed front matter")

	// ErrNoFrontMatter is returned when a note has no front matter block at all.
	// It wraps ErrMalformed.
	ErrNoFrontMatter = fmt.Errorf("%w: no front matter block", ErrMalformed)
)

// Fields is a parsed front matter mapping.
type Fields map[string]any

// Split separates the front matter block from the body.
// The returned block excludes both delimiters.
func Split(content string) (block, body string, err error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	lines := strings.Split(content, "\n")
	if strings.TrimSpace(lines[0]) != Delimiter {
		return "", "", ErrNoFrontMatter
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == Delimiter {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", fmt.Errorf("%w: missing closing %q", ErrMalformed, Delimiter)
}

// Parse extracts and decodes the front matter of a note.
// It rejects notes without a block, blocks that are not a YAML mapping,
// and empty blocks.
func Parse(content string) (Fields, error) {
	block, _, err := Split(content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(block) == "" {
		return nil, fmt.Errorf("%w: empty block", ErrMalformed)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: not a mapping", ErrMalformed)
	}

	v, err := decode(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	fields := Fields(v.(map[string]any))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: not a mapping", ErrMalformed)
	}
	return fields, nil
}

// decode turns a node into plain Go values. Timestamp scalars are kept as
// their source text so that created_at and updated_at read back as written.
func decode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := decode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.ScalarNode:
		if n.ShortTag() == timestampTag {
			return n.Value, nil
		}
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// String returns a field rendered as text, or "" when absent.
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Timestamp returns the integer timestamp field.
func (f Fields) Timestamp() (int64, error) {
	v, ok := f[TimestampKey]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, TimestampKey)
	}

	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s out of range", ErrMalformed, TimestampKey)
		}
		return int64(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformed, TimestampKey)
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformed, TimestampKey)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrMalformed, TimestampKey, v)
	}
}

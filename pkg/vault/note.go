// Package vault emits converted notes as Markdown files with YAML
// frontmatter, handling destination layout, filename collisions and dry-run.
package vault

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tilth/pkg/core"
	"github.com/aretw0/tilth/pkg/meta"
)

// Serialize renders a note as frontmatter + body. Field order is fixed
// (title, created, source, tags) and the title is always double-quoted, so
// identical notes serialize to identical bytes.
func Serialize(n core.Note) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	appendField(doc, "title", &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.DoubleQuotedStyle,
		Value: n.Meta.Title,
	})
	appendField(doc, "created", scalar(meta.Created(n.Meta.Created)))
	appendField(doc, "source", scalar(n.Meta.Source))

	tags := &yaml.Node{Kind: yaml.SequenceNode}
	for _, t := range n.Meta.Tags {
		tags.Content = append(tags.Content, scalar(t))
	}
	appendField(doc, "tags", tags)

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to serialize frontmatter: %w", err)
	}
	encoder.Close()
	buf.WriteString("---\n\n")
	buf.WriteString(n.Body)
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func appendField(doc *yaml.Node, key string, value *yaml.Node) {
	doc.Content = append(doc.Content, scalar(key), value)
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

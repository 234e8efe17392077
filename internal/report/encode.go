package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Encode writes rep to w in the named format.
func Encode(w io.Writer, rep Report, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML, "yml":
		data, err := ToYAML(rep)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatText:
		_, err := io.WriteString(w, RenderText(rep))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// ToYAML encodes v as block-style YAML using its JSON field names and order.
// JSON is a subset of YAML, so the JSON encoding is parsed into a node tree
// and re-emitted without the flow styling.
func ToYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	clearStyle(&node)
	return yaml.Marshal(&node)
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

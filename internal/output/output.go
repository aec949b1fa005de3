// Package output renders built codemap trees into textual formats.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"wikimap/internal/types"
	"wikimap/internal/utils"
)

const (
	rawTreeHeaderFormat = "--- Repository Tree: %s ---\n"
	rawFileSuffixFormat = " (%s)"

	connectorMiddle    = "├── "
	connectorLast      = "└── "
	continuationPrefix = "│   "
	terminalPrefix     = "    "
)

// RenderTreeJSON marshals the tree into indented JSON.
func RenderTreeJSON(root *types.Node) (string, error) {
	jsonData, marshalError := json.MarshalIndent(root, "", "  ")
	if marshalError != nil {
		return "", fmt.Errorf("marshal tree to JSON: %w", marshalError)
	}
	return string(jsonData), nil
}

// RenderTreeRaw renders the full tree, files included, using ASCII branch
// connectors. File entries carry a human-readable size suffix.
func RenderTreeRaw(root *types.Node) string {
	var rendered strings.Builder
	fmt.Fprintf(&rendered, rawTreeHeaderFormat, root.Name)
	appendRawChildren(&rendered, root, "")
	return rendered.String()
}

func appendRawChildren(rendered *strings.Builder, node *types.Node, prefix string) {
	lastIndex := len(node.Children) - 1
	for childIndex, child := range node.Children {
		connector := connectorMiddle
		childPrefix := prefix + continuationPrefix
		if childIndex == lastIndex {
			connector = connectorLast
			childPrefix = prefix + terminalPrefix
		}
		rendered.WriteString(prefix)
		rendered.WriteString(connector)
		rendered.WriteString(child.Name)
		if !child.IsDirectory() {
			fmt.Fprintf(rendered, rawFileSuffixFormat, utils.FormatFileSize(child.SizeBytes))
		}
		rendered.WriteByte('\n')
		if child.IsDirectory() {
			appendRawChildren(rendered, child, childPrefix)
		}
	}
}

package codemap

import (
	"fmt"
	"strings"

	"wikimap/internal/types"
)

const (
	// mindmapHeader declares the Mermaid diagram notation.
	mindmapHeader = "mindmap"
	// mindmapRootFormat renders the central element of the diagram.
	mindmapRootFormat = "  root((%s))"
	// mindmapIndentUnit is one level of nesting in Mermaid mindmap notation.
	mindmapIndentUnit = "    "
	// maxMindmapDepth bounds the rendered hierarchy to keep diagrams readable;
	// deeper subtrees are silently omitted.
	maxMindmapDepth = 3
)

// RenderMindmap renders the directory hierarchy of the tree as a Mermaid
// mindmap. Only directory nodes appear; the diagram communicates repository
// shape, not full contents. Rendering is a pure transformation and never fails.
func RenderMindmap(root *types.Node) string {
	var diagram strings.Builder
	diagram.WriteString(mindmapHeader)
	diagram.WriteByte('\n')
	fmt.Fprintf(&diagram, mindmapRootFormat, root.Name)
	diagram.WriteByte('\n')
	appendMindmapChildren(&diagram, root, 1)
	return diagram.String()
}

// appendMindmapChildren emits one indented line per directory child of node
// at the given depth, then recurses. Depth counts levels below the root.
func appendMindmapChildren(diagram *strings.Builder, node *types.Node, depth int) {
	if depth > maxMindmapDepth {
		return
	}
	for _, child := range node.Children {
		if !child.IsDirectory() {
			continue
		}
		diagram.WriteString(strings.Repeat(mindmapIndentUnit, depth))
		diagram.WriteString(child.Name)
		diagram.WriteByte('\n')
		appendMindmapChildren(diagram, child, depth+1)
	}
}

// Package types defines every cross-package data structure used by the wikimap CLI.
package types

const (
	NodeKindFile      = "file"
	NodeKindDirectory = "directory"

	ToolCodemap   = "codemap"
	ToolListWikis = "list_wikis"
	ToolQueryWiki = "query_wiki"

	FormatJSON    = "json"
	FormatMindmap = "mindmap"
	FormatRaw     = "raw"
)

// Node represents one filesystem entry inside a scanned repository subtree.
// Kind is fixed at construction. Children is ordered and owned exclusively
// by the parent node; it is empty for files and for directories without
// admissible entries.
type Node struct {
	Name         string  `json:"name"`
	RelativePath string  `json:"path"`
	Kind         string  `json:"type"`
	SizeBytes    int64   `json:"size"`
	Tokens       int     `json:"tokens,omitempty"`
	Children     []*Node `json:"children,omitempty"`
}

// IsDirectory reports whether the node represents a directory entry.
func (node *Node) IsDirectory() bool {
	return node.Kind == NodeKindDirectory
}

// Package codemap builds and renders repository structure summaries.
package codemap

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"wikimap/internal/tokenizer"
	"wikimap/internal/types"
	"wikimap/internal/utils"
)

const (
	// rootFallbackName labels the root node when the scanned path has no usable basename.
	rootFallbackName = "root"
	// hiddenNamePrefix marks entries excluded as hidden files or directories.
	hiddenNamePrefix = "."
	// maxTraversalDepth bounds recursion so that pathological directory depth
	// (symlink cycles included) cannot exhaust the stack.
	maxTraversalDepth = 64

	warningPermissionDenied = "permission denied accessing directory"
	warningReadDirectory    = "error scanning directory"
	warningStatEntry        = "unable to stat entry"
	warningTokenCount       = "failed to count tokens"
	warningMaxDepthExceeded = "maximum traversal depth reached"
	logFieldPath            = "path"
)

// excludedDirectoryNames is the fixed set of well-known generated, dependency,
// and build output directories that never appear in a codemap.
var excludedDirectoryNames = map[string]struct{}{
	"__pycache__":  {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"venv":         {},
	"env":          {},
}

// Builder constructs Node trees from a repository directory.
// The zero value is not usable; create instances with NewBuilder.
type Builder struct {
	logger       *zap.Logger
	tokenCounter tokenizer.Counter
}

// NewBuilder returns a Builder that reports traversal warnings through logger.
// A nil logger suppresses all traversal diagnostics.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// WithTokenCounter enables per-file token estimation on built trees.
func (builder *Builder) WithTokenCounter(counter tokenizer.Counter) *Builder {
	builder.tokenCounter = counter
	return builder
}

// Build scans rootPath and returns the complete structure tree rooted there.
// rootPath may be absolute or relative to the working directory. The caller
// is responsible for rootPath referencing an existing directory; enumeration
// failures below the root degrade into partially built nodes and are never
// returned as errors.
func (builder *Builder) Build(rootPath string) *types.Node {
	resolvedRoot, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		resolvedRoot = filepath.Clean(rootPath)
	}
	return builder.buildDirectoryNode(resolvedRoot, resolvedRoot, 0)
}

// buildDirectoryNode recursively constructs the node for currentPath, with
// every relative path computed against rootPath.
func (builder *Builder) buildDirectoryNode(currentPath string, rootPath string, depth int) *types.Node {
	node := &types.Node{
		Name:         directoryDisplayName(currentPath, rootPath),
		RelativePath: utils.RelativePathOrSelf(currentPath, rootPath),
		Kind:         types.NodeKindDirectory,
	}

	if depth >= maxTraversalDepth {
		builder.logger.Warn(warningMaxDepthExceeded, zap.String(logFieldPath, currentPath))
		return node
	}

	directoryEntries, readDirectoryError := os.ReadDir(currentPath)
	if readDirectoryError != nil {
		if errors.Is(readDirectoryError, fs.ErrPermission) {
			builder.logger.Warn(warningPermissionDenied, zap.String(logFieldPath, currentPath))
		} else {
			builder.logger.Error(warningReadDirectory, zap.String(logFieldPath, currentPath), zap.Error(readDirectoryError))
		}
		return node
	}

	admissibleEntries := filterEntries(directoryEntries)
	sortEntries(admissibleEntries)

	for _, directoryEntry := range admissibleEntries {
		childPath := filepath.Join(currentPath, directoryEntry.Name())
		if directoryEntry.IsDir() {
			childNode := builder.buildDirectoryNode(childPath, rootPath, depth+1)
			node.Children = append(node.Children, childNode)
			continue
		}
		node.Children = append(node.Children, builder.buildFileNode(directoryEntry, childPath, rootPath))
	}

	return node
}

// buildFileNode constructs a leaf node for a file entry. Stat failures
// default the size to zero.
func (builder *Builder) buildFileNode(directoryEntry os.DirEntry, filePath string, rootPath string) *types.Node {
	var fileSize int64
	entryInfo, infoError := directoryEntry.Info()
	if infoError != nil {
		builder.logger.Warn(warningStatEntry, zap.String(logFieldPath, filePath), zap.Error(infoError))
	} else {
		fileSize = entryInfo.Size()
	}

	fileNode := &types.Node{
		Name:         directoryEntry.Name(),
		RelativePath: utils.RelativePathOrSelf(filePath, rootPath),
		Kind:         types.NodeKindFile,
		SizeBytes:    fileSize,
	}

	if builder.tokenCounter != nil {
		countResult, countError := tokenizer.CountFile(builder.tokenCounter, filePath)
		if countError != nil {
			builder.logger.Warn(warningTokenCount, zap.String(logFieldPath, filePath), zap.Error(countError))
		} else if countResult.Counted {
			fileNode.Tokens = countResult.Tokens
		}
	}

	return fileNode
}

// filterEntries drops hidden entries and entries in the fixed exclusion set.
func filterEntries(directoryEntries []os.DirEntry) []os.DirEntry {
	admissible := make([]os.DirEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		if strings.HasPrefix(entryName, hiddenNamePrefix) {
			continue
		}
		if _, isExcluded := excludedDirectoryNames[entryName]; isExcluded {
			continue
		}
		admissible = append(admissible, directoryEntry)
	}
	return admissible
}

// sortEntries orders directories before files, then by case-insensitive name.
func sortEntries(directoryEntries []os.DirEntry) {
	sort.SliceStable(directoryEntries, func(firstIndex, secondIndex int) bool {
		firstEntry := directoryEntries[firstIndex]
		secondEntry := directoryEntries[secondIndex]
		if firstEntry.IsDir() != secondEntry.IsDir() {
			return firstEntry.IsDir()
		}
		return strings.ToLower(firstEntry.Name()) < strings.ToLower(secondEntry.Name())
	})
}

// directoryDisplayName derives the display name of a directory node.
// The scan root falls back to a fixed label when its basename is unusable.
func directoryDisplayName(currentPath string, rootPath string) string {
	baseName := filepath.Base(currentPath)
	if currentPath == rootPath {
		if baseName == "" || baseName == "." || baseName == string(filepath.Separator) {
			return rootFallbackName
		}
	}
	return baseName
}

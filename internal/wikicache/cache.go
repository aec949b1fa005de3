// Package wikicache enumerates generated wiki artifacts in the local cache.
package wikicache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// CacheDirectoryName is the cache subdirectory below the data root.
	CacheDirectoryName = "wikicache"

	cacheFilePrefix = "deepwiki_cache_"
	cacheFileSuffix = ".json"
	tokenDelimiter  = "_"
	// minimumTokenCount covers repo_type, owner, repo, and language.
	minimumTokenCount = 4

	displayFormat = "%s/%s (%s) - %s"

	errorReadCacheDirectoryFormat = "reading wiki cache directory %s: %w"
)

// Entry identifies one generated wiki artifact.
type Entry struct {
	RepoType string `json:"repoType"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	Language string `json:"language"`
}

// Display renders the entry in the listing format exposed to callers.
func (entry Entry) Display() string {
	return fmt.Sprintf(displayFormat, entry.Owner, entry.Repo, entry.RepoType, entry.Language)
}

// Store lists wiki artifacts below a fixed data root directory.
type Store struct {
	dataRoot string
	logger   *zap.Logger
}

// NewStore returns a Store rooted at dataRoot.
func NewStore(dataRoot string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dataRoot: dataRoot, logger: logger}
}

// List returns every parseable wiki artifact in the cache directory.
// A missing cache directory yields an empty listing. Filenames that do not
// follow the cache naming convention are skipped.
func (store *Store) List() ([]Entry, error) {
	cacheDirectory := filepath.Join(store.dataRoot, CacheDirectoryName)
	directoryEntries, readError := os.ReadDir(cacheDirectory)
	if readError != nil {
		if os.IsNotExist(readError) {
			return nil, nil
		}
		return nil, fmt.Errorf(errorReadCacheDirectoryFormat, cacheDirectory, readError)
	}

	var entries []Entry
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		entry, parsed := ParseCacheFileName(directoryEntry.Name())
		if !parsed {
			store.logger.Debug("skipping unrecognized cache file", zap.String("file", directoryEntry.Name()))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseCacheFileName decodes an artifact filename of the form
// deepwiki_cache_<repo_type>_<owner>_<repo>_<language>.json. The repo token
// may itself contain the delimiter; the language is always the final token.
func ParseCacheFileName(fileName string) (Entry, bool) {
	if !strings.HasPrefix(fileName, cacheFilePrefix) || !strings.HasSuffix(fileName, cacheFileSuffix) {
		return Entry{}, false
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(fileName, cacheFilePrefix), cacheFileSuffix)
	tokens := strings.Split(trimmed, tokenDelimiter)
	if len(tokens) < minimumTokenCount {
		return Entry{}, false
	}
	return Entry{
		RepoType: tokens[0],
		Owner:    tokens[1],
		Repo:     strings.Join(tokens[2:len(tokens)-1], tokenDelimiter),
		Language: tokens[len(tokens)-1],
	}, true
}

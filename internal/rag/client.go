// Package rag communicates with the external retrieval and answer engine.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// ReposDirectoryName is the checkout subdirectory below the data root.
	ReposDirectoryName = "repos"

	// DefaultRepoType tags repositories whose hosting type is unspecified.
	DefaultRepoType = "github"

	queryPath             = "/query"
	headerContentType     = "Content-Type"
	mimeTypeJSON          = "application/json"
	defaultRequestTimeout = 120 * time.Second

	errorEncodeRequestFormat  = "encode query request: %w"
	errorBuildRequestFormat   = "build query request: %w"
	errorPerformRequestFormat = "perform query request: %w"
	errorDecodeResponseFormat = "decode query response: %w"
	errorEngineStatusFormat   = "answer engine returned status %d: %s"
	errorRepoNotFoundFormat   = "%w: %s/%s; generate the wiki first"
)

// ErrRepositoryNotFound reports that no local checkout exists for a repository.
var ErrRepositoryNotFound = errors.New("repository not found locally")

// QueryRequest carries a natural-language question about one repository.
type QueryRequest struct {
	Question       string `json:"question"`
	RepositoryPath string `json:"repoPath"`
	RepositoryType string `json:"repoType"`
	Provider       string `json:"provider,omitempty"`
}

// QueryResponse is the engine's answer payload.
type QueryResponse struct {
	Answer string `json:"answer"`
}

// AnswerEngine answers natural-language questions about an indexed repository.
type AnswerEngine interface {
	Query(ctx context.Context, request QueryRequest) (QueryResponse, error)
}

// HTTPClient implements AnswerEngine against an HTTP retrieval service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient returns an HTTPClient for the engine at baseURL.
// A non-positive timeout selects the default request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Query forwards the request to the engine and returns its answer.
func (client *HTTPClient) Query(ctx context.Context, request QueryRequest) (QueryResponse, error) {
	var requestBody bytes.Buffer
	if encodeError := json.NewEncoder(&requestBody).Encode(request); encodeError != nil {
		return QueryResponse{}, fmt.Errorf(errorEncodeRequestFormat, encodeError)
	}

	httpRequest, buildError := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+queryPath, &requestBody)
	if buildError != nil {
		return QueryResponse{}, fmt.Errorf(errorBuildRequestFormat, buildError)
	}
	httpRequest.Header.Set(headerContentType, mimeTypeJSON)

	client.logger.Debug("querying answer engine",
		zap.String("repoPath", request.RepositoryPath),
		zap.String("repoType", request.RepositoryType),
	)

	httpResponse, requestError := client.httpClient.Do(httpRequest)
	if requestError != nil {
		return QueryResponse{}, fmt.Errorf(errorPerformRequestFormat, requestError)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(httpResponse.Body)
		return QueryResponse{}, fmt.Errorf(errorEngineStatusFormat, httpResponse.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var queryResponse QueryResponse
	if decodeError := json.NewDecoder(httpResponse.Body).Decode(&queryResponse); decodeError != nil {
		return QueryResponse{}, fmt.Errorf(errorDecodeResponseFormat, decodeError)
	}
	return queryResponse, nil
}

var _ AnswerEngine = (*HTTPClient)(nil)

// ResolveRepositoryPath locates the local checkout for owner/repo below
// dataRoot. Checkouts are stored as <owner>_<repo>; older layouts used the
// bare repo name, which is accepted as a fallback.
func ResolveRepositoryPath(dataRoot string, owner string, repo string) (string, error) {
	primaryPath := filepath.Join(dataRoot, ReposDirectoryName, owner+"_"+repo)
	if directoryExists(primaryPath) {
		return primaryPath, nil
	}
	fallbackPath := filepath.Join(dataRoot, ReposDirectoryName, repo)
	if directoryExists(fallbackPath) {
		return fallbackPath, nil
	}
	return "", fmt.Errorf(errorRepoNotFoundFormat, ErrRepositoryNotFound, owner, repo)
}

func directoryExists(path string) bool {
	info, statError := os.Stat(path)
	return statError == nil && info.IsDir()
}

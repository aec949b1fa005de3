package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wikimap/internal/rag"
	"wikimap/internal/services/mcp"
	"wikimap/internal/types"
)

const (
	codemapToolDescription   = "Build the structure map of a local repository"
	listWikisToolDescription = "List generated wikis available in the local cache"
	queryWikiToolDescription = "Answer a question about an indexed repository wiki"
)

type codemapToolRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Tokens *bool  `json:"tokens"`
	Model  string `json:"model"`
}

type queryWikiToolRequest struct {
	Question string `json:"question"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	RepoType string `json:"repoType"`
}

// toolDescriptors lists the tools advertised by the tool server.
func toolDescriptors() []mcp.ToolDescriptor {
	return []mcp.ToolDescriptor{
		{Name: types.ToolCodemap, Description: codemapToolDescription},
		{Name: types.ToolListWikis, Description: listWikisToolDescription},
		{Name: types.ToolQueryWiki, Description: queryWikiToolDescription},
	}
}

// toolHandlers wires each advertised tool to its implementation.
func (app *application) toolHandlers() map[string]mcp.ToolHandler {
	return map[string]mcp.ToolHandler{
		types.ToolCodemap:   mcp.ToolHandlerFunc(app.executeCodemapTool),
		types.ToolListWikis: mcp.ToolHandlerFunc(app.executeListWikisTool),
		types.ToolQueryWiki: mcp.ToolHandlerFunc(app.executeQueryWikiTool),
	}
}

func (app *application) executeCodemapTool(ctx context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload codemapToolRequest
	if len(request.Payload) > 0 {
		if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
			return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode codemap request: %w", decodeError))
		}
	}

	scanPath := strings.TrimSpace(payload.Path)
	if scanPath == "" {
		scanPath = defaultPath
	}
	format := strings.ToLower(strings.TrimSpace(payload.Format))
	if format == "" {
		format = types.FormatMindmap
	}
	if !isSupportedCodemapFormat(format) {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf(invalidFormatMessage, format))
	}
	tokensEnabled := payload.Tokens != nil && *payload.Tokens
	tokenizerModel := payload.Model
	if tokenizerModel == "" {
		tokenizerModel = defaultTokenizerModelName
	}

	rendered, renderError := app.runCodemap(scanPath, format, tokensEnabled, tokenizerModel)
	if renderError != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("execute codemap: %w", renderError))
	}
	return mcp.ToolResponse{Output: rendered, Format: format}, nil
}

func (app *application) executeListWikisTool(ctx context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	entries, listError := app.wikiStore().List()
	if listError != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusInternalServerError, fmt.Errorf("list wikis: %w", listError))
	}

	displayLines := make([]string, 0, len(entries))
	for _, entry := range entries {
		displayLines = append(displayLines, entry.Display())
	}
	jsonData, marshalError := json.Marshal(displayLines)
	if marshalError != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusInternalServerError, fmt.Errorf("encode wiki listing: %w", marshalError))
	}
	return mcp.ToolResponse{Output: string(jsonData), Format: types.FormatJSON}, nil
}

func (app *application) executeQueryWikiTool(ctx context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload queryWikiToolRequest
	if len(request.Payload) > 0 {
		if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
			return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode query request: %w", decodeError))
		}
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("question is required"))
	}
	if strings.TrimSpace(payload.Owner) == "" || strings.TrimSpace(payload.Repo) == "" {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf(ownerAndRepoRequiredMessage))
	}
	repoType := strings.TrimSpace(payload.RepoType)
	if repoType == "" {
		repoType = rag.DefaultRepoType
	}

	answer, queryError := app.runQuery(ctx, question, payload.Owner, payload.Repo, repoType, "")
	if queryError != nil {
		statusCode := http.StatusBadGateway
		if errors.Is(queryError, rag.ErrRepositoryNotFound) {
			statusCode = http.StatusNotFound
		}
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(statusCode, fmt.Errorf("query wiki: %w", queryError))
	}
	return mcp.ToolResponse{Output: answer, Format: types.FormatRaw}, nil
}

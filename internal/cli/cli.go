// Package cli provides the command line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wikimap/internal/codemap"
	"wikimap/internal/config"
	"wikimap/internal/output"
	"wikimap/internal/rag"
	"wikimap/internal/services/clipboard"
	"wikimap/internal/services/mcp"
	"wikimap/internal/tokenizer"
	"wikimap/internal/types"
	"wikimap/internal/utils"
	"wikimap/internal/wikicache"
)

const (
	formatFlagName    = "format"
	tokensFlagName    = "tokens"
	modelFlagName     = "model"
	clipboardFlagName = "clipboard"
	ownerFlagName     = "owner"
	repoFlagName      = "repo"
	repoTypeFlagName  = "repo-type"
	providerFlagName  = "provider"
	addressFlagName   = "address"
	configFlagName    = "config"
	versionFlagName   = "version"
	versionTemplate   = "wikimap version: %s\n"

	defaultPath               = "."
	defaultTokenizerModelName = "gpt-4o"
	defaultEngineBaseURL      = "http://localhost:8001"

	rootUse              = "wikimap"
	rootShortDescription = "wikimap command line interface"
	rootLongDescription  = `wikimap summarizes and queries locally indexed repository wikis.
It builds repository structure maps, lists generated wikis, and forwards
questions to the retrieval engine. Use --format to select json, mindmap, or
raw output where supported, and --version to print the application version.`

	codemapUse              = "codemap [path]"
	codemapAlias            = "cm"
	codemapShortDescription = "build a repository structure map (" + codemapAlias + ")"
	codemapLongDescription  = `Build the structure tree of a repository and render it.
Use --format to select json, mindmap, or raw output, --tokens to include
token estimates, and --clipboard to copy the result.`
	codemapUsageExample = `  # Render a repository as a Mermaid mindmap
  wikimap codemap ~/src/project

  # Emit the full tree with token counts as JSON
  wikimap codemap --format json --tokens .`

	wikisUse              = "wikis"
	wikisAlias            = "w"
	wikisShortDescription = "list generated wikis (" + wikisAlias + ")"
	wikisLongDescription  = `List every generated wiki artifact found in the local cache.
Use --format to select raw or json output.`
	wikisUsageExample = `  # Show cached wikis
  wikimap wikis

  # Machine-readable listing
  wikimap wikis --format json`

	queryUse              = "query <question>"
	queryAlias            = "q"
	queryShortDescription = "query a repository wiki (" + queryAlias + ")"
	queryLongDescription  = `Forward a question about an indexed repository to the retrieval
engine and print its answer. The repository must have been indexed already.`
	queryUsageExample = `  # Ask about an indexed repository
  wikimap query "How does the scheduler work?" --owner acme --repo worker`

	mcpUse              = "mcp"
	mcpShortDescription = "serve wikimap tools over the local tool protocol"
	mcpLongDescription  = `Expose codemap, list_wikis, and query_wiki as named tools over a
local HTTP endpoint for a calling agent. The bound address is printed once
the listener is active.`
	mcpUsageExample = `  # Serve tools on an ephemeral port
  wikimap mcp

  # Serve tools on a fixed address
  wikimap mcp --address 127.0.0.1:8765`

	formatFlagDescription    = "output format"
	tokensFlagDescription    = "include token counts"
	modelFlagDescription     = "tokenizer model to use for token counting"
	clipboardFlagDescription = "copy output to the system clipboard"
	ownerFlagDescription     = "repository owner"
	repoFlagDescription      = "repository name"
	repoTypeFlagDescription  = "repository hosting type"
	providerFlagDescription  = "answer engine provider override"
	addressFlagDescription   = "listen address for the tool server"
	configFlagDescription    = "path to a configuration file"
	versionFlagDescription   = "display application version"

	invalidFormatMessage        = "invalid format value '%s'"
	notADirectoryMessageFormat  = "path '%s' is not a directory"
	errorStatPathFormat         = "stat failed for '%s': %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	ownerAndRepoRequiredMessage = "owner and repo are required"
	noWikisMessage              = "no generated wikis found"
	listeningMessageFormat      = "tool server listening on %s\n"
)

// application bundles the dependencies shared by all subcommands.
type application struct {
	logger        *zap.Logger
	configuration config.ApplicationConfiguration
	// engine overrides the HTTP answer engine when set; used by tests.
	engine rag.AnswerEngine
}

// Execute runs the wikimap application with the provided logger.
func Execute(logger *zap.Logger) error {
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{})
	if configurationError != nil {
		return configurationError
	}
	app := &application{logger: logger, configuration: configuration}
	return app.createRootCommand().Execute()
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	var showVersion bool
	var explicitConfigPath string

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			if explicitConfigPath != "" {
				configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: explicitConfigPath})
				if configurationError != nil {
					return configurationError
				}
				app.configuration = configuration
			}
			return nil
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&explicitConfigPath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		app.createCodemapCommand(),
		app.createWikisCommand(),
		app.createQueryCommand(),
		app.createMCPCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// supportedCodemapFormats lists the formats accepted by the codemap command.
var supportedCodemapFormats = []string{types.FormatJSON, types.FormatMindmap, types.FormatRaw}

// supportedWikiFormats lists the formats accepted by the wikis command.
var supportedWikiFormats = []string{types.FormatRaw, types.FormatJSON}

// isSupportedCodemapFormat reports whether the provided format is recognized.
func isSupportedCodemapFormat(format string) bool {
	return utils.ContainsString(supportedCodemapFormats, format)
}

// createCodemapCommand returns the codemap subcommand.
func (app *application) createCodemapCommand() *cobra.Command {
	defaults := app.configuration.Codemap
	outputFormat := types.FormatMindmap
	if defaults.Format != "" {
		outputFormat = defaults.Format
	}
	tokensEnabled := defaults.Tokens != nil && *defaults.Tokens
	tokenizerModel := defaultTokenizerModelName
	if defaults.Model != "" {
		tokenizerModel = defaults.Model
	}
	clipboardEnabled := defaults.Clipboard != nil && *defaults.Clipboard

	codemapCommand := &cobra.Command{
		Use:     codemapUse,
		Aliases: []string{codemapAlias},
		Short:   codemapShortDescription,
		Long:    codemapLongDescription,
		Example: codemapUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			scanPath := defaultPath
			if len(arguments) == 1 {
				scanPath = arguments[0]
			}
			outputFormatLower := strings.ToLower(outputFormat)
			if !isSupportedCodemapFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			rendered, renderError := app.runCodemap(scanPath, outputFormatLower, tokensEnabled, tokenizerModel)
			if renderError != nil {
				return renderError
			}
			fmt.Println(rendered)
			if clipboardEnabled {
				return clipboard.NewService().Copy(rendered)
			}
			return nil
		},
	}

	codemapCommand.Flags().StringVar(&outputFormat, formatFlagName, outputFormat, formatFlagDescription)
	codemapCommand.Flags().BoolVar(&tokensEnabled, tokensFlagName, tokensEnabled, tokensFlagDescription)
	codemapCommand.Flags().StringVar(&tokenizerModel, modelFlagName, tokenizerModel, modelFlagDescription)
	codemapCommand.Flags().BoolVar(&clipboardEnabled, clipboardFlagName, clipboardEnabled, clipboardFlagDescription)
	return codemapCommand
}

// runCodemap validates the scan path, builds the tree, and renders it.
func (app *application) runCodemap(scanPath string, format string, tokensEnabled bool, tokenizerModel string) (string, error) {
	absolutePath, validationError := validateDirectoryPath(scanPath)
	if validationError != nil {
		return "", validationError
	}

	builder := codemap.NewBuilder(app.logger)
	if tokensEnabled {
		tokenCounter, _, counterError := tokenizer.NewCounter(tokenizer.Config{Model: tokenizerModel})
		if counterError != nil {
			return "", counterError
		}
		builder = builder.WithTokenCounter(tokenCounter)
	}
	tree := builder.Build(absolutePath)

	switch format {
	case types.FormatJSON:
		return output.RenderTreeJSON(tree)
	case types.FormatRaw:
		return output.RenderTreeRaw(tree), nil
	default:
		return codemap.RenderMindmap(tree), nil
	}
}

// validateDirectoryPath resolves scanPath and confirms it is an existing directory.
func validateDirectoryPath(scanPath string) (string, error) {
	absolutePath, absolutePathError := filepath.Abs(scanPath)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, scanPath, absolutePathError)
	}
	info, statError := os.Stat(absolutePath)
	if statError != nil {
		return "", fmt.Errorf(errorStatPathFormat, scanPath, statError)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(notADirectoryMessageFormat, scanPath)
	}
	return absolutePath, nil
}

// createWikisCommand returns the wikis subcommand.
func (app *application) createWikisCommand() *cobra.Command {
	outputFormat := types.FormatRaw

	wikisCommand := &cobra.Command{
		Use:     wikisUse,
		Aliases: []string{wikisAlias},
		Short:   wikisShortDescription,
		Long:    wikisLongDescription,
		Example: wikisUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			outputFormatLower := strings.ToLower(outputFormat)
			if !utils.ContainsString(supportedWikiFormats, outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			entries, listError := app.wikiStore().List()
			if listError != nil {
				return listError
			}
			if outputFormatLower == types.FormatJSON {
				jsonData, marshalError := json.MarshalIndent(entries, "", "  ")
				if marshalError != nil {
					return fmt.Errorf("marshal wiki entries: %w", marshalError)
				}
				fmt.Println(string(jsonData))
				return nil
			}
			if len(entries) == 0 {
				fmt.Println(noWikisMessage)
				return nil
			}
			for _, entry := range entries {
				fmt.Println(entry.Display())
			}
			return nil
		},
	}

	wikisCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	return wikisCommand
}

// wikiStore returns the cache store rooted at the configured data directory.
func (app *application) wikiStore() *wikicache.Store {
	return wikicache.NewStore(app.configuration.DataRoot, app.logger)
}

// createQueryCommand returns the query subcommand.
func (app *application) createQueryCommand() *cobra.Command {
	var repositoryOwner string
	var repositoryName string
	repositoryType := rag.DefaultRepoType
	var providerOverride string

	queryCommand := &cobra.Command{
		Use:     queryUse,
		Aliases: []string{queryAlias},
		Short:   queryShortDescription,
		Long:    queryLongDescription,
		Example: queryUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if strings.TrimSpace(repositoryOwner) == "" || strings.TrimSpace(repositoryName) == "" {
				return fmt.Errorf(ownerAndRepoRequiredMessage)
			}
			answer, queryError := app.runQuery(command.Context(), arguments[0], repositoryOwner, repositoryName, repositoryType, providerOverride)
			if queryError != nil {
				return queryError
			}
			fmt.Println(answer)
			return nil
		},
	}

	queryCommand.Flags().StringVar(&repositoryOwner, ownerFlagName, "", ownerFlagDescription)
	queryCommand.Flags().StringVar(&repositoryName, repoFlagName, "", repoFlagDescription)
	queryCommand.Flags().StringVar(&repositoryType, repoTypeFlagName, rag.DefaultRepoType, repoTypeFlagDescription)
	queryCommand.Flags().StringVar(&providerOverride, providerFlagName, "", providerFlagDescription)
	return queryCommand
}

// runQuery resolves the repository checkout and forwards the question to the engine.
func (app *application) runQuery(ctx context.Context, question string, owner string, repo string, repoType string, provider string) (string, error) {
	repositoryPath, resolveError := rag.ResolveRepositoryPath(app.configuration.DataRoot, owner, repo)
	if resolveError != nil {
		return "", resolveError
	}
	if provider == "" {
		provider = app.configuration.Engine.Provider
	}
	response, queryError := app.answerEngine().Query(ctx, rag.QueryRequest{
		Question:       question,
		RepositoryPath: repositoryPath,
		RepositoryType: repoType,
		Provider:       provider,
	})
	if queryError != nil {
		return "", queryError
	}
	return response.Answer, nil
}

// answerEngine returns the configured answer engine client.
func (app *application) answerEngine() rag.AnswerEngine {
	if app.engine != nil {
		return app.engine
	}
	baseURL := app.configuration.Engine.BaseURL
	if baseURL == "" {
		baseURL = defaultEngineBaseURL
	}
	timeout := time.Duration(app.configuration.Engine.TimeoutSeconds) * time.Second
	return rag.NewHTTPClient(baseURL, timeout, app.logger)
}

// createMCPCommand returns the mcp subcommand.
func (app *application) createMCPCommand() *cobra.Command {
	listenAddress := app.configuration.Server.Address

	mcpCommand := &cobra.Command{
		Use:     mcpUse,
		Short:   mcpShortDescription,
		Long:    mcpLongDescription,
		Example: mcpUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(mcp.Config{
				Address:  listenAddress,
				Tools:    toolDescriptors(),
				Handlers: app.toolHandlers(),
				Logger:   app.logger,
			})
			return server.Run(ctx, func(address string) {
				fmt.Printf(listeningMessageFormat, address)
			})
		},
	}

	mcpCommand.Flags().StringVar(&listenAddress, addressFlagName, listenAddress, addressFlagDescription)
	return mcpCommand
}

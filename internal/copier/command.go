package copier

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/workspace"
)

const (
	copyCommandUseConstant                 = "copy"
	copyCommandShortDescriptionConstant    = "Copy a repository with rewritten authorship"
	copyCommandLongDescriptionConstant     = "copy clones the source repository, rewrites every commit to the selected author, renames master to main when present, and pushes all branches and tags to the destination."
	cleanupCommandUseConstant              = "cleanup"
	cleanupCommandShortDescriptionConstant = "Remove leftover temporary workspaces"
	cleanupCommandLongDescriptionConstant  = "cleanup deletes every workspace under the configured workspace root, including workspaces of copies that are still running."
	sourceFlagNameConstant                 = "source"
	sourceFlagUsageConstant                = "Repository URL or path to copy from"
	destinationFlagNameConstant            = "destination"
	destinationFlagUsageConstant           = "Repository URL or path to push the copy to"
	authorNameFlagNameConstant             = "author-name"
	authorNameFlagUsageConstant            = "Author name written to every commit (defaults to the configured author)"
	authorEmailFlagNameConstant            = "author-email"
	authorEmailFlagUsageConstant           = "Author email written to every commit (defaults to the configured email)"
	copyOutputTemplateConstant             = "%s: %s -> %s as %s\n"
	copyRenamedOutputConstant              = "Renamed master to main\n"
	cleanupOutputTemplateConstant          = "%s\n"
	cleanupCountOutputTemplateConstant     = "%s (%d removed)\n"
)

// Copier is the behavior the copy and cleanup commands drive.
type Copier interface {
	Copy(executionContext context.Context, request CopyRequest) (CopyResult, error)
	CleanupAll(executionContext context.Context) (workspace.CleanupResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a Copier from the resolved configuration.
type ServiceProvider func(logger *zap.Logger, configuration Configuration) (Copier, error)

// CommandBuilder assembles the copy and cleanup commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() Configuration
	ServiceProvider       ServiceProvider
}

// BuildCopy constructs the copy command.
func (builder *CommandBuilder) BuildCopy() *cobra.Command {
	command := &cobra.Command{
		Use:           copyCommandUseConstant,
		Short:         copyCommandShortDescriptionConstant,
		Long:          copyCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runCopy,
	}

	command.Flags().String(sourceFlagNameConstant, "", sourceFlagUsageConstant)
	command.Flags().String(destinationFlagNameConstant, "", destinationFlagUsageConstant)
	command.Flags().String(authorNameFlagNameConstant, "", authorNameFlagUsageConstant)
	command.Flags().String(authorEmailFlagNameConstant, "", authorEmailFlagUsageConstant)

	return command
}

// BuildCleanup constructs the cleanup command.
func (builder *CommandBuilder) BuildCleanup() *cobra.Command {
	return &cobra.Command{
		Use:           cleanupCommandUseConstant,
		Short:         cleanupCommandShortDescriptionConstant,
		Long:          cleanupCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runCleanup,
	}
}

func (builder *CommandBuilder) runCopy(command *cobra.Command, arguments []string) error {
	sourceURL, _ := command.Flags().GetString(sourceFlagNameConstant)
	destinationURL, _ := command.Flags().GetString(destinationFlagNameConstant)
	authorName, _ := command.Flags().GetString(authorNameFlagNameConstant)
	authorEmail, _ := command.Flags().GetString(authorEmailFlagNameConstant)

	service, serviceError := builder.resolveService()
	if serviceError != nil {
		return serviceError
	}

	// an interrupted copy still unwinds and removes its workspace
	copyContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	result, copyError := service.Copy(copyContext, CopyRequest{
		SourceURL:      sourceURL,
		DestinationURL: destinationURL,
		AuthorName:     authorName,
		AuthorEmail:    authorEmail,
	})
	if copyError != nil {
		return copyError
	}

	fmt.Fprintf(command.OutOrStdout(), copyOutputTemplateConstant, result.Message(), result.SourceURL, result.DestinationURL, result.Author)
	if result.DefaultBranchRenamed {
		fmt.Fprint(command.OutOrStdout(), copyRenamedOutputConstant)
	}
	return nil
}

func (builder *CommandBuilder) runCleanup(command *cobra.Command, arguments []string) error {
	service, serviceError := builder.resolveService()
	if serviceError != nil {
		return serviceError
	}

	result, cleanupError := service.CleanupAll(command.Context())
	if cleanupError != nil {
		return cleanupError
	}

	if result.RootExisted {
		fmt.Fprintf(command.OutOrStdout(), cleanupCountOutputTemplateConstant, result.Message(), result.ItemsRemoved)
		return nil
	}
	fmt.Fprintf(command.OutOrStdout(), cleanupOutputTemplateConstant, result.Message())
	return nil
}

func (builder *CommandBuilder) resolveService() (Copier, error) {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(logger, configuration)
	}
	return NewOSService(logger, configuration, nil)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

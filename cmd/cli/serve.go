package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/copier"
	"github.com/temirov/repocopier/internal/journal"
	"github.com/temirov/repocopier/internal/server"
	flagutils "github.com/temirov/repocopier/internal/utils/flags"
)

const (
	serveCommandUseConstant              = "serve"
	serveCommandShortDescriptionConstant = "Run the copier HTTP API and web form"
	serveCommandLongDescriptionConstant  = "serve exposes POST /api/copy-repository, POST /api/cleanup, GET /api/copies and GET /api/health, and serves the web form on every other GET path. SIGINT and SIGTERM stop the server gracefully."
	portFlagNameConstant                 = "port"
	portFlagUsageConstant                = "Port to listen on (overrides server.port and PORT)"
	cleanupOnShutdownFlagNameConstant    = "cleanup-on-shutdown"
	cleanupOnShutdownFlagUsageConstant   = "Remove all temporary workspaces after the server stops"
	journalOpenErrorTemplateConstant     = "unable to open copy journal: %w"
	serviceCreationErrorTemplateConstant = "unable to construct copier: %w"
	serverCreationErrorTemplateConstant  = "unable to construct HTTP server: %w"
	journalDisabledMessageConstant       = "Copy journal disabled"
	journalOpenedMessageConstant         = "Copy journal opened"
	journalCloseWarningConstant          = "Unable to close copy journal"
	shutdownCleanupMessageConstant       = "Cleaning up temporary workspaces before exit"
	shutdownCleanupCompletedConstant     = "Shutdown cleanup completed"
	shutdownCleanupFailedConstant        = "Shutdown cleanup failed"
	shutdownIncompleteMessageConstant    = "Server stopped before in-flight requests finished"
	journalPathFieldConstant             = "journal_path"
	cleanupMessageFieldConstant          = "result"
	itemsRemovedFieldConstant            = "items_removed"
)

type serveOptions struct {
	port              int
	cleanupOnShutdown bool
}

func (application *Application) newServeCommand() *cobra.Command {
	options := &serveOptions{}
	command := &cobra.Command{
		Use:           serveCommandUseConstant,
		Short:         serveCommandShortDescriptionConstant,
		Long:          serveCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runServe(command, options)
		},
	}

	command.Flags().IntVar(&options.port, portFlagNameConstant, 0, portFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), &options.cleanupOnShutdown, cleanupOnShutdownFlagNameConstant, true, cleanupOnShutdownFlagUsageConstant)

	return command
}

func (application *Application) runServe(command *cobra.Command, options *serveOptions) error {
	serverConfiguration := application.configuration.Server
	if command.Flags().Changed(portFlagNameConstant) {
		serverConfiguration.Port = options.port
	}
	if command.Flags().Changed(cleanupOnShutdownFlagNameConstant) {
		serverConfiguration.CleanupOnShutdown = options.cleanupOnShutdown
	}

	logger := application.logger

	copyJournal, journalError := application.openJournal(command.Context())
	if journalError != nil {
		return journalError
	}
	if copyJournal != nil {
		defer func() {
			if closeError := copyJournal.Close(); closeError != nil {
				logger.Warn(journalCloseWarningConstant, zap.Error(closeError))
			}
		}()
	}

	service, serviceError := newCopierService(logger, application.configuration.Copier, copyJournal)
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceError)
	}

	dependencies := server.Dependencies{
		Logger:        logger,
		Copier:        service,
		Configuration: serverConfiguration,
	}
	if copyJournal != nil {
		dependencies.Journal = copyJournal
	}
	httpServer, serverError := server.New(dependencies)
	if serverError != nil {
		return fmt.Errorf(serverCreationErrorTemplateConstant, serverError)
	}

	signalContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	runError := httpServer.Start(signalContext)

	if serverConfiguration.CleanupOnShutdown {
		logger.Info(shutdownCleanupMessageConstant)
		result, cleanupError := service.CleanupAll(context.WithoutCancel(command.Context()))
		if cleanupError != nil {
			logger.Error(shutdownCleanupFailedConstant, zap.Error(cleanupError))
		} else {
			logger.Info(shutdownCleanupCompletedConstant, zap.String(cleanupMessageFieldConstant, result.Message()), zap.Int(itemsRemovedFieldConstant, result.ItemsRemoved))
		}
	}

	if runError == nil || errors.Is(runError, context.Canceled) {
		return nil
	}
	if signalContext.Err() != nil {
		logger.Warn(shutdownIncompleteMessageConstant, zap.Error(runError))
		return nil
	}
	return runError
}

func (application *Application) openJournal(executionContext context.Context) (*journal.Store, error) {
	journalPath := strings.TrimSpace(application.configuration.Journal.Path)
	if len(journalPath) == 0 {
		application.logger.Info(journalDisabledMessageConstant)
		return nil, nil
	}

	store, openError := journal.Open(executionContext, journalPath)
	if openError != nil {
		return nil, fmt.Errorf(journalOpenErrorTemplateConstant, openError)
	}
	application.logger.Info(journalOpenedMessageConstant, zap.String(journalPathFieldConstant, journalPath))
	return store, nil
}

func newCopierService(logger *zap.Logger, configuration copier.Configuration, copyJournal *journal.Store) (*copier.Service, error) {
	if copyJournal == nil {
		return copier.NewOSService(logger, configuration, nil)
	}
	return copier.NewOSService(logger, configuration, copyJournal)
}

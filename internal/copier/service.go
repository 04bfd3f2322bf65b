package copier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/execshell"
	"github.com/temirov/repocopier/internal/gitrepo"
	"github.com/temirov/repocopier/internal/journal"
	"github.com/temirov/repocopier/internal/workspace"
)

const (
	sourceURLFieldNameConstant             = "sourceUrl"
	destinationURLFieldNameConstant        = "destinationUrl"
	requiredValueMessageConstant           = "value is required"
	authorTemplateConstant                 = "%s <%s>"
	copySucceededMessageConstant           = "Repository copied successfully"
	copyStartedLogMessageConstant          = "Starting repository copy"
	copyCompletedLogMessageConstant        = "Repository copy completed"
	copyFailedLogMessageConstant           = "Repository copy failed"
	stepStartedLogMessageConstant          = "Running copy step"
	workspaceRemovalWarningConstant        = "Unable to remove temporary workspace"
	workspaceRootRemovedMessageConstant    = "Removed empty workspace root"
	workspaceRootRemovalWarningConstant    = "Unable to remove workspace root"
	journalBeginWarningConstant            = "Unable to record copy start"
	journalFinishWarningConstant           = "Unable to record copy outcome"
	cleanupCompletedLogMessageConstant     = "Temporary workspaces removed"
	cleanupFailedLogMessageConstant        = "Temporary workspace cleanup incomplete"
	gitExecutorMissingMessageConstant      = "git executor not configured"
	workspaceManagerMissingMessageConstant = "workspace manager not configured"
	operationIdentifierFieldConstant       = "operation_id"
	repositoryFieldConstant                = "repository"
	sourceFieldConstant                    = "source"
	destinationFieldConstant               = "destination"
	authorFieldConstant                    = "author"
	stepFieldConstant                      = "step"
	workspaceFieldConstant                 = "workspace"
	durationFieldConstant                  = "duration"
	itemsRemovedFieldConstant              = "items_removed"
	defaultBranchRenamedFieldConstant      = "default_branch_renamed"
)

var (
	errGitExecutorMissing      = errors.New(gitExecutorMissingMessageConstant)
	errWorkspaceManagerMissing = errors.New(workspaceManagerMissingMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// WorkspaceManager allocates and removes copy workspaces.
type WorkspaceManager interface {
	Create(executionContext context.Context) (workspace.Workspace, error)
	Remove(target workspace.Workspace) error
	RemoveRootIfEmpty() (bool, error)
	CleanupAll(executionContext context.Context) (workspace.CleanupResult, error)
}

// Journal records copy attempts.
type Journal interface {
	Begin(executionContext context.Context, entry journal.Entry) error
	Finish(executionContext context.Context, identifier string, outcome journal.Outcome) error
}

// ServiceDependencies describes required collaborators for copying.
type ServiceDependencies struct {
	Logger           *zap.Logger
	GitExecutor      GitExecutor
	WorkspaceManager WorkspaceManager
	Journal          Journal
	Configuration    Configuration
	Steps            []Step
	Clock            func() time.Time
}

// Author identifies who the rewritten commits are attributed to.
type Author struct {
	Name  string
	Email string
}

// String renders the author as "Name <email>".
func (author Author) String() string {
	return fmt.Sprintf(authorTemplateConstant, author.Name, author.Email)
}

// CopyRequest is one copy invocation. Blank author fields fall back to the configured defaults.
type CopyRequest struct {
	SourceURL      string
	DestinationURL string
	AuthorName     string
	AuthorEmail    string
}

// CopyResult describes a successful copy.
type CopyResult struct {
	OperationIdentifier  string
	SourceURL            string
	DestinationURL       string
	Author               Author
	DefaultBranchRenamed bool
	TrackedBranches      []string
}

// Message is the human-readable summary of a successful copy.
func (result CopyResult) Message() string {
	return copySucceededMessageConstant
}

// Service runs the copy pipeline.
type Service struct {
	logger           *zap.Logger
	gitExecutor      GitExecutor
	workspaceManager WorkspaceManager
	journal          Journal
	configuration    Configuration
	steps            []Step
	clock            func() time.Time
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, errGitExecutorMissing
	}
	if dependencies.WorkspaceManager == nil {
		return nil, errWorkspaceManagerMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	configuration := dependencies.Configuration
	if len(strings.TrimSpace(configuration.AuthorName)) == 0 {
		configuration.AuthorName = DefaultAuthorName
	}
	if len(strings.TrimSpace(configuration.AuthorEmail)) == 0 {
		configuration.AuthorEmail = DefaultAuthorEmail
	}

	steps := dependencies.Steps
	if len(steps) == 0 {
		steps = DefaultSteps()
	}

	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		logger:           logger,
		gitExecutor:      dependencies.GitExecutor,
		workspaceManager: dependencies.WorkspaceManager,
		journal:          dependencies.Journal,
		configuration:    configuration,
		steps:            append([]Step{}, steps...),
		clock:            clock,
	}, nil
}

// Copy clones request.SourceURL, rewrites its history and pushes it to request.DestinationURL.
// The first failing step aborts the copy with an error naming that step; already pushed refs stay pushed.
// The workspace is removed before Copy returns, whatever the outcome.
func (service *Service) Copy(executionContext context.Context, request CopyRequest) (CopyResult, error) {
	state, validationError := service.prepareState(request)
	if validationError != nil {
		return CopyResult{}, validationError
	}

	if service.configuration.OperationTimeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, service.configuration.OperationTimeout)
		defer cancel()
	}

	copyWorkspace, workspaceError := service.workspaceManager.Create(executionContext)
	if workspaceError != nil {
		return CopyResult{}, newCopyFailure(StepPrepareWorkspace, workspaceError)
	}
	defer service.releaseWorkspace(copyWorkspace)
	state.RepositoryPath = copyWorkspace.Path

	operationLogger := service.logger.With(
		zap.String(operationIdentifierFieldConstant, copyWorkspace.Identifier),
		zap.String(repositoryFieldConstant, gitrepo.RepositoryName(state.SourceURL)),
	)
	operationLogger.Info(
		copyStartedLogMessageConstant,
		zap.String(sourceFieldConstant, gitrepo.RedactRemoteURL(state.SourceURL)),
		zap.String(destinationFieldConstant, gitrepo.RedactRemoteURL(state.DestinationURL)),
		zap.String(authorFieldConstant, state.Author.String()),
		zap.String(workspaceFieldConstant, copyWorkspace.Path),
	)

	startedAt := service.clock()
	service.recordStart(executionContext, operationLogger, copyWorkspace.Identifier, state, startedAt)

	environment := &StepEnvironment{GitExecutor: service.gitExecutor, Logger: operationLogger}
	for _, step := range service.steps {
		operationLogger.Debug(stepStartedLogMessageConstant, zap.String(stepFieldConstant, step.Name()))
		if stepError := step.Execute(executionContext, environment, state); stepError != nil {
			copyError := newCopyFailure(step.Name(), stepError)
			operationLogger.Error(copyFailedLogMessageConstant, zap.String(stepFieldConstant, step.Name()), zap.Error(stepError))
			service.recordFinish(executionContext, operationLogger, copyWorkspace.Identifier, journal.Outcome{
				Status:               journal.StatusFailed,
				ErrorMessage:         copyError.Error(),
				DefaultBranchRenamed: state.DefaultBranchRenamed,
				FinishedAt:           service.clock(),
			})
			return CopyResult{}, copyError
		}
	}

	service.recordFinish(executionContext, operationLogger, copyWorkspace.Identifier, journal.Outcome{
		Status:               journal.StatusSucceeded,
		DefaultBranchRenamed: state.DefaultBranchRenamed,
		FinishedAt:           service.clock(),
	})
	operationLogger.Info(
		copyCompletedLogMessageConstant,
		zap.Bool(defaultBranchRenamedFieldConstant, state.DefaultBranchRenamed),
		zap.Duration(durationFieldConstant, service.clock().Sub(startedAt)),
	)

	return CopyResult{
		OperationIdentifier:  copyWorkspace.Identifier,
		SourceURL:            state.SourceURL,
		DestinationURL:       state.DestinationURL,
		Author:               state.Author,
		DefaultBranchRenamed: state.DefaultBranchRenamed,
		TrackedBranches:      append([]string{}, state.TrackedBranches...),
	}, nil
}

// CleanupAll removes every workspace under the root, including those of in-flight copies.
func (service *Service) CleanupAll(executionContext context.Context) (workspace.CleanupResult, error) {
	result, cleanupError := service.workspaceManager.CleanupAll(executionContext)
	if cleanupError != nil {
		service.logger.Warn(cleanupFailedLogMessageConstant, zap.Int(itemsRemovedFieldConstant, result.ItemsRemoved), zap.Error(cleanupError))
		return result, cleanupError
	}
	service.logger.Info(cleanupCompletedLogMessageConstant, zap.Int(itemsRemovedFieldConstant, result.ItemsRemoved))
	return result, nil
}

// ResolveAuthor applies the configured defaults to blank author fields.
func (service *Service) ResolveAuthor(authorName string, authorEmail string) Author {
	resolved := Author{Name: strings.TrimSpace(authorName), Email: strings.TrimSpace(authorEmail)}
	if len(resolved.Name) == 0 {
		resolved.Name = strings.TrimSpace(service.configuration.AuthorName)
	}
	if len(resolved.Email) == 0 {
		resolved.Email = strings.TrimSpace(service.configuration.AuthorEmail)
	}
	return resolved
}

func (service *Service) prepareState(request CopyRequest) (*CopyState, error) {
	sourceURL := strings.TrimSpace(request.SourceURL)
	if len(sourceURL) == 0 {
		return nil, InvalidInputError{FieldName: sourceURLFieldNameConstant, Message: requiredValueMessageConstant}
	}
	destinationURL := strings.TrimSpace(request.DestinationURL)
	if len(destinationURL) == 0 {
		return nil, InvalidInputError{FieldName: destinationURLFieldNameConstant, Message: requiredValueMessageConstant}
	}

	return &CopyState{
		SourceURL:      sourceURL,
		DestinationURL: destinationURL,
		Author:         service.ResolveAuthor(request.AuthorName, request.AuthorEmail),
	}, nil
}

func (service *Service) releaseWorkspace(copyWorkspace workspace.Workspace) {
	if removeError := service.workspaceManager.Remove(copyWorkspace); removeError != nil {
		service.logger.Warn(workspaceRemovalWarningConstant, zap.String(workspaceFieldConstant, copyWorkspace.Path), zap.Error(removeError))
	}

	rootRemoved, rootError := service.workspaceManager.RemoveRootIfEmpty()
	if rootError != nil {
		service.logger.Warn(workspaceRootRemovalWarningConstant, zap.Error(rootError))
		return
	}
	if rootRemoved {
		service.logger.Debug(workspaceRootRemovedMessageConstant)
	}
}

func (service *Service) recordStart(executionContext context.Context, logger *zap.Logger, identifier string, state *CopyState, startedAt time.Time) {
	if service.journal == nil {
		return
	}
	beginError := service.journal.Begin(context.WithoutCancel(executionContext), journal.Entry{
		Identifier:     identifier,
		SourceURL:      state.SourceURL,
		DestinationURL: state.DestinationURL,
		Author:         state.Author.String(),
		StartedAt:      startedAt,
	})
	if beginError != nil {
		logger.Warn(journalBeginWarningConstant, zap.Error(beginError))
	}
}

func (service *Service) recordFinish(executionContext context.Context, logger *zap.Logger, identifier string, outcome journal.Outcome) {
	if service.journal == nil {
		return
	}
	if finishError := service.journal.Finish(context.WithoutCancel(executionContext), identifier, outcome); finishError != nil {
		logger.Warn(journalFinishWarningConstant, zap.Error(finishError))
	}
}

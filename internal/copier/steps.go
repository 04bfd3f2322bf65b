package copier

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/execshell"
)

// Step names as reported in errors and logs.
const (
	StepPrepareWorkspace  = "prepare-workspace"
	StepClone             = "clone"
	StepTrackBranches     = "track-branches"
	StepRewriteHistory    = "rewrite-history"
	StepModernizeBranches = "modernize-branches"
	StepDropBackups       = "drop-backups"
	StepGarbageCollect    = "gc"
	StepSetRemote         = "set-remote"
	StepPush              = "push"
)

const (
	gitCloneCommandConstant             = "clone"
	gitRecursiveFlagConstant            = "--recursive"
	gitForEachRefCommandConstant        = "for-each-ref"
	gitBranchCommandConstant            = "branch"
	gitNoTrackFlagConstant              = "--no-track"
	gitFilterBranchCommandConstant      = "filter-branch"
	gitForceFlagConstant                = "--force"
	gitEnvFilterFlagConstant            = "--env-filter"
	gitTagNameFilterFlagConstant        = "--tag-name-filter"
	gitTagNameFilterIdentityConstant    = "cat"
	gitRevisionSeparatorConstant        = "--"
	gitBranchesFlagConstant             = "--branches"
	gitTagsFlagConstant                 = "--tags"
	gitShowRefCommandConstant           = "show-ref"
	gitVerifyFlagConstant               = "--verify"
	gitQuietFlagConstant                = "--quiet"
	gitCheckoutCommandConstant          = "checkout"
	gitMoveFlagConstant                 = "-m"
	gitSymbolicRefCommandConstant       = "symbolic-ref"
	gitHeadReferenceConstant            = "HEAD"
	gitUpdateRefCommandConstant         = "update-ref"
	gitDeleteFlagConstant               = "-d"
	gitReflogCommandConstant            = "reflog"
	gitExpireSubcommandConstant         = "expire"
	gitExpireNowFlagConstant            = "--expire=now"
	gitAllFlagConstant                  = "--all"
	gitGarbageCollectCommandConstant    = "gc"
	gitAggressiveFlagConstant           = "--aggressive"
	gitPruneNowFlagConstant             = "--prune=now"
	gitRemoteCommandConstant            = "remote"
	gitSetURLSubcommandConstant         = "set-url"
	gitPushCommandConstant              = "push"
	originRemoteNameConstant            = "origin"
	remoteBranchesNamespaceConstant     = "refs/remotes/origin"
	localBranchesNamespaceConstant      = "refs/heads"
	filterBranchBackupNamespaceConstant = "refs/original"
	remoteBranchNameFormatConstant      = "--format=%(refname:strip=3)"
	localBranchNameFormatConstant       = "--format=%(refname:strip=2)"
	fullReferenceNameFormatConstant     = "--format=%(refname)"
	remoteBranchReferencePrefixConstant = "refs/remotes/origin/"
	legacyDefaultBranchConstant         = "master"
	modernDefaultBranchConstant         = "main"
	legacyDefaultReferenceConstant      = "refs/heads/master"
	modernDefaultReferenceConstant      = "refs/heads/main"
	terminalPromptVariableConstant      = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledConstant      = "0"
	squelchWarningVariableConstant      = "FILTER_BRANCH_SQUELCH_WARNING"
	squelchWarningEnabledConstant       = "1"
	authorNameVariableConstant          = "REPOCOPIER_AUTHOR_NAME"
	authorEmailVariableConstant         = "REPOCOPIER_AUTHOR_EMAIL"
	branchFieldNameConstant             = "branch"
	branchCountFieldNameConstant        = "branch_count"
	referenceCountFieldNameConstant     = "reference_count"
	modernizeSkippedMessageConstant     = "No master branch to rename"
	modernizeFailedMessageConstant      = "Unable to rename master to main, continuing"
	branchesTrackedMessageConstant      = "Created local branches for remote branches"
	backupsDroppedMessageConstant       = "Dropped history rewrite backups"
)

// authorIdentityFilterScript sets author and committer identity from variables exported to filter-branch.
const authorIdentityFilterScript = `GIT_AUTHOR_NAME="$REPOCOPIER_AUTHOR_NAME"
GIT_AUTHOR_EMAIL="$REPOCOPIER_AUTHOR_EMAIL"
GIT_COMMITTER_NAME="$REPOCOPIER_AUTHOR_NAME"
GIT_COMMITTER_EMAIL="$REPOCOPIER_AUTHOR_EMAIL"
export GIT_AUTHOR_NAME GIT_AUTHOR_EMAIL GIT_COMMITTER_NAME GIT_COMMITTER_EMAIL`

// Step is one named stage of the copy pipeline.
type Step interface {
	Name() string
	Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error
}

// StepEnvironment exposes shared collaborators to steps.
type StepEnvironment struct {
	GitExecutor GitExecutor
	Logger      *zap.Logger
}

// CopyState carries the request and intermediate facts through the pipeline.
type CopyState struct {
	SourceURL            string
	DestinationURL       string
	Author               Author
	RepositoryPath       string
	TrackedBranches      []string
	DefaultBranchRenamed bool
}

// DefaultSteps returns the copy pipeline in execution order.
func DefaultSteps() []Step {
	return []Step{
		cloneStep{},
		trackBranchesStep{},
		rewriteHistoryStep{},
		modernizeBranchesStep{},
		dropBackupsStep{},
		garbageCollectStep{},
		setRemoteStep{},
		pushStep{},
	}
}

type cloneStep struct{}

func (cloneStep) Name() string {
	return StepClone
}

func (cloneStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	_, cloneError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCloneCommandConstant, gitRecursiveFlagConstant, state.SourceURL, state.RepositoryPath},
		EnvironmentVariables: networkEnvironment(),
	})
	return cloneError
}

type trackBranchesStep struct{}

func (trackBranchesStep) Name() string {
	return StepTrackBranches
}

func (trackBranchesStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	remoteBranches, remoteError := listReferences(executionContext, environment, state, remoteBranchNameFormatConstant, remoteBranchesNamespaceConstant)
	if remoteError != nil {
		return remoteError
	}
	localBranches, localError := listReferences(executionContext, environment, state, localBranchNameFormatConstant, localBranchesNamespaceConstant)
	if localError != nil {
		return localError
	}

	existing := make(map[string]struct{}, len(localBranches))
	for _, localBranch := range localBranches {
		existing[localBranch] = struct{}{}
	}

	for _, remoteBranch := range remoteBranches {
		if remoteBranch == gitHeadReferenceConstant {
			continue
		}
		if _, alreadyLocal := existing[remoteBranch]; alreadyLocal {
			continue
		}
		if _, branchError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitBranchCommandConstant, gitNoTrackFlagConstant, remoteBranch, remoteBranchReferencePrefixConstant + remoteBranch},
			WorkingDirectory: state.RepositoryPath,
		}); branchError != nil {
			return branchError
		}
		state.TrackedBranches = append(state.TrackedBranches, remoteBranch)
	}

	if len(state.TrackedBranches) > 0 {
		environment.Logger.Debug(branchesTrackedMessageConstant, zap.Int(branchCountFieldNameConstant, len(state.TrackedBranches)), zap.Strings(branchFieldNameConstant, state.TrackedBranches))
	}
	return nil
}

type rewriteHistoryStep struct{}

func (rewriteHistoryStep) Name() string {
	return StepRewriteHistory
}

func (rewriteHistoryStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	_, rewriteError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{
			gitFilterBranchCommandConstant,
			gitForceFlagConstant,
			gitEnvFilterFlagConstant, authorIdentityFilterScript,
			gitTagNameFilterFlagConstant, gitTagNameFilterIdentityConstant,
			gitRevisionSeparatorConstant, gitBranchesFlagConstant, gitTagsFlagConstant,
		},
		WorkingDirectory: state.RepositoryPath,
		EnvironmentVariables: map[string]string{
			authorNameVariableConstant:     state.Author.Name,
			authorEmailVariableConstant:    state.Author.Email,
			squelchWarningVariableConstant: squelchWarningEnabledConstant,
		},
	})
	return rewriteError
}

// modernizeBranchesStep renames master to main. Its failures are logged and never abort the copy.
type modernizeBranchesStep struct{}

func (modernizeBranchesStep) Name() string {
	return StepModernizeBranches
}

func (step modernizeBranchesStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	hasMaster, lookupError := step.hasLegacyBranch(executionContext, environment, state)
	if lookupError != nil {
		environment.Logger.Warn(modernizeFailedMessageConstant, zap.Error(lookupError))
		return nil
	}
	if !hasMaster {
		environment.Logger.Debug(modernizeSkippedMessageConstant)
		return nil
	}

	if renameError := step.rename(executionContext, environment, state); renameError != nil {
		environment.Logger.Warn(modernizeFailedMessageConstant, zap.String(branchFieldNameConstant, legacyDefaultBranchConstant), zap.Error(renameError))
		return nil
	}
	state.DefaultBranchRenamed = true
	return nil
}

func (modernizeBranchesStep) hasLegacyBranch(executionContext context.Context, environment *StepEnvironment, state *CopyState) (bool, error) {
	_, showError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitShowRefCommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, legacyDefaultReferenceConstant},
		WorkingDirectory: state.RepositoryPath,
	})
	if showError == nil {
		return true, nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(showError, &commandFailure) {
		return false, nil
	}
	return false, showError
}

func (modernizeBranchesStep) rename(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	gitCalls := [][]string{
		{gitCheckoutCommandConstant, legacyDefaultBranchConstant},
		{gitBranchCommandConstant, gitMoveFlagConstant, legacyDefaultBranchConstant, modernDefaultBranchConstant},
	}
	for _, arguments := range gitCalls {
		if _, gitError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        arguments,
			WorkingDirectory: state.RepositoryPath,
		}); gitError != nil {
			return gitError
		}
	}

	headResult, headError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSymbolicRefCommandConstant, gitHeadReferenceConstant},
		WorkingDirectory: state.RepositoryPath,
	})
	if headError != nil {
		return headError
	}
	if strings.TrimSpace(headResult.StandardOutput) != legacyDefaultReferenceConstant {
		return nil
	}

	_, updateError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSymbolicRefCommandConstant, gitHeadReferenceConstant, modernDefaultReferenceConstant},
		WorkingDirectory: state.RepositoryPath,
	})
	return updateError
}

// dropBackupsStep removes refs/original and expires reflogs so gc can prune the pre-rewrite history.
type dropBackupsStep struct{}

func (dropBackupsStep) Name() string {
	return StepDropBackups
}

func (dropBackupsStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	backupReferences, listError := listReferences(executionContext, environment, state, fullReferenceNameFormatConstant, filterBranchBackupNamespaceConstant)
	if listError != nil {
		return listError
	}

	for _, backupReference := range backupReferences {
		if _, deleteError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitUpdateRefCommandConstant, gitDeleteFlagConstant, backupReference},
			WorkingDirectory: state.RepositoryPath,
		}); deleteError != nil {
			return deleteError
		}
	}

	_, expireError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitReflogCommandConstant, gitExpireSubcommandConstant, gitExpireNowFlagConstant, gitAllFlagConstant},
		WorkingDirectory: state.RepositoryPath,
	})
	if expireError != nil {
		return expireError
	}

	environment.Logger.Debug(backupsDroppedMessageConstant, zap.Int(referenceCountFieldNameConstant, len(backupReferences)))
	return nil
}

type garbageCollectStep struct{}

func (garbageCollectStep) Name() string {
	return StepGarbageCollect
}

func (garbageCollectStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	_, gcError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitGarbageCollectCommandConstant, gitAggressiveFlagConstant, gitPruneNowFlagConstant},
		WorkingDirectory: state.RepositoryPath,
	})
	return gcError
}

type setRemoteStep struct{}

func (setRemoteStep) Name() string {
	return StepSetRemote
}

func (setRemoteStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	_, remoteError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteCommandConstant, gitSetURLSubcommandConstant, originRemoteNameConstant, state.DestinationURL},
		WorkingDirectory: state.RepositoryPath,
	})
	return remoteError
}

type pushStep struct{}

func (pushStep) Name() string {
	return StepPush
}

func (pushStep) Execute(executionContext context.Context, environment *StepEnvironment, state *CopyState) error {
	for _, scopeFlag := range []string{gitAllFlagConstant, gitTagsFlagConstant} {
		if _, pushError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:            []string{gitPushCommandConstant, scopeFlag, originRemoteNameConstant},
			WorkingDirectory:     state.RepositoryPath,
			EnvironmentVariables: networkEnvironment(),
		}); pushError != nil {
			return pushError
		}
	}
	return nil
}

func listReferences(executionContext context.Context, environment *StepEnvironment, state *CopyState, format string, namespace string) ([]string, error) {
	result, listError := environment.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitForEachRefCommandConstant, format, namespace},
		WorkingDirectory: state.RepositoryPath,
	})
	if listError != nil {
		return nil, listError
	}

	references := make([]string, 0)
	for _, line := range strings.Split(result.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		references = append(references, trimmedLine)
	}
	return references, nil
}

func networkEnvironment() map[string]string {
	return map[string]string{terminalPromptVariableConstant: terminalPromptDisabledConstant}
}

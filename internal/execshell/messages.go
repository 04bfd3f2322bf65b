package execshell

import (
	"fmt"
	"strings"

	"github.com/temirov/repocopier/internal/gitrepo"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	filterScriptPlaceholderConstant         = "<env-filter>"
)

const (
	gitCloneSubcommandNameConstant        = "clone"
	gitFilterBranchSubcommandNameConstant = "filter-branch"
	gitBranchSubcommandNameConstant       = "branch"
	gitCheckoutSubcommandNameConstant     = "checkout"
	gitSymbolicRefSubcommandNameConstant  = "symbolic-ref"
	gitGarbageCollectSubcommandConstant   = "gc"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteSetURLSubcommandNameConstant = "set-url"
	gitPushSubcommandNameConstant         = "push"
	gitEnvFilterFlagConstant              = "--env-filter"
	gitMoveFlagConstant                   = "-m"
	gitAllFlagConstant                    = "--all"
	gitTagsFlagConstant                   = "--tags"
)

const (
	gitCloneStartTemplateConstant                     = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant                   = "Cloned %s into %s"
	gitCloneFailureTemplateConstant                   = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant          = "Unable to clone %s into %s: %s"
	gitFilterBranchStartTemplateConstant              = "Rewriting commit history in %s"
	gitFilterBranchSuccessTemplateConstant            = "Rewrote commit history in %s"
	gitFilterBranchFailureTemplateConstant            = "Failed to rewrite commit history in %s (exit code %d%s)"
	gitFilterBranchExecutionFailureTemplateConstant   = "Unable to rewrite commit history in %s: %s"
	gitBranchRenameStartTemplateConstant              = "Renaming branch %s to %s in %s"
	gitBranchRenameSuccessTemplateConstant            = "Renamed branch %s to %s in %s"
	gitBranchRenameFailureTemplateConstant            = "Failed to rename branch %s to %s in %s (exit code %d%s)"
	gitBranchRenameExecutionFailureTemplateConstant   = "Unable to rename branch %s to %s in %s: %s"
	gitCheckoutStartTemplateConstant                  = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant                = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant                = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant       = "Unable to switch %s to branch %s: %s"
	gitSymbolicRefReadStartTemplateConstant           = "Reading HEAD reference in %s"
	gitSymbolicRefReadSuccessTemplateConstant         = "HEAD in %s points to %s"
	gitSymbolicRefUpdateStartTemplateConstant         = "Pointing HEAD in %s to %s"
	gitSymbolicRefUpdateSuccessTemplateConstant       = "HEAD in %s now points to %s"
	gitSymbolicRefFailureTemplateConstant             = "Failed to access HEAD reference in %s (exit code %d%s)"
	gitSymbolicRefExecutionFailureTemplateConstant    = "Unable to access HEAD reference in %s: %s"
	gitGarbageCollectStartTemplateConstant            = "Compacting repository in %s"
	gitGarbageCollectSuccessTemplateConstant          = "Compacted repository in %s"
	gitGarbageCollectFailureTemplateConstant          = "Failed to compact repository in %s (exit code %d%s)"
	gitGarbageCollectExecutionFailureTemplateConstant = "Unable to compact repository in %s: %s"
	gitRemoteUpdateStartTemplateConstant              = "Updating %s remote for %s to %s"
	gitRemoteUpdateSuccessTemplateConstant            = "%s remote for %s now points to %s"
	gitRemoteUpdateFailureTemplateConstant            = "Failed to update %s remote for %s to %s (exit code %d%s)"
	gitRemoteUpdateExecutionFailureTemplateConstant   = "Unable to update %s remote for %s to %s: %s"
	gitPushStartTemplateConstant                      = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                    = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                    = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant           = "Unable to push %s to %s from %s: %s"
	gitPushAllBranchesLabelConstant                   = "all branches"
	gitPushAllTagsLabelConstant                       = "all tags"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(command.Details.Arguments[0]) {
	case gitCloneSubcommandNameConstant:
		return formatter.describeGitCloneMessage(command, result, failure, stage)
	case gitFilterBranchSubcommandNameConstant:
		return formatter.describeGitFilterBranchMessage(command, result, failure, stage)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranchMessage(command, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.describeGitSymbolicRefMessage(command, result, failure, stage)
	case gitGarbageCollectSubcommandConstant:
		return formatter.describeGitGarbageCollectMessage(command, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitPushMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCloneMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	positional := positionalArguments(command.Details.Arguments[1:])
	if len(positional) < 2 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	source := gitrepo.RedactRemoteURL(positional[0])
	target := positional[1]

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCloneStartTemplateConstant, source, target)
	case messageStageSuccess:
		return fmt.Sprintf(gitCloneSuccessTemplateConstant, source, target)
	case messageStageFailure:
		return fmt.Sprintf(gitCloneFailureTemplateConstant, source, target, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCloneExecutionFailureTemplateConstant, source, target, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitFilterBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitFilterBranchStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitFilterBranchSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitFilterBranchFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitFilterBranchExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if !containsArgument(arguments, gitMoveFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	positional := positionalArguments(arguments[1:])
	if len(positional) < 2 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	workingDirectory := formatter.describeWorkingDirectory(command)
	oldName, newName := positional[0], positional[1]

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitBranchRenameStartTemplateConstant, oldName, newName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitBranchRenameSuccessTemplateConstant, oldName, newName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitBranchRenameFailureTemplateConstant, oldName, newName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitBranchRenameExecutionFailureTemplateConstant, oldName, newName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	branch := formatter.ensureValue(lastPositionalArgument(command.Details.Arguments[1:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branch)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branch)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branch, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCheckoutExecutionFailureTemplateConstant, workingDirectory, branch, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitSymbolicRefMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	positional := positionalArguments(command.Details.Arguments[1:])
	updating := len(positional) >= 2

	switch stage {
	case messageStageStart:
		if updating {
			return fmt.Sprintf(gitSymbolicRefUpdateStartTemplateConstant, workingDirectory, positional[1])
		}
		return fmt.Sprintf(gitSymbolicRefReadStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		if updating {
			return fmt.Sprintf(gitSymbolicRefUpdateSuccessTemplateConstant, workingDirectory, positional[1])
		}
		return fmt.Sprintf(gitSymbolicRefReadSuccessTemplateConstant, workingDirectory, formatter.ensureValue(result.StandardOutput))
	case messageStageFailure:
		return fmt.Sprintf(gitSymbolicRefFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitSymbolicRefExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitGarbageCollectMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitGarbageCollectStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitGarbageCollectSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitGarbageCollectFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitGarbageCollectExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 4 || strings.TrimSpace(arguments[1]) != gitRemoteSetURLSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(arguments[2])
	remoteURL := gitrepo.RedactRemoteURL(arguments[3])

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRemoteUpdateStartTemplateConstant, remoteName, workingDirectory, remoteURL)
	case messageStageSuccess:
		return fmt.Sprintf(gitRemoteUpdateSuccessTemplateConstant, remoteName, workingDirectory, remoteURL)
	case messageStageFailure:
		return fmt.Sprintf(gitRemoteUpdateFailureTemplateConstant, remoteName, workingDirectory, remoteURL, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitRemoteUpdateExecutionFailureTemplateConstant, remoteName, workingDirectory, remoteURL, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(firstPositionalArgument(arguments[1:]))

	references := strings.Join(positionalArguments(arguments[1:]), ", ")
	switch {
	case containsArgument(arguments, gitAllFlagConstant):
		references = gitPushAllBranchesLabelConstant
	case containsArgument(arguments, gitTagsFlagConstant):
		references = gitPushAllTagsLabelConstant
	}
	references = formatter.ensureValue(references)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPushStartTemplateConstant, references, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPushSuccessTemplateConstant, references, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, references, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, references, remoteName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		displayArguments := make([]string, 0, len(command.Details.Arguments))
		for index, argument := range command.Details.Arguments {
			if index > 0 && command.Details.Arguments[index-1] == gitEnvFilterFlagConstant {
				displayArguments = append(displayArguments, filterScriptPlaceholderConstant)
				continue
			}
			displayArguments = append(displayArguments, gitrepo.RedactRemoteURL(argument))
		}
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(displayArguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "-") {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func firstPositionalArgument(arguments []string) string {
	positional := positionalArguments(arguments)
	if len(positional) == 0 {
		return emptyStringConstant
	}
	return positional[0]
}

func lastPositionalArgument(arguments []string) string {
	positional := positionalArguments(arguments)
	if len(positional) == 0 {
		return emptyStringConstant
	}
	return positional[len(positional)-1]
}

package execshell

import (
	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/gitrepo"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// loggingCommandObserver writes command events to a zap logger.
type loggingCommandObserver struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

func newLoggingCommandObserver(logger *zap.Logger) loggingCommandObserver {
	return loggingCommandObserver{logger: logger, formatter: CommandMessageFormatter{}}
}

func (observer loggingCommandObserver) CommandStarted(command ShellCommand) {
	observer.logger.Debug(observer.formatter.BuildStartedMessage(command), observer.commandFields(command)...)
}

func (observer loggingCommandObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	fields := append(observer.commandFields(command), zap.Int(exitCodeFieldConstant, result.ExitCode))
	if result.ExitCode != 0 {
		fields = append(fields, zap.String(standardErrorFieldConstant, result.StandardError))
		observer.logger.Warn(observer.formatter.BuildFailureMessage(command, result), fields...)
		return
	}
	observer.logger.Info(observer.formatter.BuildSuccessMessage(command), fields...)
}

func (observer loggingCommandObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	fields := append(observer.commandFields(command), zap.Error(failure))
	observer.logger.Error(observer.formatter.BuildExecutionFailureMessage(command, failure), fields...)
}

func (observer loggingCommandObserver) commandFields(command ShellCommand) []zap.Field {
	redactedArguments := make([]string, 0, len(command.Details.Arguments))
	for _, argument := range command.Details.Arguments {
		redactedArguments = append(redactedArguments, gitrepo.RedactRemoteURL(argument))
	}
	return []zap.Field{
		zap.String(commandNameFieldConstant, string(command.Name)),
		zap.Strings(commandArgumentsFieldConstant, redactedArguments),
		zap.String(workingDirectoryFieldConstant, command.Details.WorkingDirectory),
	}
}

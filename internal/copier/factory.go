package copier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/execshell"
	pathutils "github.com/temirov/repocopier/internal/utils/path"
	"github.com/temirov/repocopier/internal/workspace"
)

const (
	executorCreationErrorTemplateConstant         = "unable to construct git executor: %w"
	workspaceRootResolutionErrorTemplateConstant  = "unable to resolve workspace root: %w"
	workspaceManagerCreationErrorTemplateConstant = "unable to construct workspace manager: %w"
)

// NewOSService wires a Service to the system git binary and a workspace manager rooted at
// configuration.WorkspaceRoot. copyJournal may be nil.
func NewOSService(logger *zap.Logger, configuration Configuration, copyJournal Journal) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	workspaceManager, managerError := NewWorkspaceManager(configuration)
	if managerError != nil {
		return nil, managerError
	}

	return NewService(ServiceDependencies{
		Logger:           logger,
		GitExecutor:      executor,
		WorkspaceManager: workspaceManager,
		Journal:          copyJournal,
		Configuration:    configuration,
	})
}

// NewWorkspaceManager resolves configuration.WorkspaceRoot, expanding a leading tilde, and
// returns a manager rooted there. A blank root falls back to DefaultWorkspaceRoot.
func NewWorkspaceManager(configuration Configuration) (*workspace.Manager, error) {
	rootDirectory, resolveError := pathutils.NewHomeExpander().ResolveDirectory(configuration.WorkspaceRoot, DefaultWorkspaceRoot())
	if resolveError != nil {
		return nil, fmt.Errorf(workspaceRootResolutionErrorTemplateConstant, resolveError)
	}

	manager, managerError := workspace.NewManager(rootDirectory)
	if managerError != nil {
		return nil, fmt.Errorf(workspaceManagerCreationErrorTemplateConstant, managerError)
	}
	return manager, nil
}

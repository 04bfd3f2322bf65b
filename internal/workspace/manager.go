package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	workspaceDirectoryPrefixConstant          = "copy_"
	workspaceDirectoryPermissionsConstant     = 0o755
	rootDirectoryNotConfiguredMessageConstant = "workspace root directory not configured"
	workspaceOutsideRootTemplateConstant      = "workspace %s is not located under %s"
	createRootErrorTemplateConstant           = "create workspace root %s: %w"
	createWorkspaceErrorTemplateConstant      = "create workspace %s: %w"
	removeWorkspaceErrorTemplateConstant      = "remove workspace %s: %w"
	readRootErrorTemplateConstant             = "read workspace root %s: %w"
	removeRootErrorTemplateConstant           = "remove workspace root %s: %w"
	removeEntryErrorTemplateConstant          = "remove %s: %w"
	cleanupCompletedMessageConstant           = "All temporary files cleaned up"
	cleanupNothingToDoMessageConstant         = "No temporary files to clean up"
)

// ErrRootDirectoryNotConfigured indicates NewManager received an empty root.
var ErrRootDirectoryNotConfigured = errors.New(rootDirectoryNotConfiguredMessageConstant)

// Workspace is one staged directory owned by a single copy.
type Workspace struct {
	Identifier string
	Path       string
}

// CleanupResult summarizes a cleanup-all sweep.
type CleanupResult struct {
	RootExisted  bool
	ItemsRemoved int
}

// Message describes the sweep for API and CLI output.
func (result CleanupResult) Message() string {
	if !result.RootExisted {
		return cleanupNothingToDoMessageConstant
	}
	return cleanupCompletedMessageConstant
}

// IdentifierGenerator produces unique workspace identifiers.
type IdentifierGenerator func() string

// Manager allocates and removes workspaces under a root directory.
type Manager struct {
	rootDirectory       string
	identifierGenerator IdentifierGenerator
}

// NewManager constructs a Manager rooted at rootDirectory. The directory is created lazily.
func NewManager(rootDirectory string) (*Manager, error) {
	return NewManagerWithGenerator(rootDirectory, uuid.NewString)
}

// NewManagerWithGenerator constructs a Manager that names workspaces with generator.
func NewManagerWithGenerator(rootDirectory string, generator IdentifierGenerator) (*Manager, error) {
	trimmedRoot := strings.TrimSpace(rootDirectory)
	if len(trimmedRoot) == 0 {
		return nil, ErrRootDirectoryNotConfigured
	}
	if generator == nil {
		generator = uuid.NewString
	}
	return &Manager{rootDirectory: filepath.Clean(trimmedRoot), identifierGenerator: generator}, nil
}

// RootDirectory reports the managed root.
func (manager *Manager) RootDirectory() string {
	return manager.rootDirectory
}

// Create allocates a fresh copy_<id> directory, creating the root when needed.
func (manager *Manager) Create(executionContext context.Context) (Workspace, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Workspace{}, contextError
	}

	if mkdirError := os.MkdirAll(manager.rootDirectory, workspaceDirectoryPermissionsConstant); mkdirError != nil {
		return Workspace{}, fmt.Errorf(createRootErrorTemplateConstant, manager.rootDirectory, mkdirError)
	}

	identifier := manager.identifierGenerator()
	workspacePath := filepath.Join(manager.rootDirectory, workspaceDirectoryPrefixConstant+identifier)
	mkdirError := os.Mkdir(workspacePath, workspaceDirectoryPermissionsConstant)
	if errors.Is(mkdirError, os.ErrNotExist) {
		// another copy finished and dropped the empty root in between
		if mkdirError = os.MkdirAll(manager.rootDirectory, workspaceDirectoryPermissionsConstant); mkdirError == nil {
			mkdirError = os.Mkdir(workspacePath, workspaceDirectoryPermissionsConstant)
		}
	}
	if mkdirError != nil {
		return Workspace{}, fmt.Errorf(createWorkspaceErrorTemplateConstant, workspacePath, mkdirError)
	}

	return Workspace{Identifier: identifier, Path: workspacePath}, nil
}

// Remove deletes a workspace and everything in it. Removing a missing workspace succeeds.
func (manager *Manager) Remove(workspace Workspace) error {
	relativePath, relativeError := filepath.Rel(manager.rootDirectory, workspace.Path)
	if relativeError != nil || relativePath == "." || strings.HasPrefix(relativePath, "..") || filepath.IsAbs(relativePath) {
		return fmt.Errorf(workspaceOutsideRootTemplateConstant, workspace.Path, manager.rootDirectory)
	}

	if removeError := os.RemoveAll(workspace.Path); removeError != nil {
		return fmt.Errorf(removeWorkspaceErrorTemplateConstant, workspace.Path, removeError)
	}
	return nil
}

// RemoveRootIfEmpty deletes the root when it holds no entries and reports whether it did.
func (manager *Manager) RemoveRootIfEmpty() (bool, error) {
	entries, readError := os.ReadDir(manager.rootDirectory)
	if errors.Is(readError, os.ErrNotExist) {
		return false, nil
	}
	if readError != nil {
		return false, fmt.Errorf(readRootErrorTemplateConstant, manager.rootDirectory, readError)
	}
	if len(entries) > 0 {
		return false, nil
	}

	if removeError := os.Remove(manager.rootDirectory); removeError != nil && !errors.Is(removeError, os.ErrNotExist) {
		return false, fmt.Errorf(removeRootErrorTemplateConstant, manager.rootDirectory, removeError)
	}
	return true, nil
}

// CleanupAll removes every entry under the root and then the root itself.
// Individual failures do not stop the sweep; they are combined into the returned error.
// Workspaces of in-flight copies are removed as well.
func (manager *Manager) CleanupAll(executionContext context.Context) (CleanupResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return CleanupResult{}, contextError
	}

	entries, readError := os.ReadDir(manager.rootDirectory)
	if errors.Is(readError, os.ErrNotExist) {
		return CleanupResult{}, nil
	}
	if readError != nil {
		return CleanupResult{}, fmt.Errorf(readRootErrorTemplateConstant, manager.rootDirectory, readError)
	}

	result := CleanupResult{RootExisted: true}
	var cleanupError error
	for _, entry := range entries {
		if contextError := executionContext.Err(); contextError != nil {
			return result, multierr.Append(cleanupError, contextError)
		}
		entryPath := filepath.Join(manager.rootDirectory, entry.Name())
		if removeError := os.RemoveAll(entryPath); removeError != nil {
			cleanupError = multierr.Append(cleanupError, fmt.Errorf(removeEntryErrorTemplateConstant, entryPath, removeError))
			continue
		}
		result.ItemsRemoved++
	}

	if cleanupError != nil {
		return result, cleanupError
	}

	if removeError := os.Remove(manager.rootDirectory); removeError != nil && !errors.Is(removeError, os.ErrNotExist) {
		return result, fmt.Errorf(removeRootErrorTemplateConstant, manager.rootDirectory, removeError)
	}
	return result, nil
}

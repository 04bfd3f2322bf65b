package workspace_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repocopier/internal/workspace"
)

const (
	testRootDirectoryNameConstant = "repo-copier"
	testNestedFileNameConstant    = "HEAD"
)

func newSequentialGenerator() workspace.IdentifierGenerator {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
}

func TestNewManagerRejectsEmptyRoot(testInstance *testing.T) {
	manager, creationError := workspace.NewManager("   ")
	require.ErrorIs(testInstance, creationError, workspace.ErrRootDirectoryNotConfigured)
	require.Nil(testInstance, manager)
}

func TestManagerCreateAllocatesUniqueDirectories(testInstance *testing.T) {
	rootDirectory := filepath.Join(testInstance.TempDir(), testRootDirectoryNameConstant)
	manager, creationError := workspace.NewManager(rootDirectory)
	require.NoError(testInstance, creationError)

	firstWorkspace, firstError := manager.Create(context.Background())
	require.NoError(testInstance, firstError)
	secondWorkspace, secondError := manager.Create(context.Background())
	require.NoError(testInstance, secondError)

	require.NotEqual(testInstance, firstWorkspace.Path, secondWorkspace.Path)
	for _, createdWorkspace := range []workspace.Workspace{firstWorkspace, secondWorkspace} {
		require.Equal(testInstance, rootDirectory, filepath.Dir(createdWorkspace.Path))
		require.True(testInstance, strings.HasPrefix(filepath.Base(createdWorkspace.Path), "copy_"))
		require.Equal(testInstance, "copy_"+createdWorkspace.Identifier, filepath.Base(createdWorkspace.Path))
		require.DirExists(testInstance, createdWorkspace.Path)
	}
}

func TestManagerCreateHonorsCancelledContext(testInstance *testing.T) {
	manager, creationError := workspace.NewManager(filepath.Join(testInstance.TempDir(), testRootDirectoryNameConstant))
	require.NoError(testInstance, creationError)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, createError := manager.Create(cancelledContext)
	require.ErrorIs(testInstance, createError, context.Canceled)
	require.NoDirExists(testInstance, manager.RootDirectory())
}

func TestManagerRemoveAndRemoveRootIfEmpty(testInstance *testing.T) {
	rootDirectory := filepath.Join(testInstance.TempDir(), testRootDirectoryNameConstant)
	manager, creationError := workspace.NewManagerWithGenerator(rootDirectory, newSequentialGenerator())
	require.NoError(testInstance, creationError)

	firstWorkspace, firstError := manager.Create(context.Background())
	require.NoError(testInstance, firstError)
	secondWorkspace, secondError := manager.Create(context.Background())
	require.NoError(testInstance, secondError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(firstWorkspace.Path, testNestedFileNameConstant), []byte("ref: refs/heads/main\n"), 0o444))

	require.NoError(testInstance, manager.Remove(firstWorkspace))
	require.NoDirExists(testInstance, firstWorkspace.Path)

	removed, removeRootError := manager.RemoveRootIfEmpty()
	require.NoError(testInstance, removeRootError)
	require.False(testInstance, removed)
	require.DirExists(testInstance, rootDirectory)

	require.NoError(testInstance, manager.Remove(secondWorkspace))
	removed, removeRootError = manager.RemoveRootIfEmpty()
	require.NoError(testInstance, removeRootError)
	require.True(testInstance, removed)
	require.NoDirExists(testInstance, rootDirectory)

	removed, removeRootError = manager.RemoveRootIfEmpty()
	require.NoError(testInstance, removeRootError)
	require.False(testInstance, removed)

	require.NoError(testInstance, manager.Remove(secondWorkspace))
}

func TestManagerRemoveRejectsPathsOutsideRoot(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	manager, creationError := workspace.NewManager(filepath.Join(temporaryDirectory, testRootDirectoryNameConstant))
	require.NoError(testInstance, creationError)

	outsideDirectory := filepath.Join(temporaryDirectory, "keep")
	require.NoError(testInstance, os.Mkdir(outsideDirectory, 0o755))

	testCases := []workspace.Workspace{
		{Identifier: "escape", Path: outsideDirectory},
		{Identifier: "root", Path: manager.RootDirectory()},
	}
	for _, testCase := range testCases {
		require.Error(testInstance, manager.Remove(testCase))
	}
	require.DirExists(testInstance, outsideDirectory)
}

func TestManagerCleanupAll(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		workspaceCount       int
		createRoot           bool
		expectedRootExisted  bool
		expectedItemsRemoved int
		expectedMessage      string
	}{
		{name: "missing_root", expectedMessage: "No temporary files to clean up"},
		{name: "empty_root", createRoot: true, expectedRootExisted: true, expectedMessage: "All temporary files cleaned up"},
		{name: "three_workspaces", createRoot: true, workspaceCount: 3, expectedRootExisted: true, expectedItemsRemoved: 3, expectedMessage: "All temporary files cleaned up"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			rootDirectory := filepath.Join(testInstance.TempDir(), testRootDirectoryNameConstant)
			manager, creationError := workspace.NewManager(rootDirectory)
			require.NoError(testInstance, creationError)

			if testCase.createRoot {
				require.NoError(testInstance, os.MkdirAll(rootDirectory, 0o755))
			}
			for index := 0; index < testCase.workspaceCount; index++ {
				createdWorkspace, createError := manager.Create(context.Background())
				require.NoError(testInstance, createError)
				require.NoError(testInstance, os.MkdirAll(filepath.Join(createdWorkspace.Path, ".git", "objects"), 0o755))
			}

			result, cleanupError := manager.CleanupAll(context.Background())
			require.NoError(testInstance, cleanupError)
			require.Equal(testInstance, testCase.expectedRootExisted, result.RootExisted)
			require.Equal(testInstance, testCase.expectedItemsRemoved, result.ItemsRemoved)
			require.Equal(testInstance, testCase.expectedMessage, result.Message())
			require.NoDirExists(testInstance, rootDirectory)
		})
	}
}

func TestManagerCleanupAllCountsStrayFiles(testInstance *testing.T) {
	rootDirectory := filepath.Join(testInstance.TempDir(), testRootDirectoryNameConstant)
	manager, creationError := workspace.NewManager(rootDirectory)
	require.NoError(testInstance, creationError)

	_, createError := manager.Create(context.Background())
	require.NoError(testInstance, createError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootDirectory, "stray.lock"), []byte("x"), 0o600))

	result, cleanupError := manager.CleanupAll(context.Background())
	require.NoError(testInstance, cleanupError)
	require.Equal(testInstance, 2, result.ItemsRemoved)
}

package copier_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/copier"
)

const (
	integrationOriginalNameConstant  = "Original Author"
	integrationOriginalEmailConstant = "original@example.com"
)

func runGit(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()

	command := exec.Command("git", arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+integrationOriginalNameConstant,
		"GIT_AUTHOR_EMAIL="+integrationOriginalEmailConstant,
		"GIT_COMMITTER_NAME="+integrationOriginalNameConstant,
		"GIT_COMMITTER_EMAIL="+integrationOriginalEmailConstant,
	)
	output, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
	return strings.TrimSpace(string(output))
}

func commitFile(testInstance *testing.T, repositoryPath string, fileName string, contents string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, fileName), []byte(contents), 0o644))
	runGit(testInstance, repositoryPath, "add", fileName)
	runGit(testInstance, repositoryPath, "commit", "-m", "add "+fileName)
}

func TestServiceCopyWithGit(testInstance *testing.T) {
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}

	baseDirectory := testInstance.TempDir()
	testInstance.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(baseDirectory, "gitconfig"))
	testInstance.Setenv("GIT_COMMITTER_NAME", integrationOriginalNameConstant)
	testInstance.Setenv("GIT_COMMITTER_EMAIL", integrationOriginalEmailConstant)

	sourcePath := filepath.Join(baseDirectory, "source")
	require.NoError(testInstance, os.MkdirAll(sourcePath, 0o755))
	runGit(testInstance, sourcePath, "init")
	runGit(testInstance, sourcePath, "symbolic-ref", "HEAD", "refs/heads/master")
	commitFile(testInstance, sourcePath, "README.md", "hello\n")
	runGit(testInstance, sourcePath, "tag", "v1.0.0")
	runGit(testInstance, sourcePath, "checkout", "-b", "feature")
	commitFile(testInstance, sourcePath, "feature.txt", "feature\n")
	runGit(testInstance, sourcePath, "checkout", "master")

	destinationPath := filepath.Join(baseDirectory, "destination.git")
	require.NoError(testInstance, os.MkdirAll(destinationPath, 0o755))
	runGit(testInstance, destinationPath, "init", "--bare")

	configuration := copier.DefaultConfiguration()
	configuration.WorkspaceRoot = filepath.Join(baseDirectory, "workspaces")
	service, serviceError := copier.NewOSService(zap.NewNop(), configuration, nil)
	require.NoError(testInstance, serviceError)

	result, copyError := service.Copy(context.Background(), copier.CopyRequest{
		SourceURL:      sourcePath,
		DestinationURL: destinationPath,
		AuthorName:     "Test Copier",
		AuthorEmail:    "copier@example.com",
	})
	require.NoError(testInstance, copyError)
	require.True(testInstance, result.DefaultBranchRenamed)
	require.Equal(testInstance, []string{"feature"}, result.TrackedBranches)

	branches := strings.Fields(runGit(testInstance, destinationPath, "for-each-ref", "--format=%(refname)", "refs/heads"))
	require.ElementsMatch(testInstance, []string{"refs/heads/main", "refs/heads/feature"}, branches)
	require.Equal(testInstance, "refs/tags/v1.0.0", runGit(testInstance, destinationPath, "for-each-ref", "--format=%(refname)", "refs/tags"))

	identities := strings.Split(runGit(testInstance, destinationPath, "log", "--all", "--format=%an <%ae>|%cn <%ce>"), "\n")
	require.Len(testInstance, identities, 2)
	for _, identity := range identities {
		require.Equal(testInstance, "Test Copier <copier@example.com>|Test Copier <copier@example.com>", identity)
	}

	require.Equal(testInstance, runGit(testInstance, destinationPath, "rev-parse", "refs/heads/main"), runGit(testInstance, destinationPath, "rev-parse", "refs/tags/v1.0.0"))
	require.NoDirExists(testInstance, configuration.WorkspaceRoot)
}

func TestServiceCopyWithGitWithoutMaster(testInstance *testing.T) {
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}

	baseDirectory := testInstance.TempDir()
	testInstance.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(baseDirectory, "gitconfig"))
	testInstance.Setenv("GIT_COMMITTER_NAME", integrationOriginalNameConstant)
	testInstance.Setenv("GIT_COMMITTER_EMAIL", integrationOriginalEmailConstant)

	sourcePath := filepath.Join(baseDirectory, "source")
	require.NoError(testInstance, os.MkdirAll(sourcePath, 0o755))
	runGit(testInstance, sourcePath, "init")
	runGit(testInstance, sourcePath, "symbolic-ref", "HEAD", "refs/heads/trunk")
	commitFile(testInstance, sourcePath, "README.md", "hello\n")
	runGit(testInstance, sourcePath, "tag", "-a", "v2.0.0", "-m", "release 2.0.0")
	commitFile(testInstance, sourcePath, "CHANGELOG.md", "next\n")

	destinationPath := filepath.Join(baseDirectory, "destination.git")
	require.NoError(testInstance, os.MkdirAll(destinationPath, 0o755))
	runGit(testInstance, destinationPath, "init", "--bare")

	configuration := copier.DefaultConfiguration()
	configuration.WorkspaceRoot = filepath.Join(baseDirectory, "workspaces")
	service, serviceError := copier.NewOSService(zap.NewNop(), configuration, nil)
	require.NoError(testInstance, serviceError)

	result, copyError := service.Copy(context.Background(), copier.CopyRequest{
		SourceURL:      sourcePath,
		DestinationURL: destinationPath,
	})
	require.NoError(testInstance, copyError)
	require.False(testInstance, result.DefaultBranchRenamed)
	require.Empty(testInstance, result.TrackedBranches)
	require.Equal(testInstance, "unisonary <unisonary@outlook.com>", result.Author.String())

	require.Equal(testInstance, "refs/heads/trunk", runGit(testInstance, destinationPath, "for-each-ref", "--format=%(refname)", "refs/heads"))
	require.Equal(testInstance, "refs/tags/v2.0.0", runGit(testInstance, destinationPath, "for-each-ref", "--format=%(refname)", "refs/tags"))
	require.Equal(testInstance, "tag", runGit(testInstance, destinationPath, "cat-file", "-t", "refs/tags/v2.0.0"))

	identities := strings.Split(runGit(testInstance, destinationPath, "log", "--all", "--format=%an <%ae>|%cn <%ce>"), "\n")
	require.Len(testInstance, identities, 2)
	for _, identity := range identities {
		require.Equal(testInstance, "unisonary <unisonary@outlook.com>|unisonary <unisonary@outlook.com>", identity)
	}

	require.Equal(testInstance, runGit(testInstance, destinationPath, "rev-parse", "refs/heads/trunk~1"), runGit(testInstance, destinationPath, "rev-parse", "refs/tags/v2.0.0^{commit}"))
	require.NoDirExists(testInstance, configuration.WorkspaceRoot)
}

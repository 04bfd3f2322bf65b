package copier

import (
	"os"
	"path/filepath"
	"time"
)

const (
	workspaceRootKeySuffixConstant    = ".workspace_root"
	authorNameKeySuffixConstant       = ".author_name"
	authorEmailKeySuffixConstant      = ".author_email"
	operationTimeoutKeySuffixConstant = ".operation_timeout"
	workspaceRootDirectoryConstant    = "repo-copier"

	// DefaultAuthorName is used when neither the request nor the configuration names an author.
	DefaultAuthorName = "unisonary"
	// DefaultAuthorEmail is used when neither the request nor the configuration supplies an email.
	DefaultAuthorEmail = "unisonary@outlook.com"
)

// Configuration describes the copier settings.
type Configuration struct {
	WorkspaceRoot    string        `mapstructure:"workspace_root" yaml:"workspace_root"`
	AuthorName       string        `mapstructure:"author_name" yaml:"author_name"`
	AuthorEmail      string        `mapstructure:"author_email" yaml:"author_email"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
}

// DefaultWorkspaceRoot returns the directory used when workspace_root is blank.
func DefaultWorkspaceRoot() string {
	return filepath.Join(os.TempDir(), workspaceRootDirectoryConstant)
}

// DefaultConfiguration returns the built-in copier settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		WorkspaceRoot: DefaultWorkspaceRoot(),
		AuthorName:    DefaultAuthorName,
		AuthorEmail:   DefaultAuthorEmail,
	}
}

// DefaultConfigurationValues exposes the defaults keyed under prefix for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + workspaceRootKeySuffixConstant:    defaults.WorkspaceRoot,
		prefix + authorNameKeySuffixConstant:       defaults.AuthorName,
		prefix + authorEmailKeySuffixConstant:      defaults.AuthorEmail,
		prefix + operationTimeoutKeySuffixConstant: defaults.OperationTimeout.String(),
	}
}

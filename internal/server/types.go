package server

import "github.com/temirov/repocopier/internal/journal"

// CopyRequest is the body of POST /api/copy-repository.
type CopyRequest struct {
	SourceURL      string `json:"sourceUrl"`
	DestinationURL string `json:"destinationUrl"`
	AuthorName     string `json:"authorName,omitempty"`
	AuthorEmail    string `json:"authorEmail,omitempty"`
}

// CopyOutcome is the per-copy result embedded in CopyResponse.
type CopyOutcome struct {
	Success              bool     `json:"success"`
	Message              string   `json:"message"`
	OperationID          string   `json:"operationId"`
	SourceURL            string   `json:"sourceUrl"`
	DestinationURL       string   `json:"destinationUrl"`
	NewAuthor            string   `json:"newAuthor"`
	DefaultBranchRenamed bool     `json:"defaultBranchRenamed"`
	TrackedBranches      []string `json:"trackedBranches,omitempty"`
}

// CopyResponse is returned by a successful copy.
type CopyResponse struct {
	Success        bool        `json:"success"`
	Message        string      `json:"message"`
	SourceURL      string      `json:"sourceUrl"`
	DestinationURL string      `json:"destinationUrl"`
	NewAuthor      string      `json:"newAuthor"`
	Result         CopyOutcome `json:"result"`
}

// CleanupOutcome mirrors workspace.CleanupResult. ItemsRemoved is omitted when there was nothing to clean.
type CleanupOutcome struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ItemsRemoved *int   `json:"itemsRemoved,omitempty"`
}

// CleanupResponse is returned by a successful cleanup.
type CleanupResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Result  CleanupOutcome `json:"result"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// CopiesResponse lists recorded copies, newest first.
type CopiesResponse struct {
	Copies []journal.Entry `json:"copies"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

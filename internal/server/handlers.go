package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/copier"
	"github.com/temirov/repocopier/internal/journal"
)

const (
	healthStatusConstant              = "OK"
	healthMessageConstant             = "Git Copier Web API is running"
	timestampLayoutConstant           = "2006-01-02T15:04:05.000Z07:00"
	missingURLsMessageConstant        = "Source and destination URLs are required"
	invalidBodyMessageConstant        = "Request body must be a JSON object"
	copyFailedFallbackMessageConstant = "Failed to copy repository"
	cleanupCompletedMessageConstant   = "Cleanup completed successfully"
	cleanupFailedFallbackMessage      = "Failed to cleanup temporary files"
	journalDisabledMessageConstant    = "Copy journal is disabled"
	journalReadFailedMessageConstant  = "Failed to read copy journal"
	invalidLimitMessageConstant       = "limit must be a positive integer"
	limitQueryParameterConstant       = "limit"
	defaultCopiesLimitConstant        = 50
	maximumCopiesLimitConstant        = 500
	jsonContentTypeConstant           = "application/json"
	htmlContentTypeConstant           = "text/html; charset=utf-8"
	maximumRequestBodyBytesConstant   = 1 << 20
	copyRequestFailedLogMessage       = "Copy request failed"
	cleanupRequestFailedLogMessage    = "Cleanup request failed"
	journalListFailedLogMessage       = "Unable to list copy journal"
	responseEncodingFailedLogMessage  = "Unable to write response"
)

//go:embed static/index.html
var indexPage []byte

func (server *Server) handleHealth(responseWriter http.ResponseWriter, request *http.Request) {
	server.respondJSON(responseWriter, http.StatusOK, HealthResponse{
		Status:    healthStatusConstant,
		Message:   healthMessageConstant,
		Timestamp: server.clock().UTC().Format(timestampLayoutConstant),
	})
}

func (server *Server) handleCopy(responseWriter http.ResponseWriter, request *http.Request) {
	var copyRequest CopyRequest
	decoder := json.NewDecoder(http.MaxBytesReader(responseWriter, request.Body, maximumRequestBodyBytesConstant))
	if decodeError := decoder.Decode(&copyRequest); decodeError != nil {
		server.respondError(responseWriter, http.StatusBadRequest, invalidBodyMessageConstant)
		return
	}

	if len(strings.TrimSpace(copyRequest.SourceURL)) == 0 || len(strings.TrimSpace(copyRequest.DestinationURL)) == 0 {
		server.respondError(responseWriter, http.StatusBadRequest, missingURLsMessageConstant)
		return
	}

	// The copy outlives the request so a disconnecting client cannot abort a push halfway.
	result, copyError := server.copier.Copy(context.WithoutCancel(request.Context()), copier.CopyRequest{
		SourceURL:      copyRequest.SourceURL,
		DestinationURL: copyRequest.DestinationURL,
		AuthorName:     copyRequest.AuthorName,
		AuthorEmail:    copyRequest.AuthorEmail,
	})
	if copyError != nil {
		server.logger.Error(copyRequestFailedLogMessage, zap.Error(copyError))
		if copier.IsInvalidInput(copyError) {
			server.respondError(responseWriter, http.StatusBadRequest, copyError.Error())
			return
		}
		server.respondError(responseWriter, http.StatusInternalServerError, errorMessage(copyError, copyFailedFallbackMessageConstant))
		return
	}

	newAuthor := result.Author.String()
	server.respondJSON(responseWriter, http.StatusOK, CopyResponse{
		Success:        true,
		Message:        result.Message(),
		SourceURL:      result.SourceURL,
		DestinationURL: result.DestinationURL,
		NewAuthor:      newAuthor,
		Result: CopyOutcome{
			Success:              true,
			Message:              result.Message(),
			OperationID:          result.OperationIdentifier,
			SourceURL:            result.SourceURL,
			DestinationURL:       result.DestinationURL,
			NewAuthor:            newAuthor,
			DefaultBranchRenamed: result.DefaultBranchRenamed,
			TrackedBranches:      result.TrackedBranches,
		},
	})
}

func (server *Server) handleCleanup(responseWriter http.ResponseWriter, request *http.Request) {
	result, cleanupError := server.copier.CleanupAll(request.Context())
	if cleanupError != nil {
		server.logger.Error(cleanupRequestFailedLogMessage, zap.Error(cleanupError))
		server.respondError(responseWriter, http.StatusInternalServerError, errorMessage(cleanupError, cleanupFailedFallbackMessage))
		return
	}

	outcome := CleanupOutcome{Success: true, Message: result.Message()}
	if result.RootExisted {
		itemsRemoved := result.ItemsRemoved
		outcome.ItemsRemoved = &itemsRemoved
	}
	server.respondJSON(responseWriter, http.StatusOK, CleanupResponse{
		Success: true,
		Message: cleanupCompletedMessageConstant,
		Result:  outcome,
	})
}

func (server *Server) handleListCopies(responseWriter http.ResponseWriter, request *http.Request) {
	if server.journal == nil {
		server.respondError(responseWriter, http.StatusServiceUnavailable, journalDisabledMessageConstant)
		return
	}

	limit := defaultCopiesLimitConstant
	if rawLimit := strings.TrimSpace(request.URL.Query().Get(limitQueryParameterConstant)); len(rawLimit) > 0 {
		parsedLimit, parseError := strconv.Atoi(rawLimit)
		if parseError != nil || parsedLimit <= 0 {
			server.respondError(responseWriter, http.StatusBadRequest, invalidLimitMessageConstant)
			return
		}
		limit = min(parsedLimit, maximumCopiesLimitConstant)
	}

	entries, listError := server.journal.List(request.Context(), limit)
	if listError != nil {
		server.logger.Error(journalListFailedLogMessage, zap.Error(listError))
		server.respondError(responseWriter, http.StatusInternalServerError, journalReadFailedMessageConstant)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	server.respondJSON(responseWriter, http.StatusOK, CopiesResponse{Copies: entries})
}

func (server *Server) handleIndex(responseWriter http.ResponseWriter, request *http.Request) {
	responseWriter.Header().Set(contentTypeHeaderConstant, htmlContentTypeConstant)
	responseWriter.WriteHeader(http.StatusOK)
	if _, writeError := responseWriter.Write(indexPage); writeError != nil {
		server.logger.Debug(responseEncodingFailedLogMessage, zap.Error(writeError))
	}
}

func (server *Server) respondJSON(responseWriter http.ResponseWriter, statusCode int, payload any) {
	responseWriter.Header().Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	responseWriter.WriteHeader(statusCode)
	if encodeError := json.NewEncoder(responseWriter).Encode(payload); encodeError != nil {
		server.logger.Debug(responseEncodingFailedLogMessage, zap.Error(encodeError))
	}
}

func (server *Server) respondError(responseWriter http.ResponseWriter, statusCode int, message string) {
	server.respondJSON(responseWriter, statusCode, ErrorResponse{Error: message})
}

func errorMessage(err error, fallback string) string {
	if message := strings.TrimSpace(err.Error()); len(message) > 0 {
		return message
	}
	return fallback
}

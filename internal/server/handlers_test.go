package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/repocopier/internal/copier"
	"github.com/temirov/repocopier/internal/journal"
	"github.com/temirov/repocopier/internal/server"
	"github.com/temirov/repocopier/internal/server/mocks"
	"github.com/temirov/repocopier/internal/workspace"
)

const (
	testSourceURLConstant      = "https://example.com/source.git"
	testDestinationURLConstant = "https://example.com/destination.git"
	jsonContentTypeConstant    = "application/json"
)

var fixedMoment = time.Date(2026, time.March, 4, 5, 6, 7, 890000000, time.UTC)

type handlerFixture struct {
	handler http.Handler
	copier  *mocks.MockCopier
	journal *mocks.MockCopyLister
	logs    *observer.ObservedLogs
}

func newHandlerFixture(testInstance *testing.T, withJournal bool) handlerFixture {
	testInstance.Helper()

	controller := gomock.NewController(testInstance)
	mockCopier := mocks.NewMockCopier(controller)
	mockJournal := mocks.NewMockCopyLister(controller)
	core, logs := observer.New(zapcore.DebugLevel)

	dependencies := server.Dependencies{
		Logger:        zap.New(core),
		Copier:        mockCopier,
		Configuration: server.DefaultConfiguration(),
		Clock:         func() time.Time { return fixedMoment },
	}
	if withJournal {
		dependencies.Journal = mockJournal
	}

	httpServer, serverError := server.New(dependencies)
	require.NoError(testInstance, serverError)

	return handlerFixture{handler: httpServer.Handler(), copier: mockCopier, journal: mockJournal, logs: logs}
}

func (fixture handlerFixture) serve(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(testInstance *testing.T, recorder *httptest.ResponseRecorder, target any) {
	testInstance.Helper()
	require.Equal(testInstance, jsonContentTypeConstant, recorder.Header().Get("Content-Type"))
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), target))
}

func TestNewRequiresCopier(testInstance *testing.T) {
	httpServer, serverError := server.New(server.Dependencies{})
	require.ErrorIs(testInstance, serverError, server.ErrCopierNotConfigured)
	require.Nil(testInstance, httpServer)
}

func TestHealthEndpoint(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, false)

	recorder := fixture.serve(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(testInstance, http.StatusOK, recorder.Code)

	var response server.HealthResponse
	decodeBody(testInstance, recorder, &response)
	require.Equal(testInstance, server.HealthResponse{
		Status:    "OK",
		Message:   "Git Copier Web API is running",
		Timestamp: "2026-03-04T05:06:07.890Z",
	}, response)

	requestLogs := fixture.logs.FilterMessage("http request").All()
	require.Len(testInstance, requestLogs, 1)
	fields := requestLogs[0].ContextMap()
	require.Equal(testInstance, "GET", fields["method"])
	require.Equal(testInstance, "/api/health", fields["path"])
	require.EqualValues(testInstance, http.StatusOK, fields["status"])
	require.NotEmpty(testInstance, fields["request_id"])
}

func TestCopyEndpointSucceeds(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, false)

	fixture.copier.EXPECT().
		Copy(gomock.Any(), copier.CopyRequest{
			SourceURL:      testSourceURLConstant,
			DestinationURL: testDestinationURLConstant,
			AuthorName:     "Test Copier",
			AuthorEmail:    "copier@example.com",
		}).
		Return(copier.CopyResult{
			OperationIdentifier:  "operation-1",
			SourceURL:            testSourceURLConstant,
			DestinationURL:       testDestinationURLConstant,
			Author:               copier.Author{Name: "Test Copier", Email: "copier@example.com"},
			DefaultBranchRenamed: true,
		}, nil)

	body := `{"sourceUrl":"https://example.com/source.git","destinationUrl":"https://example.com/destination.git","authorName":"Test Copier","authorEmail":"copier@example.com"}`
	recorder := fixture.serve(httptest.NewRequest(http.MethodPost, "/api/copy-repository", strings.NewReader(body)))
	require.Equal(testInstance, http.StatusOK, recorder.Code)

	var response server.CopyResponse
	decodeBody(testInstance, recorder, &response)
	require.True(testInstance, response.Success)
	require.Equal(testInstance, "Repository copied successfully", response.Message)
	require.Equal(testInstance, testSourceURLConstant, response.SourceURL)
	require.Equal(testInstance, testDestinationURLConstant, response.DestinationURL)
	require.Equal(testInstance, "Test Copier <copier@example.com>", response.NewAuthor)
	require.True(testInstance, response.Result.Success)
	require.Equal(testInstance, "operation-1", response.Result.OperationID)
	require.True(testInstance, response.Result.DefaultBranchRenamed)
}

func TestCopyEndpointRejectsIncompleteRequests(testInstance *testing.T) {
	testCases := []struct {
		name            string
		body            string
		expectedMessage string
	}{
		{name: "empty_object", body: `{}`, expectedMessage: "Source and destination URLs are required"},
		{name: "missing_destination", body: `{"sourceUrl":"https://example.com/source.git"}`, expectedMessage: "Source and destination URLs are required"},
		{name: "blank_source", body: `{"sourceUrl":"  ","destinationUrl":"https://example.com/destination.git"}`, expectedMessage: "Source and destination URLs are required"},
		{name: "null_body", body: `null`, expectedMessage: "Source and destination URLs are required"},
		{name: "malformed_json", body: `{"sourceUrl":`, expectedMessage: "Request body must be a JSON object"},
		{name: "array_body", body: `[]`, expectedMessage: "Request body must be a JSON object"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newHandlerFixture(testInstance, false)

			recorder := fixture.serve(httptest.NewRequest(http.MethodPost, "/api/copy-repository", strings.NewReader(testCase.body)))
			require.Equal(testInstance, http.StatusBadRequest, recorder.Code)

			var response server.ErrorResponse
			decodeBody(testInstance, recorder, &response)
			require.Equal(testInstance, testCase.expectedMessage, response.Error)
		})
	}
}

func TestCopyEndpointReportsFailures(testInstance *testing.T) {
	testCases := []struct {
		name            string
		copyError       error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "step_failure",
			copyError:       errors.New("failed to copy repository: clone failed: git clone exited with code 128: fatal: repository not found"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "failed to copy repository: clone failed: git clone exited with code 128: fatal: repository not found",
		},
		{
			name:            "invalid_input",
			copyError:       copier.InvalidInputError{FieldName: "destinationUrl", Message: "value is required"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "destinationUrl: value is required",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newHandlerFixture(testInstance, false)
			fixture.copier.EXPECT().Copy(gomock.Any(), gomock.Any()).Return(copier.CopyResult{}, testCase.copyError)

			body := `{"sourceUrl":"https://example.com/source.git","destinationUrl":"https://example.com/destination.git"}`
			recorder := fixture.serve(httptest.NewRequest(http.MethodPost, "/api/copy-repository", strings.NewReader(body)))
			require.Equal(testInstance, testCase.expectedStatus, recorder.Code)

			var response server.ErrorResponse
			decodeBody(testInstance, recorder, &response)
			require.Equal(testInstance, testCase.expectedMessage, response.Error)
			require.Len(testInstance, fixture.logs.FilterMessage("Copy request failed").All(), 1)
		})
	}
}

func TestCopyEndpointDetachesFromClientCancellation(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, false)

	requestContext, cancel := context.WithCancel(context.Background())
	fixture.copier.EXPECT().
		Copy(gomock.Any(), gomock.Any()).
		DoAndReturn(func(executionContext context.Context, request copier.CopyRequest) (copier.CopyResult, error) {
			cancel()
			require.NoError(testInstance, executionContext.Err())
			return copier.CopyResult{SourceURL: request.SourceURL, DestinationURL: request.DestinationURL}, nil
		})

	body := `{"sourceUrl":"https://example.com/source.git","destinationUrl":"https://example.com/destination.git"}`
	request := httptest.NewRequest(http.MethodPost, "/api/copy-repository", strings.NewReader(body)).WithContext(requestContext)
	recorder := fixture.serve(request)
	require.Equal(testInstance, http.StatusOK, recorder.Code)
}

func TestCleanupEndpoint(testInstance *testing.T) {
	removed := 3
	testCases := []struct {
		name     string
		result   workspace.CleanupResult
		expected server.CleanupOutcome
	}{
		{
			name:     "removed",
			result:   workspace.CleanupResult{RootExisted: true, ItemsRemoved: 3},
			expected: server.CleanupOutcome{Success: true, Message: "All temporary files cleaned up", ItemsRemoved: &removed},
		},
		{
			name:     "nothing_to_clean",
			result:   workspace.CleanupResult{},
			expected: server.CleanupOutcome{Success: true, Message: "No temporary files to clean up"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newHandlerFixture(testInstance, false)
			fixture.copier.EXPECT().CleanupAll(gomock.Any()).Return(testCase.result, nil)

			recorder := fixture.serve(httptest.NewRequest(http.MethodPost, "/api/cleanup", nil))
			require.Equal(testInstance, http.StatusOK, recorder.Code)

			var response server.CleanupResponse
			decodeBody(testInstance, recorder, &response)
			require.True(testInstance, response.Success)
			require.Equal(testInstance, "Cleanup completed successfully", response.Message)
			require.Equal(testInstance, testCase.expected, response.Result)
		})
	}
}

func TestCleanupEndpointReportsFailure(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, false)
	fixture.copier.EXPECT().CleanupAll(gomock.Any()).Return(workspace.CleanupResult{RootExisted: true}, errors.New("remove /tmp/repo-copier/copy_1: permission denied"))

	recorder := fixture.serve(httptest.NewRequest(http.MethodPost, "/api/cleanup", nil))
	require.Equal(testInstance, http.StatusInternalServerError, recorder.Code)

	var response server.ErrorResponse
	decodeBody(testInstance, recorder, &response)
	require.Equal(testInstance, "remove /tmp/repo-copier/copy_1: permission denied", response.Error)
}

func TestCopiesEndpointWithoutJournal(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, false)

	recorder := fixture.serve(httptest.NewRequest(http.MethodGet, "/api/copies", nil))
	require.Equal(testInstance, http.StatusServiceUnavailable, recorder.Code)

	var response server.ErrorResponse
	decodeBody(testInstance, recorder, &response)
	require.Equal(testInstance, "Copy journal is disabled", response.Error)
}

func TestCopiesEndpointLimits(testInstance *testing.T) {
	testCases := []struct {
		name          string
		query         string
		expectedLimit int
	}{
		{name: "default", query: "", expectedLimit: 50},
		{name: "explicit", query: "?limit=5", expectedLimit: 5},
		{name: "clamped", query: "?limit=10000", expectedLimit: 500},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newHandlerFixture(testInstance, true)
			entries := []journal.Entry{{Identifier: "second", Status: journal.StatusSucceeded}, {Identifier: "first", Status: journal.StatusFailed}}
			fixture.journal.EXPECT().List(gomock.Any(), testCase.expectedLimit).Return(entries, nil)

			recorder := fixture.serve(httptest.NewRequest(http.MethodGet, "/api/copies"+testCase.query, nil))
			require.Equal(testInstance, http.StatusOK, recorder.Code)

			var response server.CopiesResponse
			decodeBody(testInstance, recorder, &response)
			require.Len(testInstance, response.Copies, 2)
			require.Equal(testInstance, "second", response.Copies[0].Identifier)
		})
	}
}

func TestCopiesEndpointRejectsInvalidLimit(testInstance *testing.T) {
	for _, rawLimit := range []string{"abc", "0", "-3"} {
		testInstance.Run(rawLimit, func(testInstance *testing.T) {
			fixture := newHandlerFixture(testInstance, true)

			recorder := fixture.serve(httptest.NewRequest(http.MethodGet, "/api/copies?limit="+rawLimit, nil))
			require.Equal(testInstance, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestCopiesEndpointEmptyJournal(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, true)
	fixture.journal.EXPECT().List(gomock.Any(), 50).Return(nil, nil)

	recorder := fixture.serve(httptest.NewRequest(http.MethodGet, "/api/copies", nil))
	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.JSONEq(testInstance, `{"copies":[]}`, recorder.Body.String())
}

func TestCopiesEndpointReportsJournalFailure(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, true)
	fixture.journal.EXPECT().List(gomock.Any(), 50).Return(nil, errors.New("database is locked"))

	recorder := fixture.serve(httptest.NewRequest(http.MethodGet, "/api/copies", nil))
	require.Equal(testInstance, http.StatusInternalServerError, recorder.Code)

	var response server.ErrorResponse
	decodeBody(testInstance, recorder, &response)
	require.Equal(testInstance, "Failed to read copy journal", response.Error)
}

func TestIndexServedForUnknownGetPaths(testInstance *testing.T) {
	for _, path := range []string{"/", "/copy", "/some/deep/path"} {
		testInstance.Run(path, func(testInstance *testing.T) {
			fixture := newHandlerFixture(testInstance, false)

			recorder := fixture.serve(httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(testInstance, http.StatusOK, recorder.Code)
			require.Equal(testInstance, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))
			require.Contains(testInstance, recorder.Body.String(), "<title>Repository Copier</title>")
		})
	}
}

func TestCorsPreflight(testInstance *testing.T) {
	fixture := newHandlerFixture(testInstance, false)

	request := httptest.NewRequest(http.MethodOptions, "/api/copy-repository", nil)
	request.Header.Set("Origin", "https://app.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	request.Header.Set("Access-Control-Request-Headers", "Content-Type")

	recorder := fixture.serve(request)
	require.Equal(testInstance, http.StatusNoContent, recorder.Code)
	require.Equal(testInstance, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

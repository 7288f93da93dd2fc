// errors.go: structured error definitions for selectocr
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"github.com/agilira/go-errors"
)

// Error codes for selectocr
const (
	// Configuration errors (1000-1099)
	ErrCodeInvalidBaseURL       = "SELECTOCR_1001"
	ErrCodeInvalidTransport     = "SELECTOCR_1002"
	ErrCodeMissingGRPCEndpoint  = "SELECTOCR_1003"
	ErrCodeInvalidMissingPolicy = "SELECTOCR_1004"
	ErrCodeInvalidRecognizePath = "SELECTOCR_1005"

	// Configuration management errors (1100-1199)
	ErrCodeConfigNotFound   = "SELECTOCR_1101"
	ErrCodeConfigParseError = "SELECTOCR_1102"
	ErrCodeConfigValidation = "SELECTOCR_1103"
	ErrCodeConfigWatcher    = "SELECTOCR_1104"

	// Interceptor registry errors (1200-1299)
	ErrCodeInvalidInterceptorName   = "SELECTOCR_1201"
	ErrCodeDuplicateInterceptorName = "SELECTOCR_1202"
	ErrCodeInterceptorNotFound      = "SELECTOCR_1203"
	ErrCodeNilInterceptor           = "SELECTOCR_1204"

	// Recognition transport errors (1300-1399)
	ErrCodeRequestBuild             = "SELECTOCR_1301"
	ErrCodeRequestFailed            = "SELECTOCR_1302"
	ErrCodeRecognitionBackendStatus = "SELECTOCR_1303"
	ErrCodeRecognitionResponseRead  = "SELECTOCR_1304"
	ErrCodeGRPCTransport            = "SELECTOCR_1305"

	// Document errors (1400-1499)
	ErrCodeSelectionUnavailable = "SELECTOCR_1401"
	ErrCodeSnapshotFailed       = "SELECTOCR_1402"
	ErrCodeInsertFailed         = "SELECTOCR_1403"
	ErrCodeDocumentParse        = "SELECTOCR_1404"
	ErrCodeInvalidBoundary      = "SELECTOCR_1405"
)

// Configuration error constructors

func NewInvalidBaseURLError(baseURL string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInvalidBaseURL, "Invalid base URL").
			WithUserMessage("The configured base URL is malformed").
			WithContext("base_url", baseURL).
			WithSeverity("error")
	}
	return errors.New(ErrCodeInvalidBaseURL, "Invalid base URL").
		WithUserMessage("The configured base URL must have both scheme and host").
		WithContext("base_url", baseURL).
		WithSeverity("error")
}

func NewInvalidTransportError(transport TransportType) *errors.Error {
	return errors.New(ErrCodeInvalidTransport, "Invalid transport").
		WithUserMessage("The recognition transport must be http, https or grpc").
		WithContext("transport", string(transport)).
		WithSeverity("error")
}

func NewMissingGRPCEndpointError() *errors.Error {
	return errors.New(ErrCodeMissingGRPCEndpoint, "Missing gRPC endpoint").
		WithUserMessage("A gRPC endpoint is required for the grpc transport").
		WithSeverity("error")
}

func NewInvalidMissingPolicyError(policy MissingParamPolicy) *errors.Error {
	return errors.New(ErrCodeInvalidMissingPolicy, "Invalid missing-parameter policy").
		WithUserMessage("The missing-parameter policy must be keep, undefined or empty").
		WithContext("policy", string(policy)).
		WithSeverity("error")
}

func NewInvalidRecognizePathError(path string) *errors.Error {
	return errors.New(ErrCodeInvalidRecognizePath, "Invalid recognition path").
		WithUserMessage("The recognition path must start with a slash").
		WithContext("recognition_path", path).
		WithSeverity("error")
}

// Configuration management error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigValidation, "Configuration validation error: "+message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigValidation, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcher, "Configuration watcher error: "+message).
		WithUserMessage("Configuration monitoring failed").
		WithSeverity("error")
}

// Interceptor registry error constructors

func NewInvalidInterceptorNameError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidInterceptorName, "Invalid interceptor name").
		WithUserMessage("Interceptor name is required and cannot be empty").
		WithContext("provided_name", name).
		WithSeverity("error")
}

func NewDuplicateInterceptorNameError(name string) *errors.Error {
	return errors.New(ErrCodeDuplicateInterceptorName, "Duplicate interceptor name").
		WithUserMessage("An interceptor with this name is already registered").
		WithContext("interceptor_name", name).
		WithSeverity("error")
}

func NewInterceptorNotFoundError(name string) *errors.Error {
	return errors.New(ErrCodeInterceptorNotFound, "Interceptor not found").
		WithUserMessage("The requested interceptor is not registered").
		WithContext("interceptor_name", name).
		WithSeverity("warning")
}

func NewNilInterceptorError(name string) *errors.Error {
	return errors.New(ErrCodeNilInterceptor, "Nil interceptor").
		WithUserMessage("A nil interceptor cannot be registered").
		WithContext("interceptor_name", name).
		WithSeverity("error")
}

// Recognition transport error constructors

func NewRequestBuildError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRequestBuild, "Request build failed").
		WithUserMessage("The outgoing request could not be constructed").
		WithContext("path", path).
		WithSeverity("error")
}

// NewRequestFailedError wraps a network failure. It is flagged retryable for
// callers; nothing in this package retries.
func NewRequestFailedError(endpoint string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRequestFailed, "Request failed").
		WithUserMessage("The remote service could not be reached").
		WithContext("endpoint", endpoint).
		WithSeverity("error").
		AsRetryable()
}

func NewRecognitionBackendStatusError(endpoint string, status int) *errors.Error {
	return errors.New(ErrCodeRecognitionBackendStatus, "Recognition backend returned an error status").
		WithUserMessage("The recognition service rejected the request").
		WithContext("endpoint", endpoint).
		WithContext("status", status).
		WithSeverity("error")
}

func NewRecognitionResponseReadError(endpoint string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRecognitionResponseRead, "Recognition response read failed").
		WithUserMessage("The recognition response could not be read").
		WithContext("endpoint", endpoint).
		WithSeverity("error")
}

func NewGRPCTransportError(endpoint string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeGRPCTransport, "gRPC transport error").
		WithUserMessage("gRPC recognition call failed").
		WithContext("endpoint", endpoint).
		WithSeverity("error").
		AsRetryable()
}

// Document error constructors

func NewSelectionUnavailableError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeSelectionUnavailable, "Selection unavailable").
		WithUserMessage("The current selection could not be read").
		WithSeverity("error")
}

func NewSnapshotFailedError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeSnapshotFailed, "Selection snapshot failed").
		WithUserMessage("The selected content could not be copied").
		WithSeverity("error")
}

func NewInsertFailedError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInsertFailed, "Text insertion failed").
		WithUserMessage("The recognized text could not be inserted").
		WithSeverity("error")
}

func NewDocumentParseError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDocumentParse, "Document parse failed").
		WithUserMessage("The document could not be parsed").
		WithSeverity("error")
}

func NewInvalidBoundaryError(message string, offset int) *errors.Error {
	return errors.New(ErrCodeInvalidBoundary, "Invalid range boundary: "+message).
		WithUserMessage("The selection boundary does not point into the document").
		WithContext("offset", offset).
		WithSeverity("error")
}

// Package models defines the internship request record, the error taxonomy,
// and shared response helpers.
package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the lifecycle, storage, and rendering layers.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidArtifact = "INVALID_ARTIFACT_TYPE"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeStorage         = "STORAGE_ERROR"
	CodeRender          = "RENDER_ERROR"
	CodeGeneration      = "GENERATION_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewInvalidArtifactError reports an upload whose declared type is not accepted.
func NewInvalidArtifactError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidArtifact,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewStorageError wraps an artifact read/write/delete failure.
func NewStorageError(op string, err error) *AppError {
	return &AppError{
		Code:    CodeStorage,
		Message: fmt.Sprintf("artifact %s failed", op),
		Err:     err,
	}
}

// NewRenderError wraps a document renderer failure.
func NewRenderError(err error) *AppError {
	return &AppError{
		Code:    CodeRender,
		Message: "letter rendering failed",
		Err:     err,
	}
}

// NewGenerationError wraps a render or storage failure encountered during the
// approve transition. The record's status is left at its pre-transition value.
func NewGenerationError(err error) *AppError {
	return &AppError{
		Code:    CodeGeneration,
		Message: "letter generation failed",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

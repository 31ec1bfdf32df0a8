package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"
	ErrorTypeStorage      ErrorType = "STORAGE_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDescription ErrorCode = "INVALID_DESCRIPTION"
	ErrCodeInvalidCategory    ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidDate        ErrorCode = "INVALID_DATE"
	ErrCodeInvalidCurrency    ErrorCode = "INVALID_CURRENCY"
	ErrCodeInvalidRole        ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidPercentage  ErrorCode = "INVALID_PERCENTAGE"
	ErrCodeInvalidRange       ErrorCode = "INVALID_AMOUNT_RANGE"
	ErrCodeInvalidApprover    ErrorCode = "INVALID_APPROVER"
	ErrCodeCommentsRequired   ErrorCode = "COMMENTS_REQUIRED"

	ErrCodeExpenseNotFound      ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeApprovalNotFound     ErrorCode = "APPROVAL_NOT_FOUND"
	ErrCodeRuleNotFound         ErrorCode = "RULE_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeCategoryNotFound     ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeCompanyNotFound      ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeUnauthorizedAccess   ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeNotAssignedApprover  ErrorCode = "NOT_ASSIGNED_APPROVER"
	ErrCodeInvalidExpenseStatus ErrorCode = "INVALID_EXPENSE_STATUS"
	ErrCodeCannotModifyExpense  ErrorCode = "CANNOT_MODIFY_EXPENSE"

	ErrCodeExpenseFinalized  ErrorCode = "EXPENSE_ALREADY_FINALIZED"
	ErrCodeAlreadyProcessed  ErrorCode = "APPROVAL_ALREADY_PROCESSED"
	ErrCodeOutOfOrder        ErrorCode = "APPROVAL_OUT_OF_ORDER"
	ErrCodeDuplicateApproval ErrorCode = "DUPLICATE_APPROVAL"
	ErrCodeExpenseModified   ErrorCode = "EXPENSE_MODIFIED"
	ErrCodeRuleInUse         ErrorCode = "RULE_IN_USE"
	ErrCodeDuplicateEmail    ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateCategory ErrorCode = "DUPLICATE_CATEGORY"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeRateUnavailable ErrorCode = "RATE_UNAVAILABLE"
	ErrCodeStorageFailure  ErrorCode = "STORAGE_FAILURE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Retryable  bool        `json:"retryable,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

// HasFieldCode reports whether any field failure carries code.
func (e *AppError) HasFieldCode(code ErrorCode) bool {
	validationErrors, ok := e.Details.(ValidationErrors)
	if !ok {
		return false
	}
	for _, fe := range validationErrors.Errors {
		if fe.Code == string(code) {
			return true
		}
	}
	return false
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so that sentinel errors survive WithCause copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy carrying cause; sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// StorageDetails identifies the failed store call so the caller can retry it.
type StorageDetails struct {
	Entity    string `json:"entity"`
	EntityID  any    `json:"entity_id,omitempty"`
	Operation string `json:"operation"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInvalidStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewRateUnavailableError(from, to string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeRateUnavailable,
		Message:    fmt.Sprintf("exchange rate %s->%s is unavailable", from, to),
		Details:    map[string]string{"from": from, "to": to},
		Retryable:  true,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewStorageError(entity string, entityID any, operation string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Code:       ErrCodeStorageFailure,
		Message:    fmt.Sprintf("storage failure during %s %s", operation, entity),
		Details:    StorageDetails{Entity: entity, EntityID: entityID, Operation: operation},
		Retryable:  true,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrExpenseNotFound      = NewNotFoundError("Expense not found", ErrCodeExpenseNotFound)
	ErrApprovalNotFound     = NewNotFoundError("Approval not found", ErrCodeApprovalNotFound)
	ErrRuleNotFound         = NewNotFoundError("Approval rule not found", ErrCodeRuleNotFound)
	ErrUserNotFound         = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrCategoryNotFound     = NewNotFoundError("Category not found", ErrCodeCategoryNotFound)
	ErrCompanyNotFound      = NewNotFoundError("Company not found", ErrCodeCompanyNotFound)
	ErrUnauthorizedAccess   = NewForbiddenError("unauthorized access to resource", ErrCodeUnauthorizedAccess)
	ErrNotAssignedApprover  = NewForbiddenError("caller is not the assigned approver", ErrCodeNotAssignedApprover)
	ErrInvalidExpenseStatus = NewInvalidStateError("invalid expense status for this operation", ErrCodeInvalidExpenseStatus)
	ErrCannotModifyExpense  = NewInvalidStateError("Cannot modify expense in current status", ErrCodeCannotModifyExpense)

	ErrExpenseFinalized    = NewInvalidStateError("expense has already been finalized", ErrCodeExpenseFinalized)
	ErrAlreadyProcessed    = NewInvalidStateError("approval has already been processed", ErrCodeAlreadyProcessed)
	ErrOutOfOrder          = NewInvalidStateError("an earlier approver has not responded yet", ErrCodeOutOfOrder)
	ErrRuleInUse           = NewInvalidStateError("approvers, order and percentage of a rule with approvals cannot change", ErrCodeRuleInUse)
	ErrDuplicateApproval   = NewConflictError("approval records already exist for this expense", ErrCodeDuplicateApproval)
	ErrExpenseModified     = NewConflictError("expense changed while it was being submitted", ErrCodeExpenseModified)
	ErrDuplicateEmail      = NewConflictError("email is already registered", ErrCodeDuplicateEmail)
	ErrDuplicateCategory   = NewConflictError("category name already exists", ErrCodeDuplicateCategory)
	ErrRejectionComments   = NewValidationError("comments are required when rejecting", ErrCodeCommentsRequired)
	ErrInvalidCredentials  = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive        = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken        = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired        = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrUnauthenticated     = NewUnauthorizedError("authentication required", ErrCodeInvalidToken)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error   *AppError `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

// ResponseFor is ToHTTPResponse stamped with the request's trace id.
func (e *AppError) ResponseFor(ctx context.Context) (int, Response) {
	return e.StatusCode, Response{Error: e, TraceID: TraceIDFromContext(ctx)}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      ErrorType   `json:"type"`
		Code      ErrorCode   `json:"code"`
		Message   string      `json:"message"`
		Details   interface{} `json:"details,omitempty"`
		Retryable bool        `json:"retryable,omitempty"`
	}{
		Type:      e.Type,
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
	})
}

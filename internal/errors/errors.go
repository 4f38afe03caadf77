// Package errors provides unified error handling for capture and OCR.
// Every failure surfaced by the core carries an ErrorCode that maps onto a gRPC
// status code and an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is reported in ErrorInfo details.
const Domain = "snapocr"

// ErrorCode identifies an error kind.
type ErrorCode string

const (
	Unknown                ErrorCode = "UNKNOWN"
	Internal               ErrorCode = "INTERNAL"
	InvalidArgument        ErrorCode = "INVALID_ARGUMENT"
	PermissionDenied       ErrorCode = "PERMISSION_DENIED"
	NoDisplaysFound        ErrorCode = "NO_DISPLAYS_FOUND"
	DisplayQueryFailed     ErrorCode = "DISPLAY_QUERY_FAILED"
	CaptureFailed          ErrorCode = "CAPTURE_FAILED"
	EncodingInvariant      ErrorCode = "ENCODING_INVARIANT"
	BackendUnavailable     ErrorCode = "BACKEND_UNAVAILABLE"
	BackendExecutionFailed ErrorCode = "BACKEND_EXECUTION_FAILED"
	MalformedBackendOutput ErrorCode = "MALFORMED_BACKEND_OUTPUT"
	NotCaptured            ErrorCode = "NOT_CAPTURED"
)

func (c ErrorCode) String() string { return string(c) }

var grpcCodeMap = map[ErrorCode]codes.Code{
	Unknown:                codes.Unknown,
	Internal:               codes.Internal,
	InvalidArgument:        codes.InvalidArgument,
	PermissionDenied:       codes.PermissionDenied,
	NoDisplaysFound:        codes.FailedPrecondition,
	DisplayQueryFailed:     codes.Internal,
	CaptureFailed:          codes.Internal,
	EncodingInvariant:      codes.Internal,
	BackendUnavailable:     codes.Unavailable,
	BackendExecutionFailed: codes.Internal,
	MalformedBackendOutput: codes.DataLoss,
	NotCaptured:            codes.NotFound,
}

var httpStatusMap = map[ErrorCode]int{
	InvalidArgument:    http.StatusBadRequest,
	PermissionDenied:   http.StatusForbidden,
	NoDisplaysFound:    http.StatusConflict,
	BackendUnavailable: http.StatusServiceUnavailable,
	NotCaptured:        http.StatusNotFound,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     ErrorCode
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// HTTPStatus returns the status code the HTTP transport answers with.
func (e *AppError) HTTPStatus() int {
	if s, ok := httpStatusMap[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ToProto converts to an ErrorInfo detail message.
func (e *AppError) ToProto() *errdetails.ErrorInfo {
	info := &errdetails.ErrorInfo{Reason: string(e.Code), Domain: Domain}
	if len(e.Metadata) > 0 {
		info.Metadata = e.Metadata
	}
	return info
}

// GRPCStatus returns a gRPC status with the ErrorInfo attached.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.Error())
	if withDetail, err := st.WithDetails(e.ToProto()); err == nil {
		return withDetail
	}
	return st
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// New creates a new AppError with the given code and message.
func New(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// DisplayError reports a failure tied to one enumerated display.
func DisplayError(code ErrorCode, index int, cause error) *AppError {
	msg := fmt.Sprintf("display %d: %v", index, cause)
	return Wrap(cause, code, msg).WithMetadata("index", strconv.Itoa(index))
}

// FromGRPCError extracts AppError from a gRPC error if present.
func FromGRPCError(err error) *AppError {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return &AppError{Code: Unknown, Message: err.Error(), Cause: err}
	}

	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return &AppError{
				Code:     ErrorCode(info.GetReason()),
				Message:  st.Message(),
				Metadata: info.GetMetadata(),
			}
		}
	}

	return &AppError{Code: grpcToErrorCode(st.Code()), Message: st.Message()}
}

// grpcToErrorCode maps gRPC codes back to our error codes (best effort).
func grpcToErrorCode(c codes.Code) ErrorCode {
	switch c {
	case codes.InvalidArgument:
		return InvalidArgument
	case codes.NotFound:
		return NotCaptured
	case codes.PermissionDenied:
		return PermissionDenied
	case codes.Unavailable:
		return BackendUnavailable
	case codes.Internal:
		return Internal
	default:
		return Unknown
	}
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// As converts any error into an AppError, wrapping unknown ones as Internal.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, Internal, err.Error())
}

package leaveerrors

import (
	"fmt"
	"net/http"

	"github.com/pk2025teslead/smartlogx-app/internal/shared/apperror"
)

var (
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave request not found",
		http.StatusNotFound,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"You are not authorized to edit this request",
		http.StatusForbidden,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"from_date must be before or equal to to_date",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"leave_type must be one of PLANNED, CASUAL, EMERGENCY, SICK",
		http.StatusBadRequest,
	)
	ErrRejectReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required when rejecting a leave request",
		http.StatusBadRequest,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
)

// SpanTooLong is a policy ceiling, not a domain law; the limit is configurable.
func SpanTooLong(maxDays int) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidInput,
		fmt.Sprintf("Leave duration cannot exceed %d days", maxDays),
		http.StatusBadRequest,
	)
}

func CannotEdit(status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("Cannot edit - status is %s", status),
		http.StatusConflict,
	)
}

func CannotCancel(status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("Cannot cancel - status is %s", status),
		http.StatusConflict,
	)
}

func CannotApprove(status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("Cannot approve - status is already %s", status),
		http.StatusConflict,
	)
}

func CannotReject(status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("Cannot reject - status is already %s", status),
		http.StatusConflict,
	)
}

func WindowExpired(deadline string) *apperror.AppError {
	return apperror.New(
		apperror.CodeWindowExpired,
		fmt.Sprintf("Edit window expired at %s", deadline),
		http.StatusConflict,
	)
}

// Conflict covers a rowcount-zero update: the row changed between the
// advisory check and the locked mutation. Not retried automatically.
func Conflict(operation string) *apperror.AppError {
	return apperror.New(
		apperror.CodeConflict,
		fmt.Sprintf("%s failed - record may have been modified", operation),
		http.StatusConflict,
	)
}

package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	CONFLICT           ErrCode = "CONFLICT"
	ALREADY_EXISTS     ErrCode = "ALREADY_EXISTS"
	SLOT_NOT_AVAILABLE ErrCode = "SLOT_NOT_AVAILABLE"
	OUT_OF_HORIZON     ErrCode = "OUT_OF_BOOKING_HORIZON"
	INVALID_INTERVAL   ErrCode = "INVALID_INTERVAL"
	INVALID_TRANSITION ErrCode = "INVALID_TRANSITION"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("resource not found")
	ErrExists             = errors.New("resource already exists")
	ErrConflict           = errors.New("conflict")
	ErrLocked             = errors.New("resource is locked")
	ErrSlotNotAvailable   = errors.New("slot is no longer available")
	ErrOutOfHorizon       = errors.New("date is outside the booking horizon")
	ErrInvalidTransition  = errors.New("booking status transition is not allowed")
	ErrBookingIncomplete  = errors.New("booking is not completed")
	ErrServiceUnavailable = errors.New("service is not active")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

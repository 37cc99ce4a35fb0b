package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeRaffleNotActive     Code = "RAFFLE_NOT_ACTIVE"
	CodeRaffleNotStarted    Code = "RAFFLE_NOT_STARTED"
	CodeRaffleEnded         Code = "RAFFLE_ENDED"
	CodeSubscriberRequired  Code = "SUBSCRIBER_REQUIRED"
	CodePerUserCapExceeded  Code = "PER_USER_CAP_EXCEEDED"
	CodeSoldOut             Code = "SOLD_OUT"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeAlreadyDrawn        Code = "ALREADY_DRAWN"
	CodeNoEntries           Code = "NO_ENTRIES"
	CodeNoTickets           Code = "NO_TICKETS"
	CodeTimeout             Code = "TIMEOUT"
	CodeInternal            Code = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeRaffleNotActive: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "raffle is not open for entries",
		DetailsAllowed: true,
	},
	CodeRaffleNotStarted: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "raffle has not started yet",
		DetailsAllowed: true,
	},
	CodeRaffleEnded: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "raffle has ended",
		DetailsAllowed: true,
	},
	CodeSubscriberRequired: {
		HTTPStatus:     http.StatusForbidden,
		Retryable:      false,
		PublicMessage:  "raffle is restricted to subscribers",
		DetailsAllowed: false,
	},
	CodePerUserCapExceeded: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      false,
		PublicMessage:  "per-user ticket limit reached",
		DetailsAllowed: true,
	},
	CodeSoldOut: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      false,
		PublicMessage:  "raffle is sold out",
		DetailsAllowed: true,
	},
	CodeInsufficientBalance: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "not enough points",
		DetailsAllowed: true,
	},
	CodeAlreadyDrawn: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      false,
		PublicMessage:  "raffle winners were already drawn",
		DetailsAllowed: false,
	},
	CodeNoEntries: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "raffle has no entries",
		DetailsAllowed: false,
	},
	CodeNoTickets: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "raffle has no tickets",
		DetailsAllowed: false,
	},
	CodeTimeout: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "operation timed out, please retry",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// Package validation rejects malformed use-case input before any I/O.
// Every check is pure and fails with a named Reason so callers can branch
// on the exact cause.
package validation

import (
	"errors"
	"fmt"
)

// Reason identifies why input was rejected.
type Reason string

const (
	ReasonInvalidPhoneNumber      Reason = "invalidPhoneNumber"
	ReasonInvalidVerificationCode Reason = "invalidVerificationCode"
	ReasonEmptyQuery              Reason = "emptyQuery"
	ReasonInvalidQuery            Reason = "invalidQuery"
	ReasonEmptyTagIDs             Reason = "emptyTagIds"
	ReasonTooManyTags             Reason = "tooManyTags"
	ReasonInvalidPagination       Reason = "invalidPagination"
	ReasonEmptyCreatorID          Reason = "emptyCreatorId"
	ReasonNoCorrectionItems       Reason = "noCorrectionItems"
	ReasonInvalidReason           Reason = "invalidReason"
	ReasonInvalidCorrectionItem   Reason = "invalidCorrectionItem"
	ReasonInvalidReferenceURL     Reason = "invalidReferenceUrl"
	ReasonInvalidTagName          Reason = "invalidTagName"
	ReasonInvalidApplicationType  Reason = "invalidApplicationType"
	ReasonEmptySearchText         Reason = "emptySearchText"
)

// Error is a validation failure. Field names the offending input when the
// request has more than one candidate.
type Error struct {
	Reason  Reason
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is matches any *Error with the same reason.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

func fail(r Reason, field, format string, args ...any) *Error {
	return &Error{Reason: r, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf returns the reason of the first *Error in err's chain, or "".
func ReasonOf(err error) Reason {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// Package apperr is the error taxonomy of a pipeline run. Every failed run
// ends with exactly one *Error naming the stage that failed and its kind.
package apperr

import (
	"errors"
	"fmt"

	"github.com/forPelevin/manimgen/internal/types"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindService    Kind = "service"
	KindFilesystem Kind = "filesystem"
	KindRender     Kind = "render"
	KindNotFound   Kind = "not_found"
)

// Sub-reasons for KindService.
const (
	ReasonAuth      = "auth"
	ReasonRateLimit = "rate_limit"
	ReasonNetwork   = "network"
	ReasonUpstream  = "upstream"
	ReasonMalformed = "malformed"
)

type Error struct {
	Kind    Kind
	Stage   types.Stage
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, stage types.Stage, message string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, types.StageValidating, message, nil)
}

// Service reports a completion service failure; reason is one of the Reason* constants.
func Service(reason, message string, err error) *Error {
	e := New(KindService, types.StageRequesting, message, err)
	e.Reason = reason
	return e
}

func Filesystem(message string, err error) *Error {
	return New(KindFilesystem, types.StageWriting, message, err)
}

func Render(exitCode int, err error) *Error {
	return New(KindRender, types.StageRendering, fmt.Sprintf("Manim rendering failed (code %d).", exitCode), err)
}

func NotFound(message string) *Error {
	return New(KindNotFound, types.StageLocating, message, nil)
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func StageOf(err error) types.Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// ReasonOf returns the service sub-reason, or "" for other kinds.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// UserMessage is the text shown in the error banner.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindService && e.Err != nil {
			return e.Error()
		}
		return e.Message
	}
	return err.Error()
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsService(err error) bool    { return KindOf(err) == KindService }
func IsFilesystem(err error) bool { return KindOf(err) == KindFilesystem }
func IsRender(err error) bool     { return KindOf(err) == KindRender }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }

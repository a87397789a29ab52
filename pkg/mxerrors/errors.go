// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mxerrors defines the closed error taxonomy shared by every layer
// of the core: the locator, the mutator, the managed file, and the
// transaction manager all surface one of these kinds, never a bespoke type.
package mxerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the closed set of failure categories an Error
// belongs to. Callers should compare Kinds with this package's Is helper
// (or errors.Is against an *Error of that Kind), never by inspecting
// Error.Message.
type Kind int

const (
	// InvalidFile means the source could not be parsed, the rebuild
	// subprocess failed, or the working tree status never drained.
	InvalidFile Kind = iota
	// FileNotFound means the target file was missing on attach.
	FileNotFound
	// OptionNotFound means the locator returned a NewInsertion where an
	// Existing position was required.
	OptionNotFound
	// NotAList means a list operation was invoked on a non-list option.
	NotAList
	// PermissionDenied means the OS denied an open or a write.
	PermissionDenied
	// FailToLock means another process already holds the advisory lock
	// we requested non-blockingly.
	FailToLock
	// TransactionNotBegun means the operation requires an open
	// transaction and none is open.
	TransactionNotBegun
	// RepositoryDirty means the version-controlled tree had uncommitted
	// changes at begin.
	RepositoryDirty
	// IOError wraps an underlying filesystem error.
	IOError
	// VcsError wraps an underlying version-control error.
	VcsError
)

// String returns the taxonomy name used in error messages and logs.
func (k Kind) String() string {
	switch k {
	case InvalidFile:
		return "InvalidFile"
	case FileNotFound:
		return "FileNotFound"
	case OptionNotFound:
		return "OptionNotFound"
	case NotAList:
		return "NotAList"
	case PermissionDenied:
		return "PermissionDenied"
	case FailToLock:
		return "FailToLock"
	case TransactionNotBegun:
		return "TransactionNotBegun"
	case RepositoryDirty:
		return "RepositoryDirty"
	case IOError:
		return "IOError"
	case VcsError:
		return "VcsError"
	default:
		return "Unknown"
	}
}

// Error is the single concrete error type raised by this module. Every
// failure carries exactly one Kind from the closed taxonomy above, an
// optional human-readable message, and an optional underlying cause (the
// OS or version-control error behind it, for any Kind built with Wrap).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" && e.Cause == nil {
		return e.Kind.String()
	}
	if e.Cause != nil {
		if e.Message == "" {
			return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
		}
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is/errors.As can traverse
// into it (e.g. to test against os.ErrNotExist or a go-git error value).
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, mxerrors.New(mxerrors.OptionNotFound, "")) without
// caring about the Message or Cause carried by either side.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an Error of the given Kind with a plain message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given Kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given Kind around an underlying cause.
// If cause is nil, Wrap returns nil so call sites can write
// `if err := mxerrors.Wrap(IOError, "reading file", readErr); err != nil`.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err's tree contains an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and reports whether extraction succeeded.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}

/*
 *     Copyright 2026 The Quack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package quackerr defines the taxonomy of errors produced by the QPK core
// so that callers can branch on kind with errors.As instead of string
// matching.
package quackerr

import "fmt"

// Kind identifies one of the error categories recognized across the core.
type Kind string

const (
	KindValidation      Kind = "ValidationError"
	KindIntegrity       Kind = "IntegrityError"
	KindCodec           Kind = "CodecError"
	KindIO              Kind = "IOError"
	KindConcurrentWrite Kind = "ConcurrentUpdate"
	KindVersionMismatch Kind = "VersionMismatch"
	KindRootMismatch    Kind = "RootMismatch"
	KindOperationConfl  Kind = "OperationConflict"
	KindPatchCorrupt    Kind = "PatchCorrupt"
	KindKeyMissing      Kind = "EncryptionKeyMissing"
)

// Error is the common envelope for every error kind in the taxonomy. Each
// carries a one-line human reason and, when applicable, the wrapped cause.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, quackerr.New(KindIntegrity, "")) to match on kind
// alone, ignoring reason and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an *Error that wraps cause, preserving it for errors.Unwrap.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// Validation, Integrity, Codec, IO, and the patch-applicator constructors
// are thin sugar over New/Wrap so call sites read like the taxonomy in the
// spec rather than repeating Kind constants.

func Validation(reason string) error           { return New(KindValidation, reason) }
func Validationf(format string, a ...any) error { return New(KindValidation, fmt.Sprintf(format, a...)) }

func Integrity(reason string) error { return New(KindIntegrity, reason) }

func Codec(algo, reason string) error {
	return New(KindCodec, fmt.Sprintf("%s: %s", algo, reason))
}

func IO(reason string, cause error) error { return Wrap(KindIO, reason, cause) }

func ConcurrentUpdate(reason string) error { return New(KindConcurrentWrite, reason) }

func VersionMismatch(want, got int) error {
	return New(KindVersionMismatch, fmt.Sprintf("expected current_version=%d, got %d", want, got))
}

// VersionMismatchStr is VersionMismatch for string-typed versions (bundle
// semver / build-id cursors, as opposed to the wire format_version).
func VersionMismatchStr(want, got string) error {
	return New(KindVersionMismatch, fmt.Sprintf("expected from_version=%s, got current_version=%s", want, got))
}

func RootMismatch(want, got string) error {
	return New(KindRootMismatch, fmt.Sprintf("expected merkle_root=%s, got %s", want, got))
}

func OperationConflict(reason string) error { return New(KindOperationConfl, reason) }

func PatchCorrupt(reason string) error { return New(KindPatchCorrupt, reason) }

func EncryptionKeyMissing(reason string) error { return New(KindKeyMissing, reason) }

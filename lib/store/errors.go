package store

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"go.etcd.io/bbolt"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCUnknown         RetCode = iota // 0: Unexpected failure, message passed through.
	RetCInvalidArgument                // 1: Malformed flags or arguments, store not touched.
	RetCPathNotFound                   // 2: A bucket path segment does not exist.
	RetCNotABucket                     // 3: A path segment names a key, not a bucket.
	RetCNotAKey                        // 4: A key name denotes a bucket.
	RetCKeyNotFound                    // 5: The key does not exist.
	RetCAlreadyExists                  // 6: create-bucket collision.
	RetCStoreLocked                    // 7: The file lock could not be acquired in time.
	RetCIOError                        // 8: File access failed or the file is not a bolt database.
)

func (c RetCode) String() string {
	switch c {
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCPathNotFound:
		return "PathNotFound"
	case RetCNotABucket:
		return "NotABucket"
	case RetCNotAKey:
		return "NotAKey"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCAlreadyExists:
		return "AlreadyExists"
	case RetCStoreLocked:
		return "StoreLocked"
	case RetCIOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// ExitCode is the process exit code reported for c.
func (c RetCode) ExitCode() int {
	switch c {
	case RetCInvalidArgument:
		return 2
	case RetCPathNotFound:
		return 3
	case RetCNotABucket:
		return 4
	case RetCNotAKey:
		return 5
	case RetCKeyNotFound:
		return 6
	case RetCAlreadyExists:
		return 7
	case RetCStoreLocked:
		return 8
	case RetCIOError:
		return 9
	default:
		return 1
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code, a message and optionally the underlying cause.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
	Err  error   // The cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to err.
func Wrap(code RetCode, err error, msg string) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// CodeOf returns the code carried by err, RetCUnknown if there is none.
func CodeOf(err error) RetCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return RetCUnknown
}

// AsError classifies err into the error taxonomy. Errors that already are
// *Error are returned unchanged; nil stays nil.
func AsError(err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, bucketpath.ErrNotFound):
		return Wrap(RetCPathNotFound, err, "")
	case errors.Is(err, bucketpath.ErrNotABucket):
		return Wrap(RetCNotABucket, err, "")
	case errors.Is(err, bucketpath.ErrInvalid):
		return Wrap(RetCInvalidArgument, err, "")
	case errors.Is(err, bbolt.ErrTimeout):
		return Wrap(RetCStoreLocked, err, "database is locked by another process")
	case errors.Is(err, bbolt.ErrInvalid), errors.Is(err, bbolt.ErrVersionMismatch), errors.Is(err, bbolt.ErrChecksum):
		return Wrap(RetCIOError, err, "not a valid bolt database")
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(RetCIOError, err, "database file does not exist")
	case errors.Is(err, fs.ErrPermission):
		return Wrap(RetCIOError, err, "permission denied")
	case errors.Is(err, bbolt.ErrBucketExists):
		return Wrap(RetCAlreadyExists, err, "")
	case errors.Is(err, bbolt.ErrBucketNotFound):
		return Wrap(RetCPathNotFound, err, "")
	case errors.Is(err, bbolt.ErrIncompatibleValue):
		return Wrap(RetCNotAKey, err, "name denotes a bucket")
	case errors.Is(err, bbolt.ErrKeyRequired), errors.Is(err, bbolt.ErrKeyTooLarge),
		errors.Is(err, bbolt.ErrValueTooLarge), errors.Is(err, bbolt.ErrBucketNameRequired):
		return Wrap(RetCInvalidArgument, err, "")
	case errors.Is(err, bbolt.ErrDatabaseReadOnly), errors.Is(err, bbolt.ErrTxNotWritable), errors.Is(err, db.ErrReadOnly):
		return Wrap(RetCIOError, err, "database is not writable")
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return Wrap(RetCIOError, err, "")
	}
	return Wrap(RetCUnknown, err, "")
}

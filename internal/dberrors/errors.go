// Package dberrors defines the sentinel error kinds shared across the
// storage engine and the helpers used to wrap and classify them.
package dberrors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the storage engine.
var (
	// ErrNoRoom indicates a slotted page cannot satisfy a request.
	ErrNoRoom = errors.New("no room in block")

	// ErrSchema indicates an unknown column, duplicate name, an attempt to
	// drop a catalog table, or an unsupported data type.
	ErrSchema = errors.New("schema error")

	// ErrNotSupported indicates a range query on a b-tree, a b-tree delete,
	// a non-equality WHERE clause, or another deliberately unimplemented
	// operation.
	ErrNotSupported = errors.New("not supported")

	// ErrIO indicates an underlying block-file failure.
	ErrIO = errors.New("io error")
)

// Wrap annotates err with op and marks it as belonging to kind so that
// errors.Is(wrapped, kind) succeeds.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Wrapf is Wrap with a formatted op.
func Wrapf(kind error, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	op := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// New builds a fresh error of the given kind with op as context, with no
// underlying cause to wrap.
func New(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// Is reports whether err is or wraps kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// IsNoRoom reports whether err is or wraps ErrNoRoom.
func IsNoRoom(err error) bool { return errors.Is(err, ErrNoRoom) }

// IsSchema reports whether err is or wraps ErrSchema.
func IsSchema(err error) bool { return errors.Is(err, ErrSchema) }

// IsNotSupported reports whether err is or wraps ErrNotSupported.
func IsNotSupported(err error) bool { return errors.Is(err, ErrNotSupported) }

// IsIO reports whether err is or wraps ErrIO.
func IsIO(err error) bool { return errors.Is(err, ErrIO) }

package common

import (
	"errors"
	"fmt"
)

// ErrReservedIdentifier is returned when attempting to assign the reserved
// identifier 0 to a remote object.
var ErrReservedIdentifier = errors.New("identifier 0 is reserved")

// VNErrType enumerates the kinds of errors raised by the virtual-network model.
type VNErrType uint32

const (
	// NotFound means no object is registered under the given name.
	NotFound VNErrType = iota
	// AlreadyExists means the name is already registered.
	AlreadyExists
	// InvalidName means the name is not a well-formed qualified name.
	InvalidName
	// IdentifierUnknown means the remote identifier of an object is required
	// but has not been resolved yet.
	IdentifierUnknown
	// NoRoute means there is no known address for a component.
	NoRoute
)

// VNErr ...
type VNErr struct {
	dataType string
	errType  VNErrType
	key      string
}

// NewVNErr ...
func NewVNErr(dataType string, errType VNErrType, key string) VNErr {
	return VNErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error ...
func (e VNErr) Error() string {
	m := ""
	switch e.errType {
	case NotFound:
		m = "does not exist"
	case AlreadyExists:
		m = "already exists"
	case InvalidName:
		m = "invalid name"
	case IdentifierUnknown:
		m = "identifier unknown"
	case NoRoute:
		m = "no route"
	}

	return fmt.Sprintf("%s %s %s", e.dataType, e.key, m)
}

// Key returns the name the error refers to.
func (e VNErr) Key() string {
	return e.key
}

// IsVN checks that an error is of type VNErr and that its code matches the
// provided VNErr code.
func IsVN(err error, t VNErrType) bool {
	var vnErr VNErr
	return errors.As(err, &vnErr) && vnErr.errType == t
}

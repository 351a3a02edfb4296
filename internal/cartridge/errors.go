package cartridge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies cartridge load failures
type ErrorKind uint8

const (
	ErrKindFS ErrorKind = iota
	ErrKindInvalidROM
	ErrKindIncompatibleMapper
	ErrKindROMTooShort
	ErrKindROMTooLong
	ErrKindInvalidLength
	ErrKindMissingHeader
)

// Sentinel errors, one per kind, for use with errors.Is
var (
	ErrFS                 = errors.New("filesystem error")
	ErrInvalidROM         = errors.New("invalid rom")
	ErrIncompatibleMapper = errors.New("incompatible mapper")
	ErrROMTooShort        = errors.New("rom too short")
	ErrROMTooLong         = errors.New("rom too long")
	ErrInvalidLength      = errors.New("invalid length")
	ErrMissingHeader      = errors.New("missing header")
)

var (
	errArchaicHeader = errors.New("archaic ines header")
	errZeroPRG       = errors.New("prg rom size cannot be zero")
	errSizeRange     = errors.New("rom size exponent out of range")
)

var kindSentinels = map[ErrorKind]error{
	ErrKindFS:                 ErrFS,
	ErrKindInvalidROM:         ErrInvalidROM,
	ErrKindIncompatibleMapper: ErrIncompatibleMapper,
	ErrKindROMTooShort:        ErrROMTooShort,
	ErrKindROMTooLong:         ErrROMTooLong,
	ErrKindInvalidLength:      ErrInvalidLength,
	ErrKindMissingHeader:      ErrMissingHeader,
}

// LoadError is returned for any failure to load a cartridge
type LoadError struct {
	Kind     ErrorKind
	MapperID uint16
	Err      error
}

func newLoadError(kind ErrorKind, err error) *LoadError {
	return &LoadError{Kind: kind, Err: err}
}

func (e *LoadError) Error() string {
	msg := kindSentinels[e.Kind].Error()
	if e.Kind == ErrKindIncompatibleMapper {
		msg = fmt.Sprintf("%s %d", msg, e.MapperID)
	}
	if e.Err != nil {
		return fmt.Sprintf("cartridge: %s: %v", msg, e.Err)
	}
	return "cartridge: " + msg
}

// Is matches the sentinel for the error kind
func (e *LoadError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

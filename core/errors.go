package core

import (
	"errors"
	"fmt"
)

var (
	ErrParse           = errors.New("parse error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidRange    = errors.New("invalid range")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEmptyDataset    = errors.New("empty dataset")
	ErrIO              = errors.New("io error")
	ErrNotEnoughPoints = errors.New("not enough points to plot")
)

// ParseError reports the first row of a load source that could not be
// turned into a Record. Line is 1-based.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// IndexError is returned by Delete for a position outside [0, Len).
type IndexError struct {
	Position int
	Len      int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("position %d out of range [0, %d)", e.Position, e.Len)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

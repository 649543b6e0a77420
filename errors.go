package main

import (
	"errors"
	"fmt"
)

var (
	ErrEncoding             = errors.New("request is not valid UTF-8")
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrRequestTooLarge      = errors.New("request exceeds size limit")
	ErrFileNotFound         = errors.New("file not found")
	ErrPathEscapesRoot      = errors.New("path escapes served directory")
	ErrInvalidConfig        = errors.New("invalid config")
)

// ParseError reports why raw request bytes could not become a Request.
type ParseError struct {
	Line string // offending request line, empty for encoding failures
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

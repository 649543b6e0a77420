package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

var headerTerminator = []byte("\r\n\r\n")

// ParseRequest turns the raw bytes of one request into a Request.
//
// Everything after the first blank line is the body, taken verbatim. The
// body is not checked against any Content-Length the client declared.
func ParseRequest(raw []byte) (*Request, error) {
	if !utf8.Valid(raw) {
		return nil, &ParseError{Err: ErrEncoding}
	}
	head, body, _ := bytes.Cut(raw, headerTerminator)
	lines := strings.Split(string(head), "\r\n")

	fields := strings.Split(lines[0], " ")
	if len(fields) != 3 {
		return nil, &ParseError{Line: lines[0], Err: ErrMalformedRequestLine}
	}
	req := &Request{
		Method:  fields[0],
		Path:    fields[1],
		Version: fields[2],
		Headers: parseHeaderLines(lines[1:]),
	}
	if len(body) > 0 {
		req.Body = bytes.Clone(body)
	}
	return req, nil
}

// parseHeaderLines splits each line on the first ": ". Lines without it are
// skipped and a repeated name keeps its last value.
func parseHeaderLines(lines []string) HTTPHeader {
	headers := make(HTTPHeader)
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		headers[name] = value
	}
	return headers
}

func contentLength(h HTTPHeader) (int, error) {
	cls, ok := h["Content-Length"]
	if !ok {
		return 0, fmt.Errorf("no Content-Length")
	}
	cl, err := strconv.Atoi(cls)
	if err != nil || cl < 0 {
		return 0, fmt.Errorf("invalid Content-Length %q", cls)
	}
	return cl, nil
}

// RequestReader collects the raw bytes of a single request from a
// connection. It reads until the header block is complete and then until
// the declared Content-Length is buffered, never past maxSize.
type RequestReader struct {
	r          io.Reader
	chunkSize  int
	maxSize    int
	singleRead bool

	buf       []byte
	scanned   int // buf[:scanned] holds no header terminator
	headerEnd int
	bodyLen   int
	eof       bool
}

type readState func(*RequestReader) (readState, error)

func NewRequestReader(r io.Reader, chunkSize, maxSize int, singleRead bool) *RequestReader {
	return &RequestReader{
		r:          r,
		chunkSize:  chunkSize,
		maxSize:    maxSize,
		singleRead: singleRead,
	}
}

// ReadRequest returns whatever was read once the request is complete or
// the peer stopped sending. An empty result means the peer sent nothing.
func (r *RequestReader) ReadRequest() ([]byte, error) {
	var state readState = readingHeaders
	if r.singleRead {
		state = readingOnce
	}
	for state != nil {
		var err error
		if state, err = state(r); err != nil {
			return nil, err
		}
	}
	return r.buf, nil
}

func (r *RequestReader) fill() error {
	if len(r.buf) >= r.maxSize {
		return fmt.Errorf("%w: more than %d bytes", ErrRequestTooLarge, r.maxSize)
	}
	start := len(r.buf)
	r.buf = append(r.buf, make([]byte, min(r.chunkSize, r.maxSize-start))...)
	n, err := r.r.Read(r.buf[start:])
	r.buf = r.buf[:start+n]
	if err == io.EOF {
		r.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// state funcs

func readingOnce(r *RequestReader) (readState, error) {
	if err := r.fill(); err != nil {
		return nil, err
	}
	return complete, nil
}

func readingHeaders(r *RequestReader) (readState, error) {
	if i := bytes.Index(r.buf[r.scanned:], headerTerminator); i >= 0 {
		r.headerEnd = r.scanned + i + len(headerTerminator)
		lines := strings.Split(string(r.buf[:r.headerEnd-len(headerTerminator)]), "\r\n")
		if cl, err := contentLength(parseHeaderLines(lines[1:])); err == nil {
			r.bodyLen = cl
		}
		if r.bodyLen > r.maxSize-r.headerEnd {
			return nil, fmt.Errorf("%w: declared body of %d bytes", ErrRequestTooLarge, r.bodyLen)
		}
		return readingBody, nil
	}
	if r.eof {
		return complete, nil
	}
	r.scanned = max(0, len(r.buf)-len(headerTerminator)+1)
	if err := r.fill(); err != nil {
		return nil, err
	}
	return readingHeaders, nil
}

func readingBody(r *RequestReader) (readState, error) {
	if len(r.buf)-r.headerEnd >= r.bodyLen || r.eof {
		return complete, nil
	}
	if err := r.fill(); err != nil {
		return nil, err
	}
	return readingBody, nil
}

func complete(r *RequestReader) (readState, error) {
	return nil, nil
}

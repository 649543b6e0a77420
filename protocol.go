package main

import "strconv"

// Not map[string][]string, unlike http.Header. Names keep the case they
// arrived with and every lookup is an exact string match.
type HTTPHeader map[string]string

const httpVersion = "HTTP/1.1"

const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusNotFound = 404
)

var statusPhrases = map[int]string{
	StatusOK:       "OK",
	StatusCreated:  "Created",
	StatusNotFound: "Not Found",
}

const (
	contentTypeText   = "text/plain"
	contentTypeBinary = "application/octet-stream"
)

// Request is one parsed request. It is never modified after ParseRequest
// returns it.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers HTTPHeader
	Body    []byte // nil when nothing followed the header block
}

type Response struct {
	Version string
	Status  int
	Phrase  string
	Headers HTTPHeader
	Body    []byte
}

// NewResponse returns a response for one of the known statuses with
// Content-Type preset to text/plain.
func NewResponse(status int) *Response {
	return &Response{
		Version: httpVersion,
		Status:  status,
		Phrase:  statusPhrases[status],
		Headers: HTTPHeader{"Content-Type": contentTypeText},
	}
}

func textResponse(status int, body string) *Response {
	res := NewResponse(status)
	res.Body = []byte(body)
	return res
}

// setContentLength derives Content-Length from the body's byte length. A
// response without a body carries no Content-Length at all.
func (r *Response) setContentLength() {
	delete(r.Headers, "Content-Length")
	if len(r.Body) > 0 {
		r.Headers["Content-Length"] = strconv.Itoa(len(r.Body))
	}
}

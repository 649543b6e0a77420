package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// EncodeResponse renders res in wire format. Headers are written sorted by
// name so the output is deterministic.
func EncodeResponse(res *Response) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d %s\r\n", res.Version, res.Status, res.Phrase)

	names := make([]string, 0, len(res.Headers))
	for name := range res.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\r\n", name, res.Headers[name])
	}
	b.WriteString("\r\n")
	b.Write(res.Body)
	return b.Bytes()
}

func WriteResponse(w io.Writer, res *Response) (int, error) {
	return w.Write(EncodeResponse(res))
}

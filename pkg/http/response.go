package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// BufferedResponse is an HTTP response whose body has been read into memory
// once. Its accessors can be called any number of times.
type BufferedResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	// URL is the URL that was requested.
	URL string

	body []byte
}

// newBufferedResponse drains and closes resp.Body.
func newBufferedResponse(url string, resp *http.Response) (*BufferedResponse, error) {
	body := []byte{}
	if resp.Body != nil {
		defer resp.Body.Close()
		var err error
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, err
		}
	}
	return &BufferedResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		URL:        url,
		body:       body,
	}, nil
}

// Text returns the body decoded as UTF-8. Invalid sequences become U+FFFD.
func (r *BufferedResponse) Text() string {
	if utf8.Valid(r.body) {
		return string(r.body)
	}
	return strings.ToValidUTF8(string(r.body), string(utf8.RuneError))
}

// JSON decodes the body into v. A body that is not valid JSON yields a
// *MalformedBodyError; decoding errors on valid JSON, such as
// *json.UnmarshalTypeError, are returned as is.
func (r *BufferedResponse) JSON(v any) error {
	if !json.Valid(r.body) {
		// Unmarshal reports the syntax error with its offset.
		err := json.Unmarshal(r.body, v)
		return &MalformedBodyError{
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Body:       r.Text(),
			Err:        err,
		}
	}
	return json.Unmarshal(r.body, v)
}

// Bytes returns a copy of the raw body.
func (r *BufferedResponse) Bytes() []byte {
	return bytes.Clone(r.body)
}

// Len returns the body size in bytes.
func (r *BufferedResponse) Len() int {
	return len(r.body)
}

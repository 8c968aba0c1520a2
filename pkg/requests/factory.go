// Package requests builds mock HTTP requests for handler tests.
//
//	rf := requests.NewFactory()
//	rec := requests.Do(handler, rf.Get("/hello/"))
package requests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// HeaderXRequestID is the request ID header set on every built request.
const HeaderXRequestID = "X-Request-ID"

// Factory builds *http.Request values for use in handler tests.
type Factory struct {
	headers http.Header
}

// NewFactory creates a Factory with no default headers.
func NewFactory() *Factory {
	return &Factory{headers: make(http.Header)}
}

// WithHeader returns a Factory that sets the header on every built request.
func (f *Factory) WithHeader(key, value string) *Factory {
	headers := f.headers.Clone()
	headers.Set(key, value)
	return &Factory{headers: headers}
}

// Get builds a GET request for path.
func (f *Factory) Get(path string) *http.Request {
	return f.Request(http.MethodGet, path, nil)
}

// Delete builds a DELETE request for path.
func (f *Factory) Delete(path string) *http.Request {
	return f.Request(http.MethodDelete, path, nil)
}

// Post builds a form-encoded POST request.
func (f *Factory) Post(path string, form url.Values) *http.Request {
	req := f.Request(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// PostJSON builds a POST request with a JSON body. Marshal failures panic:
// a test handing in an unmarshalable body is a programming error.
func (f *Factory) PostJSON(path string, body any) *http.Request {
	return f.jsonRequest(http.MethodPost, path, body)
}

// PutJSON builds a PUT request with a JSON body.
func (f *Factory) PutJSON(path string, body any) *http.Request {
	return f.jsonRequest(http.MethodPut, path, body)
}

func (f *Factory) jsonRequest(method, path string, body any) *http.Request {
	data, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("requests: marshal %s body: %v", method, err))
	}
	req := f.Request(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Request builds a request with the factory's default headers and a
// generated request ID. Headers already set by the caller win.
func (f *Factory) Request(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	for key, values := range f.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get(HeaderXRequestID) == "" {
		req.Header.Set(HeaderXRequestID, uuid.New().String())
	}
	return req
}

// Do runs the request through the handler and returns the recorder.
func Do(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals the recorded response body into v, failing the test
// on malformed JSON.
func DecodeJSON(t testing.TB, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}

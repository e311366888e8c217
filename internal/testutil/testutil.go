// Package testutil holds payload builders and recorder helpers shared by the
// HTTP tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
)

// NewBookPayload is a complete create payload for the given ISBN.
func NewBookPayload(isbn string) map[string]interface{} {
	p := UpdateBookPayload()
	p["isbn"] = isbn
	p["amazon_url"] = "https://amazon.com/test"
	p["author"] = "John"
	p["pages"] = 10
	p["publisher"] = "Me"
	p["title"] = "Definitely Real Book"
	p["year"] = 2023
	return p
}

// UpdateBookPayload is a complete update payload without the ISBN.
func UpdateBookPayload() map[string]interface{} {
	return map[string]interface{}{
		"amazon_url": "https://amazon.com/other",
		"author":     "different person",
		"language":   "English",
		"pages":      1000,
		"publisher":  "new publisher",
		"title":      "Updated Book",
		"year":       2024,
	}
}

// NewRequest builds a request whose body is body encoded as JSON. A nil body
// sends no payload.
func NewRequest(method, path string, body interface{}) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		panic("testutil: encode request body: " + err.Error())
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// Response is a served request with its JSON object body decoded. Body is nil
// when the response was not a JSON object.
type Response struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// Serve runs r through h and captures the response.
func Serve(h http.Handler, r *http.Request) Response {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)

	out := Response{Code: res.StatusCode, Header: res.Header}
	_ = json.Unmarshal(raw, &out.Body)
	return out
}

// Object returns the nested JSON object stored under key, or nil.
func (r Response) Object(key string) map[string]interface{} {
	v, _ := r.Body[key].(map[string]interface{})
	return v
}

// List returns the JSON array stored under key, or nil.
func (r Response) List(key string) []interface{} {
	v, _ := r.Body[key].([]interface{})
	return v
}

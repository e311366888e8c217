package book

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"booksapi/internal/httpx"
)

// Op selects the schema a request body is checked against.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// ValidationError lists every constraint a payload violated.
type ValidationError struct {
	Details []httpx.ErrorDetail
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, d.Message)
	}
	return "invalid book: " + strings.Join(msgs, "; ")
}

type updateBookReq struct {
	AmazonURL *string `json:"amazon_url" validate:"required,url"`
	Author    *string `json:"author" validate:"required,min=1"`
	Language  *string `json:"language" validate:"required"`
	Pages     *int    `json:"pages" validate:"required,gte=0,lte=2147483647"`
	Publisher *string `json:"publisher" validate:"required"`
	Title     *string `json:"title" validate:"required,min=1"`
	Year      *int    `json:"year" validate:"required,gte=-2147483648,lte=2147483647"`
}

type createBookReq struct {
	ISBN   *string `json:"isbn" validate:"required,min=1,max=32"`
	fields updateBookReq
}

func (r *updateBookReq) field(name string) interface{} {
	switch name {
	case "amazon_url":
		return &r.AmazonURL
	case "author":
		return &r.Author
	case "language":
		return &r.Language
	case "pages":
		return &r.Pages
	case "publisher":
		return &r.Publisher
	case "title":
		return &r.Title
	case "year":
		return &r.Year
	}
	return nil
}

func (r *createBookReq) field(name string) interface{} {
	if name == "isbn" {
		return &r.ISBN
	}
	return r.fields.field(name)
}

func (r *updateBookReq) book() Book {
	return Book{
		AmazonURL: *r.AmazonURL,
		Author:    *r.Author,
		Language:  *r.Language,
		Pages:     *r.Pages,
		Publisher: *r.Publisher,
		Title:     *r.Title,
		Year:      *r.Year,
	}
}

// DecodeBook checks body against the schema for op and returns the typed book.
// On update the returned book has no ISBN; an "isbn" key in the body is dropped.
// Any violation yields a *ValidationError and a zero Book.
func DecodeBook(body []byte, op Op) (Book, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Book{}, &ValidationError{Details: []httpx.ErrorDetail{
			{Field: "body", Message: "request body must be a JSON object"},
		}}
	}

	var (
		create createBookReq
		target interface{ field(string) interface{} }
		checks []interface{}
	)
	switch op {
	case OpCreate:
		target = &create
		checks = []interface{}{&create, &create.fields}
	case OpUpdate:
		target = &create.fields
		checks = []interface{}{&create.fields}
	default:
		return Book{}, fmt.Errorf("decode book: unknown op %v", op)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var details []httpx.ErrorDetail
	reported := make(map[string]bool)
	for _, k := range keys {
		dst := target.field(k)
		if dst == nil {
			if op == OpUpdate && k == "isbn" {
				continue
			}
			details = append(details, httpx.ErrorDetail{Field: k, Message: fmt.Sprintf("%s is not allowed", k)})
			reported[k] = true
			continue
		}
		if err := decodeField(raw[k], dst); err != nil {
			details = append(details, httpx.ErrorDetail{Field: k, Message: typeMessage(k, dst)})
			reported[k] = true
		}
	}

	for _, c := range checks {
		for _, d := range httpx.ValidateStruct(c) {
			if !reported[d.Field] {
				details = append(details, d)
				reported[d.Field] = true
			}
		}
	}

	if len(details) > 0 {
		return Book{}, &ValidationError{Details: details}
	}

	b := create.fields.book()
	if op == OpCreate {
		b.ISBN = *create.ISBN
	}
	return b, nil
}

// decodeField unmarshals one value into dst. Integer fields accept any JSON
// number with an integral value, so 100.0 and 1e2 both read as 100.
func decodeField(raw json.RawMessage, dst interface{}) error {
	p, ok := dst.(**int)
	if !ok {
		return json.Unmarshal(raw, dst)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch n := v.(type) {
	case nil:
		*p = nil
		return nil
	case json.Number:
		i, err := integral(n)
		if err != nil {
			return err
		}
		*p = &i
		return nil
	default:
		return fmt.Errorf("not a number: %T", v)
	}
}

// maxExactFloat is the largest magnitude a float64 holds without losing integers.
const maxExactFloat = 1 << 53

func integral(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		if int64(int(i)) != i {
			return 0, fmt.Errorf("%s overflows int", n)
		}
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return int(f), nil
}

func typeMessage(field string, dst interface{}) string {
	if _, ok := dst.(**int); ok {
		return fmt.Sprintf("%s must be an integer", field)
	}
	return fmt.Sprintf("%s must be a string", field)
}

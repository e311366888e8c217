package book

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCreateBody = `{
	"isbn": "123123123",
	"amazon_url": "https://amazon.com/test",
	"author": "John",
	"language": "English",
	"pages": 10,
	"publisher": "Me",
	"title": "Definitely Real Book",
	"year": 2023
}`

const validUpdateBody = `{
	"amazon_url": "https://amazon.com/other",
	"author": "different person",
	"language": "English",
	"pages": 1000,
	"publisher": "new publisher",
	"title": "Updated Book",
	"year": 2024
}`

func detailFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "expected *ValidationError, got %v", err)
	fields := make(map[string]string, len(validationErr.Details))
	for _, d := range validationErr.Details {
		fields[d.Field] = d.Message
	}
	return fields
}

func TestDecodeBook_Create(t *testing.T) {
	b, err := DecodeBook([]byte(validCreateBody), OpCreate)
	require.NoError(t, err)
	assert.Equal(t, Book{
		ISBN:      "123123123",
		AmazonURL: "https://amazon.com/test",
		Author:    "John",
		Language:  "English",
		Pages:     10,
		Publisher: "Me",
		Title:     "Definitely Real Book",
		Year:      2023,
	}, b)
}

func TestDecodeBook_CreateMissingFields(t *testing.T) {
	_, err := DecodeBook([]byte(`{"pages": 20000}`), OpCreate)
	fields := detailFields(t, err)

	for _, f := range []string{"isbn", "amazon_url", "author", "language", "publisher", "title", "year"} {
		assert.Equal(t, f+" is required", fields[f])
	}
	assert.NotContains(t, fields, "pages")
}

func TestDecodeBook_TypeErrors(t *testing.T) {
	body := `{
		"isbn": 123,
		"amazon_url": "https://amazon.com",
		"author": "A",
		"language": "English",
		"pages": "many",
		"publisher": "P",
		"title": "T",
		"year": 20.5
	}`
	_, err := DecodeBook([]byte(body), OpCreate)
	fields := detailFields(t, err)

	assert.Equal(t, "isbn must be a string", fields["isbn"])
	assert.Equal(t, "pages must be an integer", fields["pages"])
	assert.Equal(t, "year must be an integer", fields["year"])
	assert.Len(t, fields, 3)
}

func TestDecodeBook_Constraints(t *testing.T) {
	body := `{
		"isbn": "",
		"amazon_url": "not a url",
		"author": "A",
		"language": "English",
		"pages": -1,
		"publisher": "P",
		"title": "",
		"year": 2020
	}`
	_, err := DecodeBook([]byte(body), OpCreate)
	fields := detailFields(t, err)

	assert.Equal(t, "isbn must not be empty", fields["isbn"])
	assert.Equal(t, "amazon_url must be a valid URL", fields["amazon_url"])
	assert.Equal(t, "pages must be greater than or equal to 0", fields["pages"])
	assert.Equal(t, "title must not be empty", fields["title"])
}

func TestDecodeBook_NullCountsAsMissing(t *testing.T) {
	body := `{
		"isbn": "1",
		"amazon_url": "https://amazon.com",
		"author": null,
		"language": "English",
		"pages": 1,
		"publisher": "P",
		"title": "T",
		"year": 2020
	}`
	_, err := DecodeBook([]byte(body), OpCreate)
	fields := detailFields(t, err)

	assert.Equal(t, map[string]string{"author": "author is required"}, fields)
}

func TestDecodeBook_Update(t *testing.T) {
	b, err := DecodeBook([]byte(validUpdateBody), OpUpdate)
	require.NoError(t, err)
	assert.Empty(t, b.ISBN)
	assert.Equal(t, "Updated Book", b.Title)
	assert.Equal(t, 1000, b.Pages)
}

func TestDecodeBook_UpdateStripsISBN(t *testing.T) {
	body := `{
		"isbn": "999",
		"amazon_url": "https://amazon.com",
		"author": "A",
		"language": "English",
		"pages": 1,
		"publisher": "P",
		"title": "T",
		"year": 2020
	}`
	b, err := DecodeBook([]byte(body), OpUpdate)
	require.NoError(t, err)
	assert.Empty(t, b.ISBN)
}

func TestDecodeBook_UpdateRejectsUnknownField(t *testing.T) {
	body := `{
		"isbn": "123465762",
		"badField": "DO NOT ADD ME!",
		"amazon_url": "https://amazon.com",
		"author": "different person",
		"language": "English",
		"pages": 1000,
		"publisher": "new publisher",
		"title": "Updated Book",
		"year": 2024
	}`
	_, err := DecodeBook([]byte(body), OpUpdate)
	fields := detailFields(t, err)

	assert.Equal(t, map[string]string{"badField": "badField is not allowed"}, fields)
}

func TestDecodeBook_CreateRejectsUnknownField(t *testing.T) {
	body := `{"extra": true, "also": 1}`
	_, err := DecodeBook([]byte(body), OpCreate)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	// unknown keys come first, sorted
	assert.Equal(t, "also", validationErr.Details[0].Field)
	assert.Equal(t, "extra", validationErr.Details[1].Field)
}

func TestDecodeBook_NotAnObject(t *testing.T) {
	for _, body := range []string{``, `[]`, `"book"`, `{"isbn":`} {
		_, err := DecodeBook([]byte(body), OpCreate)
		fields := detailFields(t, err)
		assert.Equal(t, "request body must be a JSON object", fields["body"], "body %q", body)
	}
}

func TestValidationError_Error(t *testing.T) {
	_, err := DecodeBook([]byte(`{"title": "T"}`), OpUpdate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid book: ")
	assert.Contains(t, err.Error(), "author is required")
}

func bookBodyWithNumbers(pages, year string) []byte {
	return []byte(`{
		"isbn": "1",
		"amazon_url": "https://amazon.com",
		"author": "A",
		"language": "English",
		"pages": ` + pages + `,
		"publisher": "P",
		"title": "T",
		"year": ` + year + `
	}`)
}

func TestDecodeBook_IntegralNumbers(t *testing.T) {
	tests := []struct {
		pages, year string
		wantPages   int
		wantYear    int
	}{
		{"100.0", "2020", 100, 2020},
		{"1e2", "2.02e3", 100, 2020},
		{"0", "-500", 0, -500},
		{"2147483647", "-2147483648", 2147483647, -2147483648},
	}
	for _, tt := range tests {
		t.Run(tt.pages+"/"+tt.year, func(t *testing.T) {
			b, err := DecodeBook(bookBodyWithNumbers(tt.pages, tt.year), OpCreate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPages, b.Pages)
			assert.Equal(t, tt.wantYear, b.Year)
		})
	}
}

func TestDecodeBook_NonIntegralNumbers(t *testing.T) {
	for _, pages := range []string{"100.5", "1e-1", "1e300", `"100"`, "true"} {
		_, err := DecodeBook(bookBodyWithNumbers(pages, "2020"), OpCreate)
		fields := detailFields(t, err)
		assert.Equal(t, map[string]string{"pages": "pages must be an integer"}, fields, "pages %s", pages)
	}
}

func TestDecodeBook_IntegerColumnRange(t *testing.T) {
	_, err := DecodeBook(bookBodyWithNumbers("2147483648", "9000000000"), OpCreate)
	fields := detailFields(t, err)

	assert.Equal(t, "pages must be less than or equal to 2147483647", fields["pages"])
	assert.Equal(t, "year must be less than or equal to 2147483647", fields["year"])

	_, err = DecodeBook(bookBodyWithNumbers("1", "-2147483649"), OpUpdate)
	fields = detailFields(t, err)
	assert.Equal(t, map[string]string{"year": "year must be greater than or equal to -2147483648"}, fields)
}

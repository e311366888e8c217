package book

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

const booksTable = "books"

var bookColumns = []interface{}{
	"isbn", "amazon_url", "author", "language", "pages", "publisher", "title", "year",
}

// queries builds the prepared statements shared by the SQL repositories.
type queries struct {
	dialect goqu.DialectWrapper
}

func newQueries(dialect string) queries {
	return queries{dialect: goqu.Dialect(dialect)}
}

func mutableRecord(b Book) goqu.Record {
	return goqu.Record{
		"amazon_url": b.AmazonURL,
		"author":     b.Author,
		"language":   b.Language,
		"pages":      b.Pages,
		"publisher":  b.Publisher,
		"title":      b.Title,
		"year":       b.Year,
	}
}

func (q queries) insert(b Book) *goqu.InsertDataset {
	rec := mutableRecord(b)
	rec["isbn"] = b.ISBN
	return q.dialect.Insert(booksTable).Rows(rec).Prepared(true)
}

func (q queries) selectAll() *goqu.SelectDataset {
	return q.dialect.From(booksTable).
		Select(bookColumns...).
		Order(goqu.C("title").Asc(), goqu.C("isbn").Asc()).
		Prepared(true)
}

func (q queries) selectByISBN(isbn string) *goqu.SelectDataset {
	return q.dialect.From(booksTable).
		Select(bookColumns...).
		Where(goqu.Ex{"isbn": isbn}).
		Limit(1).
		Prepared(true)
}

func (q queries) update(b Book) *goqu.UpdateDataset {
	return q.dialect.Update(booksTable).
		Set(mutableRecord(b)).
		Where(goqu.Ex{"isbn": b.ISBN}).
		Prepared(true)
}

func (q queries) delete(isbn string) *goqu.DeleteDataset {
	return q.dialect.Delete(booksTable).
		Where(goqu.Ex{"isbn": isbn}).
		Prepared(true)
}

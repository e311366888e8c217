package book

import (
	"errors"
	"io"
	"net/http"

	"booksapi/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

type bookResponse struct {
	Book Book `json:"book"`
}

type booksResponse struct {
	Books []Book `json:"books"`
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("GET /books/{isbn}", h.GetByISBN)
	mux.HandleFunc("PUT /books/{isbn}", h.Update)
	mux.HandleFunc("DELETE /books/{isbn}", h.Delete)
}

// Create handles POST /books
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param request body createBookReq true "Book"
// @Success 201 {object} bookResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	in, err := DecodeBook(body, OpCreate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bookResponse{Book: created})
}

// List handles GET /books
// @Summary List books
// @Description All books ordered by title
// @Tags books
// @Produce json
// @Success 200 {object} booksResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSON(w, http.StatusOK, booksResponse{Books: books})
}

// GetByISBN handles GET /books/{isbn}
// @Summary Get book by ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Success 200 {object} bookResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{isbn} [get]
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	if isbn == "" {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	b, err := h.service.GetByISBN(r.Context(), isbn)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bookResponse{Book: b})
}

// Update handles PUT /books/{isbn}
// @Summary Replace a book
// @Description Replaces every field but the ISBN. Unknown fields are rejected.
// @Tags books
// @Accept json
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Param request body updateBookReq true "Book"
// @Success 200 {object} bookResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{isbn} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	if isbn == "" {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	in, err := DecodeBook(body, OpUpdate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), isbn, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bookResponse{Book: updated})
}

// Delete handles DELETE /books/{isbn}
// @Summary Delete a book
// @Tags books
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Success 200 {object} httpx.MessageResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{isbn} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	if isbn == "" {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	if err := h.service.Delete(r.Context(), isbn); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, http.StatusOK, "Book deleted")
}

func (h *HTTPHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return nil, false
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return nil, false
	}
	return body, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErr.Details)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrConflict):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "Book with this ISBN already exists", nil)
	default:
		h.logger.Error("book request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

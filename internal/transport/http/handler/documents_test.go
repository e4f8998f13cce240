package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/landing-auth/internal/application/document"
	"github.com/landing-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockDocumentSvc struct{ mock.Mock }

func (m *mockDocumentSvc) List(ctx context.Context, collection string, opts document.ListOptions) ([]map[string]interface{}, error) {
	args := m.Called(ctx, collection, opts)
	rows, _ := args.Get(0).([]map[string]interface{})
	return rows, args.Error(1)
}
func (m *mockDocumentSvc) Get(ctx context.Context, collection, docID string) (map[string]interface{}, error) {
	args := m.Called(ctx, collection, docID)
	doc, _ := args.Get(0).(map[string]interface{})
	return doc, args.Error(1)
}
func (m *mockDocumentSvc) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	args := m.Called(ctx, collection, data)
	return args.String(0), args.Error(1)
}
func (m *mockDocumentSvc) Update(ctx context.Context, collection, docID string, fields map[string]interface{}) error {
	return m.Called(ctx, collection, docID, fields).Error(0)
}
func (m *mockDocumentSvc) Delete(ctx context.Context, collection, docID string) error {
	return m.Called(ctx, collection, docID).Error(0)
}

func documentRouter(svc document.Service) http.Handler {
	h := NewDocumentHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/db/{collection}", h.List)
	r.Post("/api/db/{collection}", h.Create)
	r.Get("/api/db/{collection}/{id}", h.Get)
	r.Patch("/api/db/{collection}/{id}", h.Update)
	r.Put("/api/db/{collection}/{id}", h.Update)
	r.Delete("/api/db/{collection}/{id}", h.Delete)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestDocuments_ListPassesSortOptions(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("List", mock.Anything, "posts", document.ListOptions{SortBy: "rank", Desc: true}).
		Return([]map[string]interface{}{{"id": "p1"}}, nil)

	rr := serve(documentRouter(svc), http.MethodGet, "/api/db/posts?sortBy=rank&order=DESC", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":"p1"}]`, rr.Body.String())
}

func TestDocuments_InvalidName(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("List", mock.Anything, "bad.name", mock.Anything).Return(nil, domain.NewError(domain.ErrBadRequest, "Invalid collection or id"))

	rr := serve(documentRouter(svc), http.MethodGet, "/api/db/bad.name", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocuments_GetMissing(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Get", mock.Anything, "posts", "nope").Return(nil, domain.ErrNotFound)

	rr := serve(documentRouter(svc), http.MethodGet, "/api/db/posts/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDocuments_CreateReturnsID(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Create", mock.Anything, "posts", map[string]interface{}{"title": "hi"}).Return("01J", nil)

	rr := serve(documentRouter(svc), http.MethodPost, "/api/db/posts", `{"title":"hi"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":"01J"}`, rr.Body.String())
}

func TestDocuments_CreateBadJSON(t *testing.T) {
	rr := serve(documentRouter(&mockDocumentSvc{}), http.MethodPost, "/api/db/posts", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocuments_PatchAndPutReturnNoContent(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Update", mock.Anything, "posts", "p1", mock.Anything).Return(nil)

	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		rr := serve(documentRouter(svc), method, "/api/db/posts/p1", `{"title":"new"}`)
		assert.Equal(t, http.StatusNoContent, rr.Code, method)
	}
}

func TestDocuments_DeleteFailure(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Delete", mock.Anything, "posts", "p1").Return(errors.New("timeout"))

	rr := serve(documentRouter(svc), http.MethodDelete, "/api/db/posts/p1", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, rr.Body.String())
}

func TestDocuments_Delete(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Delete", mock.Anything, "posts", "p1").Return(nil)

	rr := serve(documentRouter(svc), http.MethodDelete, "/api/db/posts/p1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

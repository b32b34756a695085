package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	t.Run("defaults when unspecified", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		p := ParsePagination(req)
		assert.Equal(t, DefaultLimit, p.Limit)
		assert.Equal(t, 0, p.Offset)
	})

	t.Run("parses explicit values", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?limit=20&offset=40", nil)
		p := ParsePagination(req)
		assert.Equal(t, 20, p.Limit)
		assert.Equal(t, 40, p.Offset)
	})

	t.Run("caps limit at maximum", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?limit=9999", nil)
		p := ParsePagination(req)
		assert.Equal(t, DefaultLimit, p.Limit)
	})

	t.Run("rejects negative offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?offset=-5", nil)
		p := ParsePagination(req)
		assert.Equal(t, 0, p.Offset)
	})

	t.Run("ignores garbage input", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?limit=abc&offset=xyz", nil)
		p := ParsePagination(req)
		assert.Equal(t, DefaultLimit, p.Limit)
		assert.Equal(t, 0, p.Offset)
	})
}

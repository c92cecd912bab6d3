package api

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/store"
)

// ListVocab handles GET /api/vocab with level, q, page, and page_size
// query parameters.
func (s *Server) ListVocab(c *gin.Context) {
	q, ok := s.bindListQuery(c)
	if !ok {
		return
	}

	page, err := s.catalog.ListVocab(c.Request.Context(), q)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetVocab handles GET /api/vocab/:id.
func (s *Server) GetVocab(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return
	}

	item, err := s.catalog.GetVocab(c.Request.Context(), id)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListKanji handles GET /api/kanji with the same query parameters as the
// vocabulary listing.
func (s *Server) ListKanji(c *gin.Context) {
	q, ok := s.bindListQuery(c)
	if !ok {
		return
	}

	page, err := s.catalog.ListKanji(c.Request.Context(), q)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetKanji handles GET /api/kanji/:character. The parameter is a single
// kanji character; a numeric parameter is treated as an id lookup.
func (s *Server) GetKanji(c *gin.Context) {
	param := c.Param("character")

	if id, err := strconv.Atoi(param); err == nil {
		if id <= 0 {
			badRequest(c, "id must be a positive integer")
			return
		}
		item, err := s.catalog.GetKanji(c.Request.Context(), id)
		if err != nil {
			s.mapServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
		return
	}

	if utf8.RuneCountInString(param) != 1 {
		badRequest(c, "'character' must be a single kanji character (e.g. 日)")
		return
	}

	item, err := s.catalog.GetKanjiByCharacter(c.Request.Context(), param)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) bindListQuery(c *gin.Context) (store.ListQuery, bool) {
	q := store.ListQuery{Search: c.Query("q")}

	if raw := c.Query("level"); raw != "" {
		level, err := models.ParseJLPTLevel(raw)
		if err != nil {
			badRequest(c, err.Error())
			return q, false
		}
		q.Level = &level
	}

	var ok bool
	if q.Page, ok = intQuery(c, "page", 1); !ok {
		return q, false
	}
	if q.PageSize, ok = intQuery(c, "page_size", 0); !ok {
		return q, false
	}
	return q, true
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

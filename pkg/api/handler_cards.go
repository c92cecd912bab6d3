package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// DueCards handles GET /api/cards/due: the review queue for today, most
// overdue first. Accepts optional level, type, and limit filters.
func (s *Server) DueCards(c *gin.Context) {
	level, itemType, limit, ok := s.bindQueueQuery(c)
	if !ok {
		return
	}

	cards, err := s.review.DueCards(c.Request.Context(), level, itemType, limit)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "count": len(cards)})
}

// NewItems handles GET /api/cards/new: unseen items available under the
// daily intake cap. The call is read-only; cards are created when an item
// is first reviewed.
func (s *Server) NewItems(c *gin.Context) {
	level, itemType, limit, ok := s.bindQueueQuery(c)
	if !ok {
		return
	}

	items, err := s.review.NewItems(c.Request.Context(), level, itemType, limit)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// SubmitReview handles POST /api/cards/review.
func (s *Server) SubmitReview(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := s.review.SubmitReview(c.Request.Context(), req)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartSession handles POST /api/cards/sessions.
func (s *Server) StartSession(c *gin.Context) {
	session, err := s.review.StartSession(c.Request.Context())
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession handles GET /api/cards/sessions/:id.
func (s *Server) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := s.review.GetSession(c.Request.Context(), id)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// EndSession handles PATCH /api/cards/sessions/:id. Ending an already
// ended session returns it unchanged.
func (s *Server) EndSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := s.review.EndSession(c.Request.Context(), id)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func sessionID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "session id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) bindQueueQuery(c *gin.Context) (*models.JLPTLevel, *models.ItemType, int, bool) {
	var level *models.JLPTLevel
	if raw := c.Query("level"); raw != "" {
		l, err := models.ParseJLPTLevel(raw)
		if err != nil {
			badRequest(c, err.Error())
			return nil, nil, 0, false
		}
		level = &l
	}

	var itemType *models.ItemType
	if raw := c.Query("type"); raw != "" {
		t, err := models.ParseItemType(raw)
		if err != nil {
			badRequest(c, err.Error())
			return nil, nil, 0, false
		}
		itemType = &t
	}

	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return nil, nil, 0, false
	}
	return level, itemType, limit, true
}

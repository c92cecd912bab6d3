package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/srs"
	"github.com/kotoba-lab/sensei/pkg/store"
)

const (
	// DefaultQueueLimit bounds the review queue when the caller does not ask
	// for a specific size.
	DefaultQueueLimit = 20

	// MaxQueueLimit is the hard ceiling on a single queue fetch.
	MaxQueueLimit = 200

	// staleSessionAge is how long an open session may sit without an end
	// timestamp before the startup sweep closes it.
	staleSessionAge = 24 * time.Hour
)

// allowedGrades are the recall grades the study UI can submit: forgot,
// hard, good, easy.
var allowedGrades = map[int]bool{0: true, 2: true, 3: true, 5: true}

// ReviewService drives the study loop: the due and new queues, review
// grading, and study session lifecycle.
type ReviewService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(st *store.Store, logger *slog.Logger) *ReviewService {
	return &ReviewService{store: st, logger: logger.With("component", "review_service")}
}

// DueCards returns cards due today or earlier, most overdue first, with the
// derived learning state attached.
func (s *ReviewService) DueCards(ctx context.Context, level *models.JLPTLevel, itemType *models.ItemType, limit int) ([]models.DueCard, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	cards, err := s.store.SelectDueCards(ctx, models.Today(), level, itemType, limit)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].State = srs.CardState(cards[i].MemoryCard)
	}
	return cards, nil
}

// NewItems returns items available for first-time study, capped by the
// new_cards_per_day setting minus the cards already created today. The call
// is read-only: cards are only created when an item is first reviewed.
func (s *ReviewService) NewItems(ctx context.Context, level *models.JLPTLevel, itemType *models.ItemType, limit int) ([]models.NewItem, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	remaining, err := s.remainingIntake(ctx)
	if err != nil {
		return nil, err
	}
	if limit > remaining {
		limit = remaining
	}
	return s.store.SelectNewItems(ctx, level, itemType, limit)
}

// remainingIntake computes how many new cards the daily cap still allows.
func (s *ReviewService) remainingIntake(ctx context.Context) (int, error) {
	raw, err := s.store.GetMeta(ctx, models.MetaKeyNewCardsPerDay)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	dailyCap, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt %s setting %q: %w", models.MetaKeyNewCardsPerDay, raw, err)
	}

	created, err := s.store.CountCardsCreatedOn(ctx, models.Today())
	if err != nil {
		return 0, err
	}
	remaining := dailyCap - created
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// SubmitReview grades one item. The first review of an item creates its
// memory card; later reviews advance the existing card. The card update,
// review log entry, and session counters commit in one transaction.
func (s *ReviewService) SubmitReview(ctx context.Context, req models.SubmitReviewRequest) (*models.ReviewResult, error) {
	itemType, err := models.ParseItemType(req.ItemType)
	if err != nil {
		return nil, NewValidationError("item_type", err.Error())
	}
	if req.ItemID <= 0 {
		return nil, NewValidationError("item_id", "must be a positive id")
	}
	if !allowedGrades[req.Score] {
		return nil, NewValidationError("score", "must be one of 0, 2, 3, 5")
	}
	if req.SessionID <= 0 {
		return nil, NewValidationError("session_id", "required")
	}

	if err := s.checkItemExists(ctx, itemType, req.ItemID); err != nil {
		return nil, err
	}

	now := time.Now()
	today := models.DateOf(now)

	card, err := s.store.GetCard(ctx, itemType, req.ItemID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		card = &models.MemoryCard{ItemType: itemType, ItemID: req.ItemID}
		initial := srs.InitialState()
		card.EaseFactor = initial.Ease
		card.IntervalDays = initial.Interval
		card.Reps = initial.Reps
	case err != nil:
		return nil, err
	}

	result := srs.Review(srs.State{
		Ease:     card.EaseFactor,
		Interval: card.IntervalDays,
		Reps:     card.Reps,
	}, req.Score, today, now)

	card.EaseFactor = result.State.Ease
	card.IntervalDays = result.State.Interval
	card.Reps = result.State.Reps
	card.DueDate = result.DueDate
	card.LastReviewed = &result.LastReviewed

	persisted, session, err := s.store.SubmitReview(ctx, *card, req.Score, req.SessionID, now)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Debug("review recorded",
		"item_type", itemType, "item_id", req.ItemID,
		"score", req.Score, "next_due", persisted.DueDate.String())

	return &models.ReviewResult{
		Card:             *persisted,
		State:            srs.CardState(*persisted),
		NextDue:          persisted.DueDate,
		SessionCorrect:   session.Correct,
		SessionIncorrect: session.Incorrect,
	}, nil
}

func (s *ReviewService) checkItemExists(ctx context.Context, itemType models.ItemType, itemID int) error {
	var err error
	if itemType == models.ItemTypeVocab {
		_, err = s.store.GetVocab(ctx, itemID)
	} else {
		_, err = s.store.GetKanji(ctx, itemID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, itemType, itemID)
	}
	return err
}

// StartSession opens a new study session.
func (s *ReviewService) StartSession(ctx context.Context) (*models.Session, error) {
	session, err := s.store.OpenSession(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("study session started", "session_id", session.ID)
	return session, nil
}

// GetSession returns one study session.
func (s *ReviewService) GetSession(ctx context.Context, id int) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	return session, mapStoreErr(err)
}

// EndSession closes a study session. Ending an already-ended session is a
// no-op that returns the session unchanged.
func (s *ReviewService) EndSession(ctx context.Context, id int) (*models.Session, error) {
	session, err := s.store.CloseSession(ctx, id, time.Now())
	return session, mapStoreErr(err)
}

// SweepStaleSessions closes sessions left open for over a day, stamping each
// with its last review time. Called once at startup.
func (s *ReviewService) SweepStaleSessions(ctx context.Context) error {
	n, err := s.store.SweepOpenSessions(ctx, time.Now().Add(-staleSessionAge))
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("closed stale study sessions", "count", n)
	}
	return nil
}

// CloseOpenSessions stamps every open session at shutdown.
func (s *ReviewService) CloseOpenSessions(ctx context.Context) error {
	n, err := s.store.CloseAllOpen(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("closed open study sessions on shutdown", "count", n)
	}
	return nil
}

// normalizeLimit applies the default and ceiling for queue fetches.
func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultQueueLimit, nil
	}
	if limit < 0 || limit > MaxQueueLimit {
		return 0, NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxQueueLimit))
	}
	return limit, nil
}

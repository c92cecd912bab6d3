package services_test

import (
	"context"
	stdsql "database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/services"
	"github.com/kotoba-lab/sensei/pkg/store"
	"github.com/kotoba-lab/sensei/test/util"
)

func newReviewService(t *testing.T) (*services.ReviewService, *store.Store, *stdsql.DB) {
	st, db := util.SetupTestDatabase(t)
	svc := services.NewReviewService(st, slog.Default())
	return svc, st, db
}

func seedTestVocab(t *testing.T, db *stdsql.DB, word string, level models.JLPTLevel) int {
	t.Helper()
	var id int
	err := db.QueryRow(
		`INSERT INTO vocab (word, reading, meaning, part_of_speech, jlpt_level)
		 VALUES ($1, 'よみ', 'meaning', 'noun', $2) RETURNING id`,
		word, string(level)).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestSubmitReviewValidation(t *testing.T) {
	svc, _, _ := newReviewService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.SubmitReviewRequest
	}{
		{"bad item type", models.SubmitReviewRequest{SessionID: 1, ItemType: "grammar", ItemID: 1, Score: 3}},
		{"bad score", models.SubmitReviewRequest{SessionID: 1, ItemType: "vocab", ItemID: 1, Score: 4}},
		{"missing item id", models.SubmitReviewRequest{SessionID: 1, ItemType: "vocab", Score: 3}},
		{"missing session", models.SubmitReviewRequest{ItemType: "vocab", ItemID: 1, Score: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(ctx, tt.req)
			assert.True(t, services.IsValidationError(err))
		})
	}
}

func TestSubmitReviewFlow(t *testing.T) {
	svc, st, db := newReviewService(t)
	ctx := context.Background()

	vocabID := seedTestVocab(t, db, "食べる", models.LevelN5)

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)

	t.Run("first review creates the card", func(t *testing.T) {
		result, err := svc.SubmitReview(ctx, models.SubmitReviewRequest{
			SessionID: session.ID, ItemType: "vocab", ItemID: vocabID, Score: 3,
		})
		require.NoError(t, err)

		assert.InDelta(t, 2.36, result.Card.EaseFactor, 1e-9)
		assert.Equal(t, 1, result.Card.IntervalDays)
		assert.Equal(t, 1, result.Card.Reps)
		assert.Equal(t, models.Today().AddDays(1), result.NextDue)
		assert.Equal(t, models.CardStateLearning, result.State)
		assert.Equal(t, 1, result.SessionCorrect)
		assert.Equal(t, 0, result.SessionIncorrect)
	})

	t.Run("second review advances the same card", func(t *testing.T) {
		result, err := svc.SubmitReview(ctx, models.SubmitReviewRequest{
			SessionID: session.ID, ItemType: "vocab", ItemID: vocabID, Score: 3,
		})
		require.NoError(t, err)

		assert.InDelta(t, 2.22, result.Card.EaseFactor, 1e-9)
		assert.Equal(t, 6, result.Card.IntervalDays)
		assert.Equal(t, 2, result.Card.Reps)
		assert.Equal(t, 2, result.SessionCorrect)

		card, err := st.GetCard(ctx, models.ItemTypeVocab, vocabID)
		require.NoError(t, err)
		assert.Equal(t, result.Card.ID, card.ID)
	})

	t.Run("lapse resets the interval", func(t *testing.T) {
		result, err := svc.SubmitReview(ctx, models.SubmitReviewRequest{
			SessionID: session.ID, ItemType: "vocab", ItemID: vocabID, Score: 0,
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Card.IntervalDays)
		assert.Equal(t, 0, result.Card.Reps)
		assert.Equal(t, models.Today().AddDays(1), result.NextDue)
		assert.Equal(t, 1, result.SessionIncorrect)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.SubmitReview(ctx, models.SubmitReviewRequest{
			SessionID: session.ID, ItemType: "vocab", ItemID: 99999, Score: 3,
		})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.SubmitReview(ctx, models.SubmitReviewRequest{
			SessionID: 99999, ItemType: "vocab", ItemID: vocabID, Score: 3,
		})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestNewItemsDailyCap(t *testing.T) {
	svc, st, db := newReviewService(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureMetaDefaults(ctx, 2))

	seedTestVocab(t, db, "一", models.LevelN5)
	seedTestVocab(t, db, "二", models.LevelN5)
	seedTestVocab(t, db, "三", models.LevelN5)

	t.Run("cap bounds the queue", func(t *testing.T) {
		items, err := svc.NewItems(ctx, nil, nil, 10)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("cards created today consume the cap", func(t *testing.T) {
		session, err := svc.StartSession(ctx)
		require.NoError(t, err)

		first, err := svc.NewItems(ctx, nil, nil, 10)
		require.NoError(t, err)
		_, err = svc.SubmitReview(ctx, models.SubmitReviewRequest{
			SessionID: session.ID, ItemType: "vocab", ItemID: first[0].Vocab.ID, Score: 3,
		})
		require.NoError(t, err)

		items, err := svc.NewItems(ctx, nil, nil, 10)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("exhausted cap yields empty queue", func(t *testing.T) {
		require.NoError(t, st.SetMeta(ctx, models.MetaKeyNewCardsPerDay, "1"))

		items, err := svc.NewItems(ctx, nil, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := svc.NewItems(ctx, nil, nil, -1)
		assert.True(t, services.IsValidationError(err))
	})
}

func TestSessionEndIsIdempotent(t *testing.T) {
	svc, _, _ := newReviewService(t)
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)

	ended, err := svc.EndSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)

	again, err := svc.EndSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, again.EndedAt)
	assert.Equal(t, ended.EndedAt.Unix(), again.EndedAt.Unix())

	_, err = svc.EndSession(ctx, 99999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

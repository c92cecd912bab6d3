package store

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"sort"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// GetCard returns the memory card for an item, or ErrNotFound if the item
// has never been reviewed.
func (s *Store) GetCard(ctx context.Context, itemType models.ItemType, itemID int) (*models.MemoryCard, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed, created_at
		 FROM srs_cards WHERE item_type = $1 AND item_id = $2`,
		string(itemType), itemID)
	return scanCard(row)
}

// UpsertCard creates or updates a memory card atomically, keyed by
// (item_type, item_id).
func (s *Store) UpsertCard(ctx context.Context, card models.MemoryCard) (*models.MemoryCard, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO srs_cards (item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (item_type, item_id) DO UPDATE SET
		   ease_factor = EXCLUDED.ease_factor,
		   interval_days = EXCLUDED.interval_days,
		   reps = EXCLUDED.reps,
		   due_date = EXCLUDED.due_date,
		   last_reviewed = EXCLUDED.last_reviewed
		 RETURNING id, item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed, created_at`,
		string(card.ItemType), card.ItemID, card.EaseFactor, card.IntervalDays,
		card.Reps, card.DueDate, card.LastReviewed)
	return scanCard(row)
}

// SelectDueCards returns cards with due_date <= today joined with their
// dictionary items, most overdue first (due_date ascending, then id).
func (s *Store) SelectDueCards(ctx context.Context, today models.Date, level *models.JLPTLevel, itemType *models.ItemType, limit int) ([]models.DueCard, error) {
	if limit <= 0 {
		return []models.DueCard{}, nil
	}

	var cards []models.DueCard
	if itemType == nil || *itemType == models.ItemTypeVocab {
		vocab, err := s.selectDueVocab(ctx, today, level, limit)
		if err != nil {
			return nil, err
		}
		cards = append(cards, vocab...)
	}
	if itemType == nil || *itemType == models.ItemTypeKanji {
		kanji, err := s.selectDueKanji(ctx, today, level, limit)
		if err != nil {
			return nil, err
		}
		cards = append(cards, kanji...)
	}

	sortDueCards(cards)
	if len(cards) > limit {
		cards = cards[:limit]
	}
	if cards == nil {
		cards = []models.DueCard{}
	}
	return cards, nil
}

func cardColumns(c *sql.SelectTable) []string {
	return []string{
		c.C("id"), c.C("item_type"), c.C("item_id"), c.C("ease_factor"),
		c.C("interval_days"), c.C("reps"), c.C("due_date"),
		c.C("last_reviewed"), c.C("created_at"),
	}
}

func (s *Store) selectDueVocab(ctx context.Context, today models.Date, level *models.JLPTLevel, limit int) ([]models.DueCard, error) {
	c := sql.Table("srs_cards")
	v := sql.Table("vocab")
	cols := append(cardColumns(c),
		v.C("id"), v.C("word"), v.C("reading"), v.C("meaning"),
		v.C("part_of_speech"), v.C("jlpt_level"), v.C("example_jp"), v.C("example_en"))

	sel := builder().Select(cols...).From(c).
		Join(v).On(c.C("item_id"), v.C("id")).
		Where(sql.And(
			sql.EQ(c.C("item_type"), string(models.ItemTypeVocab)),
			sql.LTE(c.C("due_date"), today.Time()),
		)).
		OrderBy(sql.Asc(c.C("due_date")), sql.Asc(c.C("id"))).
		Limit(limit)
	if level != nil {
		sel.Where(sql.EQ(v.C("jlpt_level"), string(*level)))
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select due vocab cards: %w", err)
	}
	defer rows.Close()

	var cards []models.DueCard
	for rows.Next() {
		var (
			dc   models.DueCard
			item models.VocabItem
		)
		if err := scanCardInto(rows, &dc.MemoryCard,
			&item.ID, &item.Word, &item.Reading, &item.Meaning,
			&item.PartOfSpeech, &item.JLPTLevel, &item.ExampleJP, &item.ExampleEN); err != nil {
			return nil, err
		}
		dc.Vocab = &item
		cards = append(cards, dc)
	}
	return cards, rows.Err()
}

func (s *Store) selectDueKanji(ctx context.Context, today models.Date, level *models.JLPTLevel, limit int) ([]models.DueCard, error) {
	c := sql.Table("srs_cards")
	k := sql.Table("kanji")
	cols := append(cardColumns(c),
		k.C("id"), k.C("character"), k.C("on_yomi"), k.C("kun_yomi"), k.C("meaning"),
		k.C("stroke_count"), k.C("jlpt_level"), k.C("freq_rank"),
		k.C("example_word"), k.C("example_sentence"))

	sel := builder().Select(cols...).From(c).
		Join(k).On(c.C("item_id"), k.C("id")).
		Where(sql.And(
			sql.EQ(c.C("item_type"), string(models.ItemTypeKanji)),
			sql.LTE(c.C("due_date"), today.Time()),
		)).
		OrderBy(sql.Asc(c.C("due_date")), sql.Asc(c.C("id"))).
		Limit(limit)
	if level != nil {
		sel.Where(sql.EQ(k.C("jlpt_level"), string(*level)))
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select due kanji cards: %w", err)
	}
	defer rows.Close()

	var cards []models.DueCard
	for rows.Next() {
		var (
			dc                       models.DueCard
			item                     models.KanjiItem
			onYomi, kunYomi, meaning []byte
			lvl                      stdsql.NullString
		)
		if err := scanCardInto(rows, &dc.MemoryCard,
			&item.ID, &item.Character, &onYomi, &kunYomi, &meaning,
			&item.StrokeCount, &lvl, &item.FreqRank,
			&item.ExampleWord, &item.ExampleSentence); err != nil {
			return nil, err
		}
		if lvl.Valid {
			l := models.JLPTLevel(lvl.String)
			item.JLPTLevel = &l
		}
		if err := decodeJSONStrings(onYomi, &item.OnYomi); err != nil {
			return nil, err
		}
		if err := decodeJSONStrings(kunYomi, &item.KunYomi); err != nil {
			return nil, err
		}
		if err := decodeJSONStrings(meaning, &item.Meanings); err != nil {
			return nil, err
		}
		dc.Kanji = &item
		cards = append(cards, dc)
	}
	return cards, rows.Err()
}

// CountCardsCreatedOn counts memory cards whose created_at falls on the
// given local calendar date. Used to enforce the daily intake cap.
func (s *Store) CountCardsCreatedOn(ctx context.Context, day models.Date) (int, error) {
	start := time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1)

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM srs_cards WHERE created_at >= $1 AND created_at < $2",
		start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards created on %s: %w", day, err)
	}
	return count, nil
}

// SubmitReview persists one review atomically: the card upsert, the
// append-only log entry, and the session counter bump all commit together
// or not at all.
//
// A card with ID == 0 is a first review: the row is inserted, and a
// concurrent duplicate insert surfaces as ErrDuplicate. One card per item is
// enforced by the unique constraint, not by a read-check.
func (s *Store) SubmitReview(ctx context.Context, card models.MemoryCard, grade int, sessionID int, now time.Time) (*models.MemoryCard, *models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var persisted *models.MemoryCard
	if card.ID == 0 {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO srs_cards (item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed, created_at`,
			string(card.ItemType), card.ItemID, card.EaseFactor, card.IntervalDays,
			card.Reps, card.DueDate, card.LastReviewed, now)
		persisted, err = scanCard(row)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, nil, fmt.Errorf("card for %s %d: %w", card.ItemType, card.ItemID, ErrDuplicate)
			}
			return nil, nil, err
		}
	} else {
		row := tx.QueryRowContext(ctx,
			`UPDATE srs_cards
			 SET ease_factor = $2, interval_days = $3, reps = $4, due_date = $5, last_reviewed = $6
			 WHERE id = $1
			 RETURNING id, item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed, created_at`,
			card.ID, card.EaseFactor, card.IntervalDays, card.Reps, card.DueDate, card.LastReviewed)
		persisted, err = scanCard(row)
		if err != nil {
			return nil, nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO review_log (session_id, card_id, grade, reviewed_at) VALUES ($1, $2, $3, $4)",
		sessionID, persisted.ID, grade, now); err != nil {
		return nil, nil, fmt.Errorf("failed to append review log: %w", err)
	}

	correct, incorrect := 0, 1
	if grade >= 3 {
		correct, incorrect = 1, 0
	}
	sess := &models.Session{}
	var endedAt stdsql.NullTime
	err = tx.QueryRowContext(ctx,
		`UPDATE study_sessions
		 SET cards_reviewed = cards_reviewed + 1, correct = correct + $2, incorrect = incorrect + $3
		 WHERE id = $1
		 RETURNING id, started_at, ended_at, cards_reviewed, correct, incorrect`,
		sessionID, correct, incorrect).
		Scan(&sess.ID, &sess.StartedAt, &endedAt, &sess.CardsReviewed, &sess.Correct, &sess.Incorrect)
	if err == stdsql.ErrNoRows {
		return nil, nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update session counters: %w", err)
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit review transaction: %w", err)
	}
	return persisted, sess, nil
}

// ReviewEventsForCard returns a card's full review history in timestamp
// order. Replaying it through the scheduler reconstructs the card state.
func (s *Store) ReviewEventsForCard(ctx context.Context, cardID int) ([]models.ReviewEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, card_id, grade, reviewed_at
		 FROM review_log WHERE card_id = $1 ORDER BY reviewed_at ASC, id ASC`,
		cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review log: %w", err)
	}
	defer rows.Close()

	var events []models.ReviewEvent
	for rows.Next() {
		var (
			ev        models.ReviewEvent
			sessionID stdsql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &sessionID, &ev.CardID, &ev.Grade, &ev.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review event: %w", err)
		}
		if sessionID.Valid {
			id := int(sessionID.Int64)
			ev.SessionID = &id
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// sortDueCards orders the merged vocab+kanji queue most overdue first,
// breaking date ties by card id for a stable review order.
func sortDueCards(cards []models.DueCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].DueDate != cards[j].DueDate {
			return cards[i].DueDate.Before(cards[j].DueDate)
		}
		return cards[i].ID < cards[j].ID
	})
}

func scanCard(row rowScanner) (*models.MemoryCard, error) {
	var card models.MemoryCard
	if err := scanCardInto(row, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// scanCardInto scans the nine card columns followed by any extra columns.
func scanCardInto(row rowScanner, card *models.MemoryCard, extra ...any) error {
	var lastReviewed stdsql.NullTime
	dest := append([]any{
		&card.ID, &card.ItemType, &card.ItemID, &card.EaseFactor,
		&card.IntervalDays, &card.Reps, &card.DueDate, &lastReviewed, &card.CreatedAt,
	}, extra...)

	err := row.Scan(dest...)
	if err == stdsql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to scan memory card: %w", err)
	}
	if lastReviewed.Valid {
		card.LastReviewed = &lastReviewed.Time
	}
	return nil
}

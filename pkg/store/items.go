package store

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"entgo.io/ent/dialect/sql"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// ListQuery holds the optional filters and pagination of a dictionary
// listing. Page is 1-based.
type ListQuery struct {
	Level    *models.JLPTLevel
	Search   string
	Page     int
	PageSize int
}

const vocabColumns = "id, word, reading, meaning, part_of_speech, jlpt_level, example_jp, example_en"

const kanjiColumns = `id, "character", on_yomi, kun_yomi, meaning, stroke_count, jlpt_level, freq_rank, example_word, example_sentence`

// GetVocab returns one vocabulary item by id.
func (s *Store) GetVocab(ctx context.Context, id int) (*models.VocabItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+vocabColumns+" FROM vocab WHERE id = $1", id)
	return scanVocab(row)
}

// GetKanji returns one kanji item by id.
func (s *Store) GetKanji(ctx context.Context, id int) (*models.KanjiItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+kanjiColumns+" FROM kanji WHERE id = $1", id)
	return scanKanji(row)
}

// GetKanjiByCharacter returns one kanji item by its single-character key.
func (s *Store) GetKanjiByCharacter(ctx context.Context, character string) (*models.KanjiItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+kanjiColumns+` FROM kanji WHERE "character" = $1`, character)
	return scanKanji(row)
}

// ListVocab returns one page of vocabulary items plus the total match count.
// Search matches word, reading, and meaning case-insensitively. Ordering is
// by id ascending, stable across pages.
func (s *Store) ListVocab(ctx context.Context, q ListQuery) ([]models.VocabItem, int, error) {
	where := func(sel *sql.Selector) {
		if q.Level != nil {
			sel.Where(sql.EQ("jlpt_level", string(*q.Level)))
		}
		if q.Search != "" {
			sel.Where(sql.Or(
				sql.ContainsFold("word", q.Search),
				sql.ContainsFold("reading", q.Search),
				sql.ContainsFold("meaning", q.Search),
			))
		}
	}

	total, err := s.countRows(ctx, "vocab", where)
	if err != nil {
		return nil, 0, err
	}

	sel := builder().
		Select("id", "word", "reading", "meaning", "part_of_speech", "jlpt_level", "example_jp", "example_en").
		From(sql.Table("vocab")).
		OrderBy(sql.Asc("id")).
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize)
	where(sel)

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vocab: %w", err)
	}
	defer rows.Close()

	items := []models.VocabItem{}
	for rows.Next() {
		v, err := scanVocab(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *v)
	}
	return items, total, rows.Err()
}

// ListKanji returns one page of kanji items plus the total match count.
// Search matches the character and example word case-insensitively.
func (s *Store) ListKanji(ctx context.Context, q ListQuery) ([]models.KanjiItem, int, error) {
	where := func(sel *sql.Selector) {
		if q.Level != nil {
			sel.Where(sql.EQ("jlpt_level", string(*q.Level)))
		}
		if q.Search != "" {
			sel.Where(sql.Or(
				sql.ContainsFold("character", q.Search),
				sql.ContainsFold("example_word", q.Search),
			))
		}
	}

	total, err := s.countRows(ctx, "kanji", where)
	if err != nil {
		return nil, 0, err
	}

	sel := builder().
		Select("id", "character", "on_yomi", "kun_yomi", "meaning", "stroke_count", "jlpt_level", "freq_rank", "example_word", "example_sentence").
		From(sql.Table("kanji")).
		OrderBy(sql.Asc("id")).
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize)
	where(sel)

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list kanji: %w", err)
	}
	defer rows.Close()

	items := []models.KanjiItem{}
	for rows.Next() {
		k, err := scanKanji(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *k)
	}
	return items, total, rows.Err()
}

// SelectNewItems returns items that have no memory card yet, ordered by JLPT
// level (N5 first), then frequency rank ascending where present, then id.
// The caller passes the effective limit after applying the daily intake cap.
func (s *Store) SelectNewItems(ctx context.Context, level *models.JLPTLevel, itemType *models.ItemType, limit int) ([]models.NewItem, error) {
	if limit <= 0 {
		return []models.NewItem{}, nil
	}

	var items []models.NewItem
	if itemType == nil || *itemType == models.ItemTypeVocab {
		vocab, err := s.selectNewVocab(ctx, level, limit)
		if err != nil {
			return nil, err
		}
		items = append(items, vocab...)
	}
	if itemType == nil || *itemType == models.ItemTypeKanji {
		kanji, err := s.selectNewKanji(ctx, level, limit)
		if err != nil {
			return nil, err
		}
		items = append(items, kanji...)
	}

	sortNewItems(items)
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []models.NewItem{}
	}
	return items, nil
}

func (s *Store) selectNewVocab(ctx context.Context, level *models.JLPTLevel, limit int) ([]models.NewItem, error) {
	sel := builder().
		Select("id", "word", "reading", "meaning", "part_of_speech", "jlpt_level", "example_jp", "example_en").
		From(sql.Table("vocab")).
		Where(sql.ExprP("NOT EXISTS (SELECT 1 FROM srs_cards sc WHERE sc.item_type = 'vocab' AND sc.item_id = vocab.id)")).
		OrderBy(sql.Asc("jlpt_level"), sql.Asc("id")).
		Limit(limit)
	if level != nil {
		sel.Where(sql.EQ("jlpt_level", string(*level)))
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select new vocab: %w", err)
	}
	defer rows.Close()

	var items []models.NewItem
	for rows.Next() {
		v, err := scanVocab(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, models.NewItem{ItemType: models.ItemTypeVocab, Vocab: v})
	}
	return items, rows.Err()
}

func (s *Store) selectNewKanji(ctx context.Context, level *models.JLPTLevel, limit int) ([]models.NewItem, error) {
	sel := builder().
		Select("id", "character", "on_yomi", "kun_yomi", "meaning", "stroke_count", "jlpt_level", "freq_rank", "example_word", "example_sentence").
		From(sql.Table("kanji")).
		Where(sql.ExprP("NOT EXISTS (SELECT 1 FROM srs_cards sc WHERE sc.item_type = 'kanji' AND sc.item_id = kanji.id)")).
		OrderBy(sql.Asc("jlpt_level"), sql.Asc("freq_rank"), sql.Asc("id")).
		Limit(limit)
	if level != nil {
		sel.Where(sql.EQ("jlpt_level", string(*level)))
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select new kanji: %w", err)
	}
	defer rows.Close()

	var items []models.NewItem
	for rows.Next() {
		k, err := scanKanji(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, models.NewItem{ItemType: models.ItemTypeKanji, Kanji: k})
	}
	return items, rows.Err()
}

// countRows counts table rows matching the given predicate set.
func (s *Store) countRows(ctx context.Context, table string, where func(*sql.Selector)) (int, error) {
	sel := builder().Select(sql.Count("*")).From(sql.Table(table))
	where(sel)

	query, args := sel.Query()
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

// sortNewItems orders the merged vocab+kanji intake queue: JLPT level N5
// first, frequency-ranked items before unranked ones, then id.
func sortNewItems(items []models.NewItem) {
	rank := func(it models.NewItem) (int, int, int) {
		switch it.ItemType {
		case models.ItemTypeVocab:
			return levelRank(&it.Vocab.JLPTLevel), math.MaxInt, it.Vocab.ID
		default:
			freq := math.MaxInt
			if it.Kanji.FreqRank != nil {
				freq = *it.Kanji.FreqRank
			}
			return levelRank(it.Kanji.JLPTLevel), freq, it.Kanji.ID
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		l1, f1, id1 := rank(items[i])
		l2, f2, id2 := rank(items[j])
		if l1 != l2 {
			return l1 < l2
		}
		if f1 != f2 {
			return f1 < f2
		}
		return id1 < id2
	})
}

// levelRank maps N5..N1 to 0..4; items without a level sort last.
func levelRank(l *models.JLPTLevel) int {
	if l == nil {
		return len(models.JLPTLevels())
	}
	for i, level := range models.JLPTLevels() {
		if level == *l {
			return i
		}
	}
	return len(models.JLPTLevels())
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVocab(row rowScanner) (*models.VocabItem, error) {
	var v models.VocabItem
	err := row.Scan(&v.ID, &v.Word, &v.Reading, &v.Meaning, &v.PartOfSpeech,
		&v.JLPTLevel, &v.ExampleJP, &v.ExampleEN)
	if err == stdsql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vocab row: %w", err)
	}
	return &v, nil
}

func scanKanji(row rowScanner) (*models.KanjiItem, error) {
	var (
		k                        models.KanjiItem
		onYomi, kunYomi, meaning []byte
		level                    stdsql.NullString
	)
	err := row.Scan(&k.ID, &k.Character, &onYomi, &kunYomi, &meaning,
		&k.StrokeCount, &level, &k.FreqRank, &k.ExampleWord, &k.ExampleSentence)
	if err == stdsql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan kanji row: %w", err)
	}

	if level.Valid {
		l := models.JLPTLevel(level.String)
		k.JLPTLevel = &l
	}
	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{{onYomi, &k.OnYomi}, {kunYomi, &k.KunYomi}, {meaning, &k.Meanings}} {
		if err := decodeJSONStrings(pair.raw, pair.dest); err != nil {
			return nil, err
		}
	}
	return &k, nil
}

// decodeJSONStrings unpacks a JSONB string array column, normalising NULL
// and empty payloads to an empty slice.
func decodeJSONStrings(raw []byte, dest *[]string) error {
	*dest = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode json array column: %w", err)
	}
	return nil
}

package models

// Keys of the meta key-value table. jlpt_focus and new_cards_per_day are
// user-editable through /api/settings; db_version witnesses the schema.
const (
	MetaKeyJLPTFocus      = "jlpt_focus"
	MetaKeyNewCardsPerDay = "new_cards_per_day"
	MetaKeyDBVersion      = "db_version"
)

// EditableMetaKeys lists the keys the settings endpoint accepts.
func EditableMetaKeys() []string {
	return []string{MetaKeyJLPTFocus, MetaKeyNewCardsPerDay}
}

package models

import "time"

// Translation is one language's display metadata for a video. The Korean row
// is the original; the rest are machine translated.
type Translation struct {
	GroupID        string    `json:"group_id"`
	LanguageCode   string    `json:"language_code"`
	LanguageName   string    `json:"language_name"`
	Title          string    `json:"title"`
	MainCategory   string    `json:"main_category"`
	SubCategory    string    `json:"sub_category"`
	SubSubCategory string    `json:"sub_sub_category"`
	IsOriginal     bool      `json:"is_original"`
	TranslatedAt   time.Time `json:"translated_at"`
}

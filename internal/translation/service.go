package translation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Translator translates Korean text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Service fans one Korean text out to every supported language.
type Service struct {
	translator Translator
	pace       time.Duration
	logger     *zap.Logger
}

// NewService creates a translation service. pace is the delay between
// consecutive translation calls (0 disables pacing).
func NewService(translator Translator, pace time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{translator: translator, pace: pace, logger: logger}
}

// TranslateAll returns text in every supported language, keyed by language
// code. The source text is kept as-is for Korean and used as the fallback
// when a translation fails; empty input yields empty values for all codes.
func (s *Service) TranslateAll(ctx context.Context, text string) map[string]string {
	out := make(map[string]string, len(Supported))
	if strings.TrimSpace(text) == "" {
		for _, lang := range Supported {
			out[lang.Code] = ""
		}
		return out
	}

	for _, lang := range Supported {
		if lang.Code == DefaultLanguage {
			out[lang.Code] = text
			continue
		}
		translated, err := s.translator.Translate(ctx, text, lang.Code)
		if err != nil {
			s.logger.Warn("translation failed, keeping source text",
				zap.String("language", lang.Code),
				zap.Error(err))
			translated = text
		}
		out[lang.Code] = translated

		if s.pace > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.pace):
			}
		}
	}
	return out
}

package insight

import (
	"strings"

	"github.com/wavelength-ai/chat-insights/internal/model"
)

// parseInsights extracts a sentiment label and keyword list from a free-text
// model response. The parsing is lossy: if the response carries no
// recognizable markers the result degrades to neutral sentiment and an empty
// keyword list.
func parseInsights(text string) (string, []string) {
	sentiment := model.SentimentNeutral
	var keywords []string

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "sentiment"):
			if strings.Contains(lower, model.SentimentPositive) {
				sentiment = model.SentimentPositive
			} else if strings.Contains(lower, model.SentimentNegative) {
				sentiment = model.SentimentNegative
			}
		case strings.Contains(lower, "key") && strings.Contains(line, ":"):
			_, rest, _ := strings.Cut(line, ":")
			for _, kw := range strings.Split(rest, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					keywords = append(keywords, kw)
				}
			}
		}
	}

	return sentiment, keywords
}

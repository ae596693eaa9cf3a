package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wavelength-ai/chat-insights/internal/model"
)

func TestParseInsights(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantSentiment string
		wantKeywords  []string
	}{
		{
			name:          "well formed response",
			text:          "1. Overall sentiment: Positive\n2. Keywords: golang, websockets, deployment",
			wantSentiment: model.SentimentPositive,
			wantKeywords:  []string{"golang", "websockets", "deployment"},
		},
		{
			name:          "negative sentiment",
			text:          "Sentiment: negative\nKey topics: outage, rollback",
			wantSentiment: model.SentimentNegative,
			wantKeywords:  []string{"outage", "rollback"},
		},
		{
			name:          "explicit neutral",
			text:          "The sentiment is neutral.\nKey topics: scheduling",
			wantSentiment: model.SentimentNeutral,
			wantKeywords:  []string{"scheduling"},
		},
		{
			name:          "unrecognizable response degrades to defaults",
			text:          "I'm sorry, I can't analyze that.",
			wantSentiment: model.SentimentNeutral,
			wantKeywords:  nil,
		},
		{
			name:          "empty response",
			text:          "",
			wantSentiment: model.SentimentNeutral,
			wantKeywords:  nil,
		},
		{
			name:          "keywords with surrounding whitespace",
			text:          "Keywords:  lunch ,  plans ,",
			wantSentiment: model.SentimentNeutral,
			wantKeywords:  []string{"lunch", "plans"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentiment, keywords := parseInsights(tt.text)
			assert.Equal(t, tt.wantSentiment, sentiment)
			assert.Equal(t, tt.wantKeywords, keywords)
		})
	}
}

package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-agent/internal/catalog"
	"catalog-agent/internal/common/config"
	apperrors "catalog-agent/internal/common/errors"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/llm"
)

// fakeLLM records calls and plays back a canned reply.
type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	f.calls++
	return f.reply, f.err
}

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"help": {Description: "Explain capabilities"},
		"search_by_category": {
			Description: "Find entries in a category",
			Parameters:  []string{"category"},
			Examples: []catalog.Example{
				{Input: "Find programming training", Parameters: map[string]interface{}{"category": "Programming"}},
			},
		},
	}
}

func newTestParser(t *testing.T, client llm.Client) *Parser {
	cfg := config.ClassifierConfig{
		Backend:      "openai",
		Model:        "gpt-4o-mini",
		MaxTokens:    500,
		InputCeiling: 1000,
	}
	return NewParser(cfg, "en", client, logger.NewTestLogger(t))
}

func TestParser_Parse_Success(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		expectedIntent string
		expectedConf   float64
		expectedLang   string
		validateParams func(t *testing.T, params map[string]interface{})
	}{
		{
			name:           "plain JSON reply",
			reply:          `{"intent": "search_by_category", "parameters": {"category": "Programming"}, "confidence": 0.95, "language": "en"}`,
			expectedIntent: "search_by_category",
			expectedConf:   0.95,
			expectedLang:   "en",
			validateParams: func(t *testing.T, params map[string]interface{}) {
				assert.Equal(t, "Programming", params["category"])
			},
		},
		{
			name:           "reply wrapped in a markdown code fence",
			reply:          "```json\n{\"intent\": \"help\", \"parameters\": {}, \"confidence\": 0.9, \"language\": \"en\"}\n```",
			expectedIntent: "help",
			expectedConf:   0.9,
			expectedLang:   "en",
		},
		{
			name:           "missing confidence defaults to 0.8",
			reply:          `{"intent": "help", "language": "de"}`,
			expectedIntent: "help",
			expectedConf:   0.8,
			expectedLang:   "de",
		},
		{
			name:           "explicit zero confidence is kept, not defaulted",
			reply:          `{"intent": "help", "confidence": 0, "language": "en"}`,
			expectedIntent: "help",
			expectedConf:   0,
			expectedLang:   "en",
		},
		{
			name:           "missing language falls back to the configured default",
			reply:          `{"intent": "help", "confidence": 0.7}`,
			expectedIntent: "help",
			expectedConf:   0.7,
			expectedLang:   "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := newTestParser(t, &fakeLLM{reply: tt.reply})

			parsed, err := parser.Parse(context.Background(), "Find programming training", testCatalog())
			require.NoError(t, err)

			assert.Equal(t, tt.expectedIntent, parsed.Intent)
			assert.Equal(t, tt.expectedConf, parsed.Confidence)
			assert.Equal(t, tt.expectedLang, parsed.Language)
			assert.NotNil(t, parsed.Parameters)
			if tt.validateParams != nil {
				tt.validateParams(t, parsed.Parameters)
			}
		})
	}
}

func TestParser_Parse_RejectsBeforeNetworkCall(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedCode apperrors.ErrorCode
	}{
		{"empty input", "", apperrors.ErrCodeInputValidationFailed},
		{"whitespace only", "   \t\n  ", apperrors.ErrCodeInputValidationFailed},
		{"input over the ceiling", string(make([]byte, 1001)), apperrors.ErrCodeInputTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{reply: `{"intent": "help"}`}
			parser := newTestParser(t, client)

			_, err := parser.Parse(context.Background(), tt.input, testCatalog())
			require.Error(t, err)

			assert.Equal(t, tt.expectedCode, apperrors.CodeOf(err))
			assert.Equal(t, 0, client.calls, "classifier must not be called")
		})
	}
}

func TestParser_Parse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		err          error
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "backend error",
			err:          errors.New("connection refused"),
			expectedCode: apperrors.ErrCodeClassificationOutputInvalid,
		},
		{
			name:         "non-JSON reply",
			reply:        "I think the user wants to search.",
			expectedCode: apperrors.ErrCodeClassificationOutputInvalid,
		},
		{
			name:         "reply without an intent",
			reply:        `{"parameters": {}, "confidence": 0.9}`,
			expectedCode: apperrors.ErrCodeClassificationOutputInvalid,
		},
		{
			name:         "intent outside the catalog",
			reply:        `{"intent": "order_pizza", "confidence": 0.9}`,
			expectedCode: apperrors.ErrCodeIntentValidationFailed,
		},
		{
			name:         "confidence above 1",
			reply:        `{"intent": "help", "confidence": 1.5}`,
			expectedCode: apperrors.ErrCodeIntentValidationFailed,
		},
		{
			name:         "negative confidence",
			reply:        `{"intent": "help", "confidence": -0.2}`,
			expectedCode: apperrors.ErrCodeIntentValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := newTestParser(t, &fakeLLM{reply: tt.reply, err: tt.err})

			_, err := parser.Parse(context.Background(), "do something", testCatalog())
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, apperrors.CodeOf(err))
		})
	}
}

func TestParser_BuildInstruction(t *testing.T) {
	parser := newTestParser(t, &fakeLLM{})
	instruction := parser.buildInstruction(testCatalog())

	assert.Contains(t, instruction, "search_by_category")
	assert.Contains(t, instruction, "Find entries in a category")
	assert.Contains(t, instruction, "Find programming training")
	assert.Contains(t, instruction, "Follow-up")
	assert.Contains(t, instruction, `"intent"`)
}

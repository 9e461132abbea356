// Package intent classifies a free-text utterance into one intent from a
// closed catalog, with extracted parameters, a confidence score, and a
// detected language.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalog-agent/internal/catalog"
	"catalog-agent/internal/common/config"
	apperrors "catalog-agent/internal/common/errors"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/llm"
)

const defaultConfidence = 0.8

// fillerPhrases are per-language conversational openers the classifier is
// told to disregard when extracting parameters.
var fillerPhrases = map[string][]string{
	"en": {"please", "can you", "could you", "i would like to", "i want to", "show me"},
	"de": {"bitte", "kannst du", "könntest du", "ich möchte", "ich will", "zeig mir"},
}

// ParsedIntent is the classification result for one utterance.
type ParsedIntent struct {
	Intent     string                 `json:"intent"`
	Parameters map[string]interface{} `json:"parameters"`
	Confidence float64                `json:"confidence"`
	Language   string                 `json:"language"`
}

// Parser drives the classification backend and validates its output against
// the catalog.
type Parser struct {
	cfg     config.ClassifierConfig
	defLang string
	client  llm.Client
	logger  logger.Logger
}

func NewParser(cfg config.ClassifierConfig, defaultLanguage string, client llm.Client, log logger.Logger) *Parser {
	return &Parser{
		cfg:     cfg,
		defLang: defaultLanguage,
		client:  client,
		logger:  log.WithFields(map[string]interface{}{"component": "intent_parser"}),
	}
}

// Parse classifies userInput against cat. Empty and oversized input is
// rejected before any network call.
func (p *Parser) Parse(ctx context.Context, userInput string, cat catalog.Catalog) (*ParsedIntent, error) {
	trimmed := strings.TrimSpace(userInput)
	if trimmed == "" {
		return nil, apperrors.NewInputValidationError("input is empty or whitespace-only")
	}
	if p.cfg.InputCeiling > 0 && len(userInput) > p.cfg.InputCeiling {
		return nil, apperrors.NewInputTooLongError(len(userInput), p.cfg.InputCeiling)
	}
	if err := cat.Validate(); err != nil {
		return nil, apperrors.NewInputValidationError(err.Error())
	}

	reply, err := p.client.Complete(ctx, llm.Request{
		Model:       p.cfg.Model,
		Instruction: p.buildInstruction(cat),
		UserText:    trimmed,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return nil, apperrors.NewClassificationOutputError(fmt.Errorf("classifier call: %w", err))
	}

	parsed, confidenceSet, err := parseReply(reply)
	if err != nil {
		p.logger.Warn("unparseable classifier reply", map[string]interface{}{
			"reply": truncate(reply, 200),
		})
		return nil, apperrors.NewClassificationOutputError(err)
	}

	if !cat.Has(parsed.Intent) {
		return nil, apperrors.NewIntentValidationError(
			fmt.Sprintf("intent %q is not in the catalog (valid: %s)", parsed.Intent, strings.Join(cat.Names(), ", ")))
	}
	if confidenceSet && (parsed.Confidence < 0 || parsed.Confidence > 1) {
		return nil, apperrors.NewIntentValidationError(
			fmt.Sprintf("confidence %v outside [0,1]", parsed.Confidence))
	}
	if !confidenceSet {
		parsed.Confidence = defaultConfidence
	}
	if parsed.Language == "" {
		parsed.Language = p.defLang
	}
	if parsed.Parameters == nil {
		parsed.Parameters = map[string]interface{}{}
	}

	p.logger.Info("intent classified", map[string]interface{}{
		"intent":     parsed.Intent,
		"confidence": parsed.Confidence,
		"language":   parsed.Language,
	})
	return parsed, nil
}

// buildInstruction assembles the classification prompt: the catalog with
// descriptions, parameters and worked examples, filler phrases to ignore,
// follow-up handling, and the mandatory output shape.
func (p *Parser) buildInstruction(cat catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("You are an intent classifier. Classify the user message into exactly one of the following intents.\n\n")
	b.WriteString("Intents:\n")
	for _, name := range cat.Names() {
		def := cat[name]
		b.WriteString(fmt.Sprintf("- %s: %s", name, def.Description))
		if len(def.Parameters) > 0 {
			b.WriteString(fmt.Sprintf(" (parameters: %s)", strings.Join(def.Parameters, ", ")))
		}
		b.WriteString("\n")
		for _, ex := range def.Examples {
			params, _ := json.Marshal(ex.Parameters)
			b.WriteString(fmt.Sprintf("  example: %q -> parameters %s\n", ex.Input, params))
		}
	}

	b.WriteString("\nIgnore conversational filler when extracting parameters:\n")
	for lang, phrases := range fillerPhrases {
		b.WriteString(fmt.Sprintf("- %s: %s\n", lang, strings.Join(phrases, ", ")))
	}

	b.WriteString("\nIf the message has the shape \"Context: ... Follow-up: ...\", classify the follow-up question, ")
	b.WriteString("using the context only to resolve references in it.\n")

	b.WriteString("\nRespond with ONLY a JSON object of this exact shape, no prose:\n")
	b.WriteString(`{"intent": "<intent name>", "parameters": {}, "confidence": 0.0, "language": "<ISO 639-1 code>"}`)
	return b.String()
}

// parseReply decodes the classifier reply, tolerating a markdown code fence
// around the JSON object. The returned bool reports whether the reply carried
// a confidence field at all, so an explicit 0.0 is distinguishable from an
// absent value.
func parseReply(reply string) (*ParsedIntent, bool, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var raw struct {
		Intent     string                 `json:"intent"`
		Parameters map[string]interface{} `json:"parameters"`
		Confidence *float64               `json:"confidence"`
		Language   string                 `json:"language"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false, fmt.Errorf("decode classifier reply: %w", err)
	}
	if raw.Intent == "" {
		return nil, false, fmt.Errorf("classifier reply has no intent")
	}

	parsed := &ParsedIntent{Intent: raw.Intent, Parameters: raw.Parameters, Language: raw.Language}
	if raw.Confidence == nil {
		return parsed, false, nil
	}
	parsed.Confidence = *raw.Confidence
	return parsed, true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

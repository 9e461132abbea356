// Package response decides a response type for a retrieval outcome and
// renders the user-facing text, from a template or through the generative
// backend.
package response

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalog-agent/internal/catalog"
	"catalog-agent/internal/common/config"
	apperrors "catalog-agent/internal/common/errors"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/content"
	"catalog-agent/internal/llm"
)

// Type is the closed set of response kinds.
type Type string

const (
	TypeResultsFound Type = "results_found"
	TypeNoResults    Type = "no_results"
	TypeHelp         Type = "help"
	TypeError        Type = "error"
	TypeFallback     Type = "fallback"
)

const maxGenerativeSamples = 5

// Generated is the rendered response together with its decided type.
type Generated struct {
	Content string `json:"content"`
	Type    Type   `json:"response_type"`
}

// Request carries everything one generation call needs.
type Request struct {
	Intent        string
	Parameters    map[string]interface{}
	Items         []content.Item
	ResultCount   int
	OriginalInput string
	Language      string
}

// Generator renders responses.
type Generator struct {
	agent      config.AgentConfig
	generative config.GenerativeConfig
	display    int
	templates  TemplateSet
	cat        catalog.Catalog
	client     llm.Client
	logger     logger.Logger

	// AdaptForChat enables the markup rewrite pass for chat delivery.
	AdaptForChat bool
}

func NewGenerator(
	agent config.AgentConfig,
	generative config.GenerativeConfig,
	maxDisplayResults int,
	templates TemplateSet,
	cat catalog.Catalog,
	client llm.Client,
	log logger.Logger,
) *Generator {
	if maxDisplayResults <= 0 {
		maxDisplayResults = 10
	}
	return &Generator{
		agent:      agent,
		generative: generative,
		display:    maxDisplayResults,
		templates:  templates,
		cat:        cat,
		client:     client,
		logger:     log.WithFields(map[string]interface{}{"component": "response_generator"}),
	}
}

// Generate decides the response type and renders it. The decision is a fixed
// priority: help intent first, then empty results, then results, then the
// fallback safety default.
func (g *Generator) Generate(ctx context.Context, req Request) (*Generated, error) {
	var t Type
	switch {
	case req.Intent == g.agent.HelpIntent:
		t = TypeHelp
	case req.ResultCount == 0:
		t = TypeNoResults
	case req.ResultCount > 0:
		t = TypeResultsFound
	default:
		t = TypeFallback
	}

	var text string
	switch t {
	case TypeHelp:
		text = g.renderHelp(req)
	case TypeNoResults:
		text = g.renderNoResults(req)
	case TypeResultsFound:
		text = g.renderResults(ctx, req)
	default:
		text = g.renderFallback(req)
	}

	// Custom template sets can be misconfigured down to an empty message.
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewResponseRenderError(fmt.Errorf("%s template rendered no text", t))
	}
	return &Generated{Content: g.adapt(text), Type: t}, nil
}

// RenderError renders the uniform error response. mode "technical" exposes
// the category and message; anything else produces the agent-branded
// apology.
func (g *Generator) RenderError(originalInput, language, mode, category, message string) *Generated {
	var text string
	if mode == "technical" {
		text = fmt.Sprintf("Error [%s]: %s", category, message)
	} else {
		tpl := g.templates.Lookup(TypeError, language, g.agent.DefaultLanguage)
		text = g.substituteContext(tpl.Message, originalInput)
		text = appendSuggestions(text, tpl.Suggestions)
	}
	return &Generated{Content: g.adapt(text), Type: TypeError}
}

func (g *Generator) renderHelp(req Request) string {
	tpl := g.templates.Lookup(TypeHelp, req.Language, g.agent.DefaultLanguage)
	var b strings.Builder
	b.WriteString(g.substituteContext(tpl.Message, req.OriginalInput))

	for _, name := range g.cat.Names() {
		if name == g.agent.HelpIntent {
			continue
		}
		def := g.cat[name]
		b.WriteString(fmt.Sprintf("\n- %s: %s", name, def.Description))
		for _, ex := range def.Examples {
			b.WriteString(fmt.Sprintf("\n  e.g. %q", ex.Input))
		}
	}
	return appendSuggestions(b.String(), tpl.Suggestions)
}

func (g *Generator) renderNoResults(req Request) string {
	tpl := g.templates.Lookup(TypeNoResults, req.Language, g.agent.DefaultLanguage)
	text := g.substituteContext(tpl.Message, req.OriginalInput)
	return appendSuggestions(text, tpl.Suggestions)
}

func (g *Generator) renderFallback(req Request) string {
	tpl := g.templates.Lookup(TypeFallback, req.Language, g.agent.DefaultLanguage)
	text := g.substituteContext(tpl.Message, req.OriginalInput)
	return appendSuggestions(text, tpl.Suggestions)
}

// renderResults tries the generative path when enabled and falls back to the
// template path on any backend failure.
func (g *Generator) renderResults(ctx context.Context, req Request) string {
	tpl := g.templates.Lookup(TypeResultsFound, req.Language, g.agent.DefaultLanguage)

	if g.generative.Enabled && g.client != nil {
		if text, err := g.composeGenerative(ctx, req, tpl); err == nil {
			return text
		} else {
			g.logger.Warn("generative composition failed, using template", map[string]interface{}{
				"intent": req.Intent,
				"error":  err.Error(),
			})
		}
	}
	return g.renderResultsTemplate(req, tpl)
}

func (g *Generator) renderResultsTemplate(req Request, tpl Template) string {
	var b strings.Builder
	b.WriteString(g.substituteContext(substitute(tpl.Header, map[string]string{
		"count": fmt.Sprintf("%d", req.ResultCount),
	}), req.OriginalInput))

	shown := req.Items
	if len(shown) > g.display {
		shown = shown[:g.display]
	}
	for _, item := range shown {
		b.WriteString(substituteItem(tpl.ResultFormat, item))
	}

	if remaining := req.ResultCount - len(shown); remaining > 0 && tpl.Footer != "" {
		b.WriteString(substitute(tpl.Footer, map[string]string{
			"remaining": fmt.Sprintf("%d", remaining),
			"count":     fmt.Sprintf("%d", req.ResultCount),
		}))
	}
	return b.String()
}

// composeGenerative asks the generative backend for free-text prose, passing
// at most maxGenerativeSamples items to bound the payload.
func (g *Generator) composeGenerative(ctx context.Context, req Request, tpl Template) (string, error) {
	samples := req.Items
	limit := g.generative.MaxSampleRows
	if limit <= 0 || limit > maxGenerativeSamples {
		limit = maxGenerativeSamples
	}
	if len(samples) > limit {
		samples = samples[:limit]
	}
	payload, err := json.Marshal(samples)
	if err != nil {
		return "", fmt.Errorf("encode sample items: %w", err)
	}

	instruction := fmt.Sprintf(
		"You are %s. Compose a helpful chat reply presenting search results to the user.\n"+
			"Follow this style, without copying it verbatim:\n%s%s\n"+
			"The user asked (intent %q, parameters %v) and there are %d results in total. "+
			"These are the first results as JSON:\n%s\n"+
			"Reply in language %q with plain conversational text.",
		g.agent.Name, tpl.Header, tpl.ResultFormat,
		req.Intent, req.Parameters, req.ResultCount, payload, req.Language,
	)

	reply, err := g.client.Complete(ctx, llm.Request{
		Model:       g.generative.Model,
		Instruction: instruction,
		UserText:    req.OriginalInput,
		MaxTokens:   g.generative.MaxTokens,
		Temperature: g.generative.Temperature,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("generative backend returned empty text")
	}
	return reply, nil
}

// substituteContext fills the request-level placeholders shared by every
// template.
func (g *Generator) substituteContext(text, originalInput string) string {
	return substitute(text, map[string]string{
		"query":             originalInput,
		"agent_name":        g.agent.Name,
		"agent_description": g.agent.Description,
	})
}

// substituteItem resolves the item placeholders: the well-known fields plus
// any other field addressed as {field:<name>}. Missing values become empty
// strings.
func substituteItem(format string, item content.Item) string {
	out := substitute(format, map[string]string{
		"title":       item.StringField("title"),
		"description": item.StringField("description"),
		"category":    item.StringField("category"),
		"tags":        strings.Join(item.Tags(), ", "),
		"duration":    item.StringField("duration"),
		"level":       item.StringField("level"),
		"type":        item.StringField("type"),
	})

	for strings.Contains(out, "{field:") {
		start := strings.Index(out, "{field:")
		end := strings.Index(out[start:], "}")
		if end < 0 {
			break
		}
		end += start
		name := out[start+len("{field:") : end]
		out = out[:start] + item.StringField(name) + out[end+1:]
	}
	return out
}

func substitute(text string, values map[string]string) string {
	for name, value := range values {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

func appendSuggestions(text string, suggestions []string) string {
	if len(suggestions) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for _, s := range suggestions {
		b.WriteString("\n- " + s)
	}
	return b.String()
}

// adapt rewrites markdown double-emphasis into the chat platform's single
// asterisk syntax when chat delivery is enabled.
func (g *Generator) adapt(text string) string {
	if !g.AdaptForChat {
		return text
	}
	return strings.ReplaceAll(text, "**", "*")
}

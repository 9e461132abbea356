// Package orchestrator sequences the pipeline stages for one request:
// validation, intent classification, content retrieval, response generation,
// delivery and session logging, with one uniform fallback path for stage
// failures.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"catalog-agent/internal/agents/intent"
	"catalog-agent/internal/agents/response"
	"catalog-agent/internal/agents/retrieval"
	"catalog-agent/internal/catalog"
	"catalog-agent/internal/common/config"
	apperrors "catalog-agent/internal/common/errors"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/common/metrics"
	"catalog-agent/internal/delivery"
	"catalog-agent/internal/sessionlog"
)

// fallbackApology is returned when even the response generator is unavailable.
const fallbackApology = `Sorry, something went wrong while handling your request. Please try again or ask for "help".`

// RunResult is the single structured outcome of one pipeline run.
type RunResult struct {
	SessionID    string                 `json:"session_id"`
	Success      bool                   `json:"success"`
	Intent       string                 `json:"intent,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Confidence   float64                `json:"confidence,omitempty"`
	Language     string                 `json:"language,omitempty"`
	ResultCount  int                    `json:"result_count"`
	Response     string                 `json:"response"`
	ResponseType response.Type          `json:"response_type"`
	Deliveries   []string               `json:"deliveries,omitempty"`
	StageTimings map[string]int64       `json:"stage_timings_ms"`
	ErrorCode    string                 `json:"error_code,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// RunOptions carries the per-request delivery context.
type RunOptions struct {
	Channel   string
	ThreadRef string
	User      string
}

// Orchestrator wires the three agents with the delivery and logging
// collaborators. The clock and session-id generator are injectable so runs
// are deterministic under test.
type Orchestrator struct {
	cfg       *config.Config
	cat       catalog.Catalog
	parser    *intent.Parser
	retriever *retrieval.Retriever
	generator *response.Generator
	deliverer delivery.Deliverer
	fanout    *delivery.Fanout
	sns       *delivery.SNSPublisher
	sink      sessionlog.Sink
	logger    logger.Logger

	Now   func() time.Time
	NewID func() string
}

func New(
	cfg *config.Config,
	cat catalog.Catalog,
	parser *intent.Parser,
	retriever *retrieval.Retriever,
	generator *response.Generator,
	deliverer delivery.Deliverer,
	fanout *delivery.Fanout,
	sns *delivery.SNSPublisher,
	sink sessionlog.Sink,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		cat:       cat,
		parser:    parser,
		retriever: retriever,
		generator: generator,
		deliverer: deliverer,
		fanout:    fanout,
		sns:       sns,
		sink:      sink,
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		Now:       time.Now,
		NewID:     func() string { return uuid.New().String() },
	}
}

// Run executes the full pipeline for one utterance. Stage failures route
// through the uniform fallback path; delivery and logging failures are
// recorded but never fail the run.
func (o *Orchestrator) Run(ctx context.Context, userInput string, opts RunOptions) *RunResult {
	start := o.Now()
	result := &RunResult{
		SessionID:    o.NewID(),
		StageTimings: map[string]int64{},
		Timestamp:    start.UTC(),
	}
	log := o.logger.WithFields(map[string]interface{}{"sessionId": result.SessionID})
	log.Info("request received", map[string]interface{}{
		"inputLength": len(userInput),
	})

	if err := o.validate(userInput); err != nil {
		return o.fail(ctx, result, userInput, "", err, log)
	}

	parsed, err := o.timedParse(ctx, userInput, result)
	if err != nil {
		return o.fail(ctx, result, userInput, "", err, log)
	}
	result.Intent = parsed.Intent
	result.Parameters = parsed.Parameters
	result.Confidence = parsed.Confidence
	result.Language = parsed.Language

	// Help requests never touch the data provider; their response is
	// rendered from the catalog alone.
	search := &retrieval.SearchResult{Intent: parsed.Intent, Parameters: parsed.Parameters}
	if parsed.Intent != o.cfg.Agent.HelpIntent {
		var err error
		search, err = o.timedRetrieve(ctx, parsed, result)
		if err != nil {
			return o.fail(ctx, result, userInput, parsed.Language, err, log)
		}
	}
	result.ResultCount = search.Count

	generated, err := o.timedGenerate(ctx, userInput, parsed, search, result)
	if err != nil {
		return o.fail(ctx, result, userInput, parsed.Language, err, log)
	}
	result.Response = generated.Content
	result.ResponseType = generated.Type
	result.Success = true

	o.deliver(ctx, result, userInput, opts, log)
	o.logSession(ctx, result, userInput, log)

	metrics.RequestsTotal.WithLabelValues(o.cfg.Agent.Name, "success").Inc()
	log.Info("request complete", map[string]interface{}{
		"intent":       result.Intent,
		"resultCount":  result.ResultCount,
		"responseType": string(result.ResponseType),
		"durationMs":   o.Now().Sub(start).Milliseconds(),
	})
	return result
}

func (o *Orchestrator) validate(userInput string) error {
	if strings.TrimSpace(userInput) == "" {
		return apperrors.NewInputValidationError("input is empty or whitespace-only")
	}
	if o.cfg == nil {
		return apperrors.NewInputValidationError("configuration is missing")
	}
	if len(o.cat) == 0 {
		return apperrors.NewInputValidationError("intent catalog is missing or empty")
	}
	if o.retriever == nil {
		return apperrors.NewInputValidationError("data provider is missing")
	}
	if o.generator == nil {
		return apperrors.NewInputValidationError("response generator is missing")
	}
	return nil
}

func (o *Orchestrator) timedParse(ctx context.Context, userInput string, result *RunResult) (*intent.ParsedIntent, error) {
	return timed(o, result, apperrors.StageParse, func() (*intent.ParsedIntent, error) {
		return o.parser.Parse(ctx, userInput, o.cat)
	})
}

func (o *Orchestrator) timedRetrieve(ctx context.Context, parsed *intent.ParsedIntent, result *RunResult) (*retrieval.SearchResult, error) {
	return timed(o, result, apperrors.StageRetrieve, func() (*retrieval.SearchResult, error) {
		return o.retriever.Retrieve(ctx, parsed.Intent, parsed.Parameters)
	})
}

func (o *Orchestrator) timedGenerate(ctx context.Context, userInput string, parsed *intent.ParsedIntent, search *retrieval.SearchResult, result *RunResult) (*response.Generated, error) {
	return timed(o, result, apperrors.StageGenerate, func() (*response.Generated, error) {
		return o.generator.Generate(ctx, response.Request{
			Intent:        parsed.Intent,
			Parameters:    parsed.Parameters,
			Items:         search.Items,
			ResultCount:   search.Count,
			OriginalInput: userInput,
			Language:      parsed.Language,
		})
	})
}

// timed records the stage duration into the result and the stage histogram.
func timed[T any](o *Orchestrator, result *RunResult, stage string, fn func() (T, error)) (T, error) {
	start := o.Now()
	out, err := fn()
	elapsed := o.Now().Sub(start)
	result.StageTimings[stage] = elapsed.Milliseconds()
	metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	return out, err
}

// fail routes a stage failure through the uniform fallback path: synthesize
// the fallback response, best-effort log the session, and return a failed
// result.
func (o *Orchestrator) fail(ctx context.Context, result *RunResult, userInput, language string, err error, log logger.Logger) *RunResult {
	pe := apperrors.AsPipelineError(err, apperrors.StageValidation)
	result.Success = false
	result.ErrorCode = string(pe.Code)

	// Validation may have failed precisely because cfg or the generator is
	// missing, so neither may be touched unguarded here.
	agentName := "unknown"
	errorMode := ""
	if o.cfg != nil {
		agentName = o.cfg.Agent.Name
		errorMode = o.cfg.Agent.ErrorMode
		if language == "" {
			language = o.cfg.Agent.DefaultLanguage
		}
	}

	metrics.StageFailures.WithLabelValues(pe.Stage, string(pe.Code)).Inc()
	metrics.RequestsTotal.WithLabelValues(agentName, "failure").Inc()
	log.WithError(pe).Error("stage failed", map[string]interface{}{
		"stage":     pe.Stage,
		"errorCode": string(pe.Code),
	})

	if o.generator != nil {
		generated := o.generator.RenderError(userInput, language, errorMode, string(pe.Code), pe.Message)
		result.Response = generated.Content
		result.ResponseType = generated.Type
	} else {
		result.Response = fallbackApology
		result.ResponseType = response.TypeError
	}

	o.logSession(ctx, result, userInput, log)
	return result
}

// deliver posts the rendered response to every enabled outbound channel.
// Failures are recorded on the result but never abort the run.
func (o *Orchestrator) deliver(ctx context.Context, result *RunResult, userInput string, opts RunOptions, log logger.Logger) {
	if !o.cfg.Delivery.Enabled {
		return
	}
	start := o.Now()
	defer func() {
		result.StageTimings[apperrors.StageDeliver] = o.Now().Sub(start).Milliseconds()
	}()

	channel := opts.Channel
	if channel == "" {
		channel = o.cfg.Delivery.Channel
	}

	if o.deliverer != nil {
		if _, err := o.deliverer.PostMessage(ctx, delivery.Message{
			Channel:   channel,
			Text:      result.Response,
			ThreadRef: opts.ThreadRef,
		}); err != nil {
			pe := apperrors.NewDeliveryError(channel, err)
			log.WithError(pe).Warn("chat delivery failed", nil)
			metrics.DeliveriesTotal.WithLabelValues("chat", "failure").Inc()
			result.Deliveries = append(result.Deliveries, "chat:failed")
		} else {
			metrics.DeliveriesTotal.WithLabelValues("chat", "success").Inc()
			result.Deliveries = append(result.Deliveries, "chat:ok")
		}
	}

	env := delivery.Envelope{
		SessionID: result.SessionID,
		UserInput: userInput,
		Intent:    result.Intent,
		Response:  result.Response,
		Timestamp: result.Timestamp.Format(time.RFC3339),
		User:      opts.User,
		Channel:   channel,
		AgentName: o.cfg.Agent.Name,
	}

	if o.fanout != nil {
		if n, err := o.fanout.Send(ctx, env); err != nil {
			log.WithError(err).Warn("webhook fan-out failed", nil)
			metrics.DeliveriesTotal.WithLabelValues("webhook", "failure").Inc()
			result.Deliveries = append(result.Deliveries, "webhook:failed")
		} else if n > 0 {
			metrics.DeliveriesTotal.WithLabelValues("webhook", "success").Inc()
			result.Deliveries = append(result.Deliveries, "webhook:ok")
		}
	}

	if o.sns != nil {
		if _, err := o.sns.Publish(ctx, env); err != nil {
			log.WithError(err).Warn("sns publish failed", nil)
			metrics.DeliveriesTotal.WithLabelValues("sns", "failure").Inc()
			result.Deliveries = append(result.Deliveries, "sns:failed")
		} else {
			metrics.DeliveriesTotal.WithLabelValues("sns", "success").Inc()
			result.Deliveries = append(result.Deliveries, "sns:ok")
		}
	}
}

// logSession hands the session record to the sink, best-effort.
func (o *Orchestrator) logSession(ctx context.Context, result *RunResult, userInput string, log logger.Logger) {
	if o.sink == nil || o.cfg == nil || !o.cfg.SessionLog.Enabled {
		return
	}
	start := o.Now()
	rec := sessionlog.Record{
		SessionID:    result.SessionID,
		UserInput:    userInput,
		Intent:       result.Intent,
		Parameters:   result.Parameters,
		Confidence:   result.Confidence,
		Language:     result.Language,
		ResultCount:  result.ResultCount,
		ResponseType: string(result.ResponseType),
		Response:     result.Response,
		StageTimings: result.StageTimings,
		Deliveries:   result.Deliveries,
		Success:      result.Success,
		ErrorCode:    result.ErrorCode,
		Timestamp:    result.Timestamp,
	}
	if err := o.sink.Append(ctx, rec); err != nil {
		pe := apperrors.NewLoggingError(err)
		log.WithError(pe).Warn("session logging failed", nil)
	}
	result.StageTimings[apperrors.StageLog] = o.Now().Sub(start).Milliseconds()
}

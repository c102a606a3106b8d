package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/sitka/pkg/telemetry"
	"github.com/AleutianAI/sitka/services/datatypes"
)

var tracer = otel.Tracer("sitka/llm")

// ErrNoProviders is returned in multi-backend mode when no enabled
// provider with a non-empty credential is configured.
var ErrNoProviders = errors.New("no enabled text-generation provider is configured")

// ClassifiedError is the final error a generation request surfaces: the
// last backend's failure, pre-rendered as a stable user-facing message.
type ClassifiedError struct {
	Backend  datatypes.Kind
	Category Category
	Message  string
	Err      error
}

func (e *ClassifiedError) Error() string { return e.Message }

func (e *ClassifiedError) Unwrap() error { return e.Err }

// ProviderSource yields the configured failover candidates.
// *settings.Store satisfies this.
type ProviderSource interface {
	Providers() ([]datatypes.ProviderConfig, error)
}

// BackendFactory builds a Client for one provider config. Swappable so
// tests can script backend behavior.
type BackendFactory func(cfg datatypes.ProviderConfig) (Client, error)

// EngineConfig wires an Engine.
type EngineConfig struct {
	// Source yields the provider list. Required for multi mode.
	Source ProviderSource

	// Factory builds backend clients. Defaults to NewBackend.
	Factory BackendFactory

	// Events records fallback transitions. Required.
	Events *FallbackLog

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine runs generation requests against the configured backends.
//
// # Description
//
// A two-level retry/failover state machine. The outer loop walks the
// enabled provider configs in ascending priority order and advances to the
// next backend on every failure category: even a failure no retry could
// fix locally (region restriction, rate limit) may succeed on a different
// backend. Only the final backend's classified failure reaches the caller.
// The inner loop lives inside backends with multiple model variants (see
// GeminiClient) and has its own, stricter stop conditions.
//
// Generation requests never touch the shared document, so any number may
// run concurrently; only the fallback history append serializes.
//
// # Thread Safety
//
// Safe for concurrent use.
type Engine struct {
	source  ProviderSource
	factory BackendFactory
	events  *FallbackLog
	logger  *slog.Logger
}

// NewEngine creates an Engine from cfg, applying defaults.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Factory == nil {
		cfg.Factory = NewBackend
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		source:  cfg.Source,
		factory: cfg.Factory,
		events:  cfg.Events,
		logger:  cfg.Logger,
	}
}

// OrderConfigs filters and orders failover candidates: enabled entries
// with a non-empty credential, ascending priority, ties keeping input
// order.
func OrderConfigs(configs []datatypes.ProviderConfig) []datatypes.ProviderConfig {
	ordered := make([]datatypes.ProviderConfig, 0, len(configs))
	for _, cfg := range configs {
		if cfg.Enabled && cfg.Credential != "" {
			ordered = append(ordered, cfg)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

// Generate runs one request in multi-backend mode.
//
// # Description
//
// Tries each configured backend in priority order. The first success wins
// and no further backend is invoked. Each failure is classified; if
// another backend remains, a FallbackEvent is recorded and the loop
// advances regardless of category. The last backend's failure is returned
// as a *ClassifiedError.
//
// # Inputs
//
//   - ctx: Passed through to the backend call. No additional timeout is
//     imposed beyond the transport's own.
//   - prompt: The prompt text.
//   - params: Generation parameters shared by all backends.
//
// # Outputs
//
//   - string: The first successful backend's response.
//   - error: ErrNoProviders when the candidate list is empty, a source
//     error, or the final backend's *ClassifiedError.
func (e *Engine) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	ctx, span := tracer.Start(ctx, "Engine.Generate")
	defer span.End()
	logger := telemetry.LoggerWithTrace(ctx, e.logger)

	raw, err := e.source.Providers()
	if err != nil {
		return "", fmt.Errorf("loading provider configs: %w", err)
	}
	configs := OrderConfigs(raw)
	span.SetAttributes(attribute.Int("llm.num_backends", len(configs)))

	if len(configs) == 0 {
		return "", ErrNoProviders
	}

	var lastErr *ClassifiedError
	for i, cfg := range configs {
		result, err := e.attempt(ctx, cfg, prompt, params)
		if err == nil {
			logger.Info("generation succeeded",
				slog.String("backend", string(cfg.Kind)),
				slog.Int("attempt", i+1),
			)
			return result, nil
		}

		cls := Classify(err, cfg.Kind)
		lastErr = &ClassifiedError{Backend: cfg.Kind, Category: cls.Category, Message: cls.Message, Err: err}
		logger.Warn("backend failed",
			slog.String("backend", string(cfg.Kind)),
			slog.String("category", string(cls.Category)),
			slog.String("error", err.Error()),
		)

		if i < len(configs)-1 {
			next := configs[i+1]
			e.events.Append(cfg.Kind, next.Kind,
				fmt.Sprintf("%s: %s", cls.Category, cls.Message))
		}
	}

	return "", lastErr
}

// GenerateSingle runs one request in legacy single-backend mode: one
// backend, one credential, no cross-backend retry.
func (e *Engine) GenerateSingle(ctx context.Context, kind datatypes.Kind, credential, prompt string,
	params GenerationParams) (string, error) {

	ctx, span := tracer.Start(ctx, "Engine.GenerateSingle")
	defer span.End()
	span.SetAttributes(attribute.String("llm.backend", string(kind)))

	if credential == "" {
		return "", fmt.Errorf("no credential configured for backend %s", kind)
	}

	cfg := datatypes.ProviderConfig{Kind: kind, Credential: credential, Enabled: true}
	result, err := e.attempt(ctx, cfg, prompt, params)
	if err != nil {
		cls := Classify(err, kind)
		return "", &ClassifiedError{Backend: kind, Category: cls.Category, Message: cls.Message, Err: err}
	}
	return result, nil
}

// attempt builds the backend client and runs one generation call.
func (e *Engine) attempt(ctx context.Context, cfg datatypes.ProviderConfig, prompt string,
	params GenerationParams) (string, error) {

	start := time.Now()
	client, err := e.factory(cfg)
	if err == nil {
		var result string
		result, err = client.Generate(ctx, prompt, params)
		if err == nil {
			generationAttemptsTotal.WithLabelValues(string(cfg.Kind), "ok").Inc()
			generationDuration.WithLabelValues(string(cfg.Kind)).Observe(time.Since(start).Seconds())
			return result, nil
		}
	}
	generationAttemptsTotal.WithLabelValues(string(cfg.Kind), "error").Inc()
	generationDuration.WithLabelValues(string(cfg.Kind)).Observe(time.Since(start).Seconds())
	return "", err
}

// Package gateway implements the per-request admission and serving flow:
// rate limit, concurrency gate, response cache, retrieval-augmented prompt
// assembly and the generation call.
package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptgate/internal/admission"
	"github.com/fyrsmithlabs/promptgate/internal/config"
	"github.com/fyrsmithlabs/promptgate/internal/knowledge"
	"github.com/fyrsmithlabs/promptgate/internal/llm"
	"github.com/fyrsmithlabs/promptgate/internal/metrics"
	"github.com/fyrsmithlabs/promptgate/internal/respcache"
)

// Output format selectors.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

const (
	markdownInstruction = "\n\nFormat the answer as Markdown with appropriate headings, lists and emphasis."
	textInstruction     = "\n\nFormat the answer as clearly structured plain text with appropriate headings and lists."

	referencePreamble = "\n\n[Reference material]\n"
	referenceEpilogue = "\n\nUse the reference material above when it is relevant to the question, and prefer it over general knowledge."
)

// ChatRequest is one generation request entering the gateway.
type ChatRequest struct {
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	// UseKnowledge overrides the process-wide retrieval default when set.
	UseKnowledge *bool `json:"use_knowledge_base"`
	// ClientID identifies the caller for rate limiting.
	ClientID string `json:"-"`
}

// ChatResponse is a successful generation result.
type ChatResponse struct {
	Response string `json:"response"`
	Format   string `json:"format"`
	CacheHit bool   `json:"cache_hit"`
}

// Gateway owns the admission components and drives a request from arrival
// to response. One instance serves all requests.
type Gateway struct {
	limiter *admission.RateLimiter
	gate    *admission.Gate
	cache   *respcache.Cache[string]
	sink    *metrics.Sink
	store   *knowledge.Store
	client  llm.Client
	logger  *zap.Logger

	cacheEnabled    bool
	useKnowledge    bool
	maxContextChars int
	systemPrompt    string
	requestTimeout  time.Duration
}

// New wires a gateway from config and its collaborators.
func New(cfg config.Config, store *knowledge.Store, client llm.Client, sink *metrics.Sink, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		limiter:         admission.NewRateLimiter(cfg.Admission.RateLimitPerMinute),
		gate:            admission.NewGate(cfg.Admission.MaxConcurrent),
		cache:           respcache.New[string](cfg.Cache.TTL.Duration(), cfg.Cache.MaxEntries),
		sink:            sink,
		store:           store,
		client:          client,
		logger:          logger,
		cacheEnabled:    cfg.Cache.Enabled,
		useKnowledge:    cfg.Knowledge.Enabled,
		maxContextChars: cfg.Knowledge.MaxContextChars,
		systemPrompt:    cfg.LLM.SystemPrompt,
		requestTimeout:  cfg.Admission.RequestTimeout.Duration(),
	}
}

// Chat runs the full admission and serving flow for one request. Rejections
// come back as *Error with a stable code; the gate slot is released exactly
// once on every path.
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	reqID := uuid.NewString()
	log := g.logger.With(zap.String("request_id", reqID))

	g.sink.RequestStarted()
	defer g.sink.RequestFinished()

	if !g.limiter.Allow(req.ClientID) {
		g.sink.Record(time.Since(start), metrics.OutcomeRateLimited)
		log.Warn("request rate limited", zap.String("client", req.ClientID))
		return nil, errRateLimited()
	}

	if !g.gate.TryAcquire() {
		g.sink.Record(time.Since(start), metrics.OutcomeServerBusy)
		log.Warn("request rejected, gate at capacity",
			zap.Int("capacity", g.gate.Capacity()))
		return nil, errServerBusy()
	}
	defer g.gate.Release()

	format := req.Format
	if format != FormatMarkdown {
		format = FormatText
	}
	useKnowledge := g.useKnowledge
	if req.UseKnowledge != nil {
		useKnowledge = *req.UseKnowledge
	}

	key, err := Fingerprint("chat", map[string]any{
		"prompt":             req.Prompt,
		"format":             format,
		"use_knowledge_base": useKnowledge,
	})
	if err != nil {
		g.sink.Record(time.Since(start), metrics.OutcomeCacheMiss)
		return nil, errUpstream("failed to fingerprint request")
	}

	if g.cacheEnabled {
		if cached, ok := g.cache.Get(key); ok {
			g.sink.Record(time.Since(start), metrics.OutcomeCacheHit)
			log.Debug("cache hit", zap.String("key", key))
			return &ChatResponse{Response: cached, Format: format, CacheHit: true}, nil
		}
	}

	if g.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.requestTimeout)
		defer cancel()
	}

	system := g.systemPrompt
	if useKnowledge {
		kbContext, err := g.store.Context(ctx, req.Prompt, g.maxContextChars)
		if err != nil {
			log.Warn("knowledge retrieval failed, proceeding without context",
				zap.Error(err))
		} else if kbContext != "" {
			system += referencePreamble + kbContext + referenceEpilogue
			log.Info("retrieved knowledge context",
				zap.Int("chars", len([]rune(kbContext))))
		}
	}
	if format == FormatMarkdown {
		system += markdownInstruction
	} else {
		system += textInstruction
	}

	answer, err := g.client.Complete(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Prompt},
	})
	if err != nil {
		g.sink.Record(time.Since(start), metrics.OutcomeCacheMiss)
		log.Error("generation failed", zap.Error(err))
		return nil, errUpstream("generation request failed")
	}

	if g.cacheEnabled {
		g.cache.Put(key, answer)
		g.sink.SetCacheSize(g.cache.Len())
	}
	g.sink.Record(time.Since(start), metrics.OutcomeCacheMiss)
	log.Info("request served",
		zap.String("format", format),
		zap.Bool("knowledge", useKnowledge),
		zap.Duration("latency", time.Since(start)))

	return &ChatResponse{Response: answer, Format: format, CacheHit: false}, nil
}

// Metrics returns the current metrics snapshot.
func (g *Gateway) Metrics() metrics.Snapshot {
	return g.sink.Snapshot()
}

// ClearCache empties the response cache and returns how many entries were
// dropped.
func (g *Gateway) ClearCache() int {
	n := g.cache.Len()
	g.cache.Clear()
	g.sink.SetCacheSize(0)
	return n
}

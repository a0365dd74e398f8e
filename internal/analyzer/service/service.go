package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/foundation/expr"
	"github.com/msto63/lexana/foundation/expr/ast"
	"github.com/msto63/lexana/foundation/expr/lexer"
	"github.com/msto63/lexana/foundation/expr/parser"
	"github.com/msto63/lexana/foundation/expr/symbols"
	"github.com/msto63/lexana/foundation/expr/token"
	"github.com/msto63/lexana/internal/analyzer/store"
	"github.com/msto63/lexana/pkg/core/cache"
	"github.com/msto63/lexana/pkg/core/logging"
)

// DefaultMaxInputLength is used when Config.MaxInputLength is zero
const DefaultMaxInputLength = 4096

// Result is the outcome of analyzing one input. Err is set when the input
// was rejected; Tokens may still be present for syntax errors.
type Result struct {
	RunID     string
	Input     string
	Accepted  bool
	Tokens    []token.Token
	Tree      *ast.Node
	Symbols   *symbols.Table
	Err       error
	Duration  time.Duration
	CreatedAt time.Time
}

// LineResult is a Result with its line number in a batch
type LineResult struct {
	Line int
	*Result
}

// BatchResult summarizes AnalyzeLines
type BatchResult struct {
	Results  []LineResult
	Accepted int
	Rejected int
}

// Config holds service configuration
type Config struct {
	NormalizeNFC   bool
	MatchTimeout   time.Duration
	AllowTrailing  bool
	MaxInputLength int

	// Store receives every analysis; nil disables history
	Store store.HistoryStore

	// CacheSize bounds the number of inputs whose analysis is kept in
	// memory; zero disables the cache
	CacheSize int
	CacheTTL  time.Duration

	Logger *logging.Logger
}

// Service runs analyses and records them in the history store
type Service struct {
	analyzer       *expr.Analyzer
	store          store.HistoryStore
	cache          *cache.Cache[cachedAnalysis]
	maxInputLength int
	logger         *logging.Logger
}

// NewService creates a new analyzer service
func NewService(cfg Config) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("analyzer")
	}

	analyzer, err := expr.New(expr.Options{
		Logger:        logger.Foundation(),
		NormalizeNFC:  cfg.NormalizeNFC,
		MatchTimeout:  cfg.MatchTimeout,
		AllowTrailing: cfg.AllowTrailing,
	})
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to build analyzer").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("service.NewService")
	}

	maxLen := cfg.MaxInputLength
	if maxLen <= 0 {
		maxLen = DefaultMaxInputLength
	}

	svc := &Service{
		analyzer:       analyzer,
		store:          cfg.Store,
		maxInputLength: maxLen,
		logger:         logger,
	}
	if cfg.CacheSize > 0 {
		svc.cache = cache.New[cachedAnalysis](cache.Config{
			MaxItems:        cfg.CacheSize,
			TTL:             cfg.CacheTTL,
			CleanupInterval: cache.DefaultConfig().CleanupInterval,
		})
	}
	return svc, nil
}

// Close releases the analysis cache. The history store is owned by the
// caller and stays open.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// CacheStats returns the analysis cache statistics; ok is false when the
// cache is disabled
func (s *Service) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// HistoryEnabled reports whether analyses are recorded
func (s *Service) HistoryEnabled() bool {
	return s.store != nil
}

// Analyze tokenizes and parses input. A rejected input is not an error of
// Analyze: it is reported in Result.Err. The returned error is set only when
// ctx is done.
func (s *Service) Analyze(ctx context.Context, input string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, mdwerror.Wrap(err, "analysis canceled").
			WithCode(mdwerror.CodeTimeout).
			WithOperation("service.Analyze")
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Input:     input,
		CreatedAt: time.Now().UTC(),
	}
	log := s.logger.Foundation().WithRequestID(res.RunID)
	timer := log.StartTimer("analysis").WithField("input_length", len(input))

	var rejection *mdwerror.Error
	if n := utf8.RuneCountInString(input); n > s.maxInputLength {
		rejection = mdwerror.Newf("input has %d characters, limit is %d", n, s.maxInputLength).
			WithCode(mdwerror.CodeInputTooLong).
			WithDetail("length", n).
			WithDetail("limit", s.maxInputLength)
	} else {
		analysis, cached, err := s.analyze(input)
		if cached {
			timer.WithField("cached", true)
		}
		if analysis != nil {
			res.Tokens = analysis.Tokens
			res.Tree = analysis.Tree
			res.Symbols = analysis.Symbols
		}
		rejection = classify(err)
	}

	res.Accepted = rejection == nil
	if rejection != nil {
		res.Err = rejection.WithOperation("service.Analyze").WithRequestID(res.RunID)
		log.LogError(res.Err)
	}
	res.Duration = timer.WithField("outcome", outcome(res)).Stop()

	s.record(ctx, res, log)
	return res, nil
}

// AnalyzeLines analyzes every non-blank line of r. Rejected lines do not
// stop the batch.
func (s *Service) AnalyzeLines(ctx context.Context, r io.Reader) (*BatchResult, error) {
	batch := &BatchResult{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		res, err := s.Analyze(ctx, text)
		if err != nil {
			return batch, err
		}
		batch.Results = append(batch.Results, LineResult{Line: line, Result: res})
		if res.Accepted {
			batch.Accepted++
		} else {
			batch.Rejected++
		}
	}
	if err := scanner.Err(); err != nil {
		return batch, mdwerror.Wrap(err, "failed to read input").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("service.AnalyzeLines")
	}

	s.logger.Info("Batch completed",
		"lines", line,
		"accepted", batch.Accepted,
		"rejected", batch.Rejected)
	return batch, nil
}

// History lists recorded analyses
func (s *Service) History(ctx context.Context, filter store.Filter) ([]*store.Record, error) {
	if s.store == nil {
		return nil, errHistoryDisabled()
	}
	return s.store.List(ctx, filter)
}

// Lookup returns one recorded analysis
func (s *Service) Lookup(ctx context.Context, runID string) (*store.Record, error) {
	if s.store == nil {
		return nil, errHistoryDisabled()
	}
	return s.store.Get(ctx, runID)
}

// HistoryStats summarizes the recorded analyses
func (s *Service) HistoryStats(ctx context.Context) (*store.Stats, error) {
	if s.store == nil {
		return nil, errHistoryDisabled()
	}
	return s.store.Stats(ctx)
}

// PruneHistory removes analyses older than retention
func (s *Service) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	if s.store == nil {
		return 0, errHistoryDisabled()
	}
	deleted, err := s.store.Prune(ctx, retention)
	if err != nil {
		return 0, err
	}
	s.logger.Info("History pruned", "deleted", deleted, "retention", retention.String())
	return deleted, nil
}

// record stores res; failures are logged and do not affect the result
func (s *Service) record(ctx context.Context, res *Result, log *mdwlog.Logger) {
	if s.store == nil {
		return
	}

	payload, err := json.Marshal(res.Document())
	if err != nil {
		log.WarnWithErr("Failed to encode history payload", err)
		payload = nil
	}

	rec := &store.Record{
		RunID:      res.RunID,
		CreatedAt:  res.CreatedAt,
		Input:      res.Input,
		Accepted:   res.Accepted,
		TokenCount: len(res.Tokens),
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
		Payload:    payload,
	}
	if res.Symbols != nil {
		rec.SymbolCount = res.Symbols.Len()
	}
	if res.Err != nil {
		rec.ErrorCode = string(mdwerror.GetCode(res.Err))
		rec.ErrorMessage = res.Err.Error()
	}

	if err := s.store.Save(ctx, rec); err != nil {
		log.LogError(err)
	}
}

// cachedAnalysis is an analyzer outcome; trees and symbol tables are
// never modified after analysis, so hits share them
type cachedAnalysis struct {
	analysis *expr.Analysis
	err      error
}

// analyze runs the analyzer through the cache. Only accepted and rejected
// inputs are cached, never internal failures.
func (s *Service) analyze(input string) (*expr.Analysis, bool, error) {
	if s.cache == nil {
		analysis, err := s.analyzer.Analyze(input)
		return analysis, false, err
	}
	if hit, ok := s.cache.Get(input); ok {
		return hit.analysis, true, hit.err
	}

	analysis, err := s.analyzer.Analyze(input)
	if err == nil || classify(err).Code().IsRejection() {
		s.cache.Set(input, cachedAnalysis{analysis: analysis, err: err})
	}
	return analysis, false, err
}

// classify wraps a front end error with its code. Positions and the
// offending token are kept as details; the typed error stays reachable
// through errors.As.
func classify(err error) *mdwerror.Error {
	if err == nil {
		return nil
	}

	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		return mdwerror.Wrap(err, "lexical error").
			WithCode(mdwerror.CodeLexical).
			WithDetail("position", lexErr.Position).
			WithDetail("char", string(lexErr.Char))
	}

	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		code := mdwerror.CodeSyntax
		if parseErr.Kind == parser.TrailingInput {
			code = mdwerror.CodeTrailingInput
		}
		wrapped := mdwerror.Wrap(err, "syntax error").
			WithCode(code).
			WithDetail("index", parseErr.Index)
		if parseErr.Kind == parser.UnexpectedToken {
			wrapped.WithDetail("expected", parseErr.Expected.String())
		}
		if parseErr.Found != nil {
			wrapped.WithDetail("found", parseErr.Found.String()).
				WithDetail("position", parseErr.Found.Pos)
		}
		return wrapped
	}

	return mdwerror.Wrap(err, "analysis failed").WithCode(mdwerror.CodeInternal)
}

func outcome(res *Result) string {
	if res.Accepted {
		return "accepted"
	}
	return string(mdwerror.GetCode(res.Err))
}

func errHistoryDisabled() error {
	return mdwerror.New("history is disabled").
		WithCode(mdwerror.CodeServiceUnavailable).
		WithOperation("service.History")
}

package optimize

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/jobdesc"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/prompt"
	"resume-optimizer/internal/render"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/internal/usage"
)

// PageFetcher retrieves the visible text of a job posting.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (jobdesc.Page, error)
}

// Quota records one generation call per client.
type Quota interface {
	Consume(ctx context.Context, clientID string) (usage.Usage, error)
}

// Input is one optimize action.
type Input struct {
	ResumeText     string
	JobDescription string
	Mode           prompt.Mode
	ClientID       string
}

// Result carries the generated text and its downloadable document.
type Result struct {
	Mode     prompt.Mode
	Text     string
	Document []byte
	FileName string
	MimeType string
}

// Service runs the optimize pipeline. Quota may be nil.
type Service struct {
	Generator llm.Generator
	Fetcher   PageFetcher
	Quota     Quota
	Provider  string
	Model     string
}

// Optimize validates inputs, builds the prompt, makes exactly one generation
// call and renders the result. Nothing external is called when input is missing.
func (s *Service) Optimize(ctx context.Context, in Input) (Result, error) {
	metrics.IncOptimizeStarted()

	if strings.TrimSpace(in.ResumeText) == "" {
		metrics.IncOptimizeRejected()
		return Result{}, ErrMissingResume
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		metrics.IncOptimizeRejected()
		return Result{}, ErrMissingJobDescription
	}

	promptText, err := prompt.Build(in.ResumeText, in.JobDescription, in.Mode)
	if err != nil {
		metrics.IncOptimizeRejected()
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidMode, err)
	}

	if s.Quota != nil {
		if _, err := s.Quota.Consume(ctx, in.ClientID); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				metrics.IncOptimizeRejected()
				return Result{}, fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
			}
			metrics.IncOptimizeFailed()
			return Result{}, fmt.Errorf("consume quota: %w", err)
		}
	}

	fields := map[string]any{
		"mode":         string(in.Mode),
		"client_id":    in.ClientID,
		"provider":     s.Provider,
		"model":        s.Model,
		"prompt_hash":  llm.HashPrompt(promptText),
		"prompt_chars": len(promptText),
	}
	telemetry.Info("optimize.generate.start", fields)

	start := time.Now()
	text, err := s.Generator.Complete(ctx, promptText)
	elapsed := metrics.SinceMillis(start)
	metrics.ObserveGenerationDurationMs(elapsed)
	fields["duration_ms"] = elapsed
	if err != nil {
		metrics.IncOptimizeFailed()
		fields["error"] = err.Error()
		telemetry.Error("optimize.generate.failed", fields)
		return Result{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if strings.TrimSpace(text) == "" {
		metrics.IncOptimizeFailed()
		telemetry.Error("optimize.generate.failed", fields)
		return Result{}, fmt.Errorf("%w: %w", ErrGeneration, llm.ErrEmptyResponse)
	}
	fields["output_chars"] = len(text)
	telemetry.Info("optimize.generate.complete", fields)

	doc, err := render.WriteDocument(text)
	if err != nil {
		metrics.IncOptimizeFailed()
		return Result{}, fmt.Errorf("%w: %w", ErrRender, err)
	}

	metrics.IncOptimizeCompleted()
	return Result{
		Mode:     in.Mode,
		Text:     text,
		Document: doc,
		FileName: render.FileName,
		MimeType: render.MimeDOCX,
	}, nil
}

// ExtractResume converts an uploaded document into résumé text. A document
// without text counts as a missing résumé; any parse failure aborts.
func (s *Service) ExtractResume(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if len(data) == 0 {
		return "", ErrMissingResume
	}
	text, err := extract.ExtractTextFromBytes(ctx, data, mimeType, fileName)
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", err
	case errors.Is(err, extract.ErrEmptyDocument):
		return "", fmt.Errorf("%w: %w", ErrMissingResume, err)
	default:
		telemetry.Warn("optimize.extract_failed", map[string]any{
			"file_name": fileName,
			"mime_type": mimeType,
			"bytes":     len(data),
			"error":     err.Error(),
		})
		return "", fmt.Errorf("%w: %w", ErrMalformedResume, err)
	}
}

// FetchJobDescription fetches a posting once. A page without visible text is
// a success with an empty Text.
func (s *Service) FetchJobDescription(ctx context.Context, rawURL string) (jobdesc.Page, error) {
	if s.Fetcher == nil {
		return jobdesc.Page{}, fmt.Errorf("%w: fetcher not configured", ErrFetch)
	}
	page, err := s.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.IncFetch(false)
		telemetry.Warn("jobdesc.fetch_failed", map[string]any{
			"host":  hostOf(rawURL),
			"error": err.Error(),
		})
		return jobdesc.Page{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	metrics.IncFetch(true)
	telemetry.Info("jobdesc.fetched", map[string]any{
		"host":   hostOf(rawURL),
		"status": page.StatusCode,
		"chars":  len(page.Text),
		"empty":  page.Empty(),
	})
	return page, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Host
}

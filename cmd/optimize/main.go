package main

// Optimize a résumé from the command line:
//   go run ./cmd/optimize -resume resume.docx -jd-file job.txt -mode REWRITE -out Optimized_Resume.docx

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-optimizer/internal/bootstrap"
	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/jobdesc"
	"resume-optimizer/internal/optimize"
	"resume-optimizer/internal/prompt"
	"resume-optimizer/internal/render"
	"resume-optimizer/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (docx or pdf)")
	jdText := flag.String("jd", "", "Job description text")
	jdPath := flag.String("jd-file", "", "Path to job description file")
	jobURL := flag.String("url", "", "Job posting URL to fetch")
	modeFlag := flag.String("mode", string(prompt.ModeRewrite), "REWRITE or ATS_CHECK")
	outPath := flag.String("out", render.FileName, "Path to write the generated docx")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini or openai)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.LLMModel = strings.TrimSpace(*model)

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	mode, err := prompt.ParseMode(*modeFlag)
	if err != nil {
		exitErr(err.Error())
	}

	ctx := context.Background()
	gen, err := bootstrap.BuildGenerator(ctx, cfg)
	if err != nil {
		exitErr(fmt.Sprintf("configure generator: %v", err))
	}
	svc := &optimize.Service{
		Generator: gen,
		Fetcher: jobdesc.NewFetcher(jobdesc.Options{
			Timeout:   cfg.FetchTimeout,
			MaxBytes:  cfg.FetchMaxBytes,
			UserAgent: cfg.FetchUserAgent,
		}),
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
	}

	resumeBytes, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	resumeText, err := svc.ExtractResume(ctx, resumeBytes, mimeFromExt(*resumePath), filepath.Base(*resumePath))
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}

	jobDescription, err := loadJobDescription(ctx, svc, *jdText, *jdPath, *jobURL)
	if err != nil {
		exitErr(err.Error())
	}

	res, err := svc.Optimize(ctx, optimize.Input{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		Mode:           mode,
		ClientID:       "cli",
	})
	if err != nil {
		exitErr(fmt.Sprintf("optimize: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, res.Document, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	fmt.Printf("== %s ==\n", mode.Label())
	fmt.Println(res.Text)
	if *outPath != "" {
		fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
	}
}

func loadJobDescription(ctx context.Context, svc *optimize.Service, text, path, url string) (string, error) {
	switch {
	case strings.TrimSpace(text) != "":
		return text, nil
	case strings.TrimSpace(path) != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(raw), nil
	case strings.TrimSpace(url) != "":
		page, err := svc.FetchJobDescription(ctx, url)
		if err != nil {
			return "", err
		}
		if page.Empty() {
			fmt.Fprintln(os.Stderr, "warning: fetched page has no visible text")
		}
		return page.Text, nil
	default:
		return "", nil
	}
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extract.MimePDF
	case ".docx":
		return extract.MimeDOCX
	default:
		return ""
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

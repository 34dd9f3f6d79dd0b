package prompt

import (
	_ "embed"
	"errors"
	"strings"
)

// Mode selects the prompt template.
type Mode string

const (
	ModeRewrite  Mode = "REWRITE"
	ModeATSCheck Mode = "ATS_CHECK"
)

const (
	resumeToken         = "{{RESUME}}"
	jobDescriptionToken = "{{JOB_DESCRIPTION}}"
)

var (
	//go:embed templates/rewrite.txt
	rewriteTemplate string
	//go:embed templates/ats_check.txt
	atsCheckTemplate string
)

var (
	ErrModeRequired = errors.New("mode is required")
	ErrUnknownMode  = errors.New("mode is invalid")
)

// ParseMode normalizes a mode string. The labels shown in the UI are accepted too.
func ParseMode(raw string) (Mode, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return "", ErrModeRequired
	}
	switch strings.ToUpper(normalized) {
	case string(ModeRewrite), "FULL RESUME REWRITE", "FULL_RESUME_REWRITE":
		return ModeRewrite, nil
	case string(ModeATSCheck), "ATS", "ATS OPTIMIZATION CHECK", "ATS_OPTIMIZATION_CHECK":
		return ModeATSCheck, nil
	default:
		return "", ErrUnknownMode
	}
}

// Label returns the human readable mode name.
func (m Mode) Label() string {
	switch m {
	case ModeRewrite:
		return "Full Resume Rewrite"
	case ModeATSCheck:
		return "ATS Optimization Check"
	default:
		return string(m)
	}
}

// Template returns the raw template for a mode.
func Template(mode Mode) (string, bool) {
	switch mode {
	case ModeRewrite:
		return rewriteTemplate, true
	case ModeATSCheck:
		return atsCheckTemplate, true
	default:
		return "", false
	}
}

// Build embeds both texts verbatim into the mode's template. Inputs are not
// trimmed, truncated or escaped.
func Build(resumeText, jobDescription string, mode Mode) (string, error) {
	tmpl, ok := Template(mode)
	if !ok {
		return "", ErrUnknownMode
	}
	// Replacer scans the template once, so tokens inside the inputs stay untouched.
	r := strings.NewReplacer(resumeToken, resumeText, jobDescriptionToken, jobDescription)
	return r.Replace(tmpl), nil
}

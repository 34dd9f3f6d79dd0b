package optimize

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/jobdesc"
	"resume-optimizer/internal/prompt"
	"resume-optimizer/internal/render"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/util"
)

const multipartMemory = 8 << 20

// Handler exposes the optimize endpoints.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches optimize routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/job-descriptions/fetch", h.fetchJobDescription)
	rg.POST("/optimize", h.optimize)
	rg.POST("/optimize/download", h.optimizeDownload)
	rg.POST("/documents/export", h.exportDocument)
}

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Empty bool   `json:"empty"`
}

type downloadInfo struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

type optimizeResponse struct {
	Mode     prompt.Mode  `json:"mode"`
	Text     string       `json:"text"`
	Download downloadInfo `json:"download"`
}

type exportRequest struct {
	Text string `json:"text"`
}

func (h *Handler) fetchJobDescription(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respond.Error(c, http.StatusBadRequest, "missing_input", "url is required", nil)
		return
	}
	page, err := h.Svc.FetchJobDescription(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, fetchResponse{URL: page.URL, Text: page.Text, Empty: page.Empty()})
}

func (h *Handler) optimize(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	respond.OK(c, optimizeResponse{
		Mode: res.Mode,
		Text: res.Text,
		Download: downloadInfo{
			FileName: res.FileName,
			MimeType: res.MimeType,
		},
	})
}

func (h *Handler) optimizeDownload(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	writeDocument(c, res.Document)
}

func (h *Handler) exportDocument(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respond.Error(c, http.StatusBadRequest, "missing_input", "text is required", nil)
		return
	}
	doc, err := render.WriteDocument(req.Text)
	if err != nil {
		writeError(c, errors.Join(ErrRender, err))
		return
	}
	writeDocument(c, doc)
}

// run parses the multipart form and executes the pipeline. The résumé is
// checked before the job URL is fetched so a missing upload makes no calls.
func (h *Handler) run(c *gin.Context) (Result, bool) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "upload is too large", gin.H{"limitBytes": tooLarge.Limit})
			return Result{}, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "expected multipart form data", nil)
		return Result{}, false
	}

	// An omitted mode means the default selection, a full rewrite.
	rawMode := c.PostForm("mode")
	if strings.TrimSpace(rawMode) == "" {
		rawMode = string(prompt.ModeRewrite)
	}
	mode, err := prompt.ParseMode(rawMode)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), gin.H{"field": "mode"})
		return Result{}, false
	}
	c.Set("mode", string(mode))

	ctx := c.Request.Context()
	resumeText, err := h.readResume(c)
	if err != nil {
		writeError(c, err)
		return Result{}, false
	}

	// Pasted text goes into the prompt verbatim; trimming is only the emptiness check.
	jd := c.PostForm("jobDescription")
	if strings.TrimSpace(jd) != "" {
		c.Set("jdSource", "text")
	} else if jobURL := strings.TrimSpace(c.PostForm("jobUrl")); jobURL != "" {
		c.Set("jdSource", "url")
		page, err := h.Svc.FetchJobDescription(ctx, jobURL)
		if err != nil {
			writeError(c, err)
			return Result{}, false
		}
		jd = page.Text
	}

	res, err := h.Svc.Optimize(ctx, Input{
		ResumeText:     resumeText,
		JobDescription: jd,
		Mode:           mode,
		ClientID:       middleware.ClientIDFromContext(c),
	})
	if err != nil {
		writeError(c, err)
		return Result{}, false
	}
	return res, true
}

func (h *Handler) readResume(c *gin.Context) (string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", ErrMissingResume
		}
		return "", errors.Join(ErrMalformedResume, err)
	}
	f, err := header.Open()
	if err != nil {
		return "", errors.Join(ErrMalformedResume, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.Join(ErrMalformedResume, err)
	}
	fileName, err := util.SanitizeFileName(header.Filename)
	if err != nil {
		fileName = "upload"
	}
	return h.Svc.ExtractResume(c.Request.Context(), data, header.Header.Get("Content-Type"), fileName)
}

func writeDocument(c *gin.Context, doc []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+render.FileName+`"`)
	c.Data(http.StatusOK, render.MimeDOCX, doc)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingResume):
		respond.Error(c, http.StatusBadRequest, "missing_input", "Please upload a resume", gin.H{"field": "file"})
	case errors.Is(err, ErrMissingJobDescription):
		respond.Error(c, http.StatusBadRequest, "missing_input", "Please provide a job description", gin.H{"field": "jobDescription"})
	case errors.Is(err, ErrInvalidMode):
		respond.Error(c, http.StatusBadRequest, "validation_error", "mode is invalid", gin.H{"field": "mode"})
	case errors.Is(err, ErrMalformedResume):
		respond.Error(c, http.StatusUnprocessableEntity, "malformed_document", "could not read resume document", nil)
	case errors.Is(err, ErrFetch):
		respond.Error(c, http.StatusUnprocessableEntity, "fetch_failed", "could not read URL", fetchDetails(err))
	case errors.Is(err, ErrQuotaExceeded):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "daily generation limit reached", nil)
	case errors.Is(err, ErrGeneration):
		respond.Error(c, http.StatusBadGateway, "generation_failed", "generation failed, please try again", nil)
	case errors.Is(err, ErrRender):
		respond.Error(c, http.StatusInternalServerError, "render_failed", "could not write document", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}

func fetchDetails(err error) gin.H {
	var fe *jobdesc.FetchError
	if !errors.As(err, &fe) {
		return nil
	}
	details := gin.H{}
	if fe.StatusCode != 0 {
		details["statusCode"] = fe.StatusCode
	}
	switch {
	case errors.Is(fe, jobdesc.ErrInvalidURL):
		details["reason"] = "invalid_url"
	case errors.Is(fe, jobdesc.ErrBadStatus):
		details["reason"] = "bad_status"
	case errors.Is(fe, jobdesc.ErrMalformedPage):
		details["reason"] = "malformed_page"
	default:
		details["reason"] = "unreachable"
	}
	return details
}

package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
	"github.com/jeeprep/jee-prep-api/internal/report"
)

var exportHeaders = []string{"Attempt", "Submitted", "Subjects", "Topics", "Difficulty", "Duration (min)", "Questions", "Answered", "Correct", "Score (%)", "Time spent (s)"}

// ResultHandler serves client-reported results, history, exports and analytics.
type ResultHandler struct {
	resultService ResultService
	userService   UserService
}

func NewResultHandler(resultService ResultService, userService UserService) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		userService:   userService,
	}
}

// SubmitResult grades a test the client timed itself. POST /api/test-results
func (h *ResultHandler) SubmitResult(c *gin.Context) {
	var req dto.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, testID, err := h.resultService.SubmitReported(c.Request.Context(), middleware.UserID(c), req.ToService())
	if err != nil {
		handleError(c, "ResultHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.SubmitResultResponse{TestID: testID, Result: *result})
}

// ListResults GET /api/results?page=&page_size=
func (h *ResultHandler) ListResults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	attempts, err := h.resultService.ListAttempts(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		handleError(c, "ResultHandler", err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// GetResult GET /api/results/:attemptId
func (h *ResultHandler) GetResult(c *gin.Context) {
	attempt, err := h.resultService.GetAttempt(c.Request.Context(), middleware.UserID(c), c.MustGet(ctxAttemptID).(string))
	if err != nil {
		handleError(c, "ResultHandler", err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// ReportPDF GET /api/results/:attemptId/report.pdf
func (h *ResultHandler) ReportPDF(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	attempt, err := h.resultService.GetAttempt(ctx, userID, c.MustGet(ctxAttemptID).(string))
	if err != nil {
		handleError(c, "ResultHandler", err)
		return
	}

	name := c.GetString(middleware.ContextEmail)
	if user, err := h.userService.GetProfile(ctx, userID); err == nil && user.Name != "" {
		name = user.Name
	}

	var buf bytes.Buffer
	if err := report.RenderAttemptPDF(&buf, attempt, name); err != nil {
		handleError(c, "ResultHandler", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"attempt_%s.pdf\"", attempt.AttemptID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// ExportHistory exports every attempt of the caller.
// GET /api/results/export?format=csv|xlsx
func (h *ResultHandler) ExportHistory(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx", "error_type": "invalid_request"})
		return
	}

	attempts, err := h.resultService.ListAllAttempts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, "ResultHandler", err)
		return
	}

	filename := fmt.Sprintf("results_%s", time.Now().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, attempts, filename)
		return
	}
	h.exportCSV(c, attempts, filename)
}

// Analytics GET /api/analytics?days=
func (h *ResultHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	analytics, err := h.resultService.Analytics(c.Request.Context(), middleware.UserID(c), days)
	if err != nil {
		handleError(c, "ResultHandler", err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func exportRow(a entity.TestAttempt) []string {
	return []string{
		sanitizeForExcel(a.AttemptID),
		a.SubmittedAt.UTC().Format(time.RFC3339),
		sanitizeForExcel(strings.Join(a.Subjects, ", ")),
		sanitizeForExcel(strings.Join(a.Topics, ", ")),
		a.Difficulty,
		strconv.Itoa(a.Duration),
		strconv.Itoa(a.TotalQuestions),
		strconv.Itoa(a.AnsweredQuestions),
		strconv.Itoa(a.CorrectAnswers),
		strconv.FormatFloat(a.Score, 'f', 2, 64),
		strconv.Itoa(a.TimeSpent),
	}
}

func (h *ResultHandler) exportCSV(c *gin.Context, attempts []entity.TestAttempt, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel opens the file as UTF-8
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, a := range attempts {
		writer.Write(exportRow(a))
	}
}

func (h *ResultHandler) exportXLSX(c *gin.Context, attempts []entity.TestAttempt, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Results"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ResultHandler] Failed to create stream writer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ResultHandler] Failed to write header row: %v", err)
	}

	for i, a := range attempts {
		row := []interface{}{
			sanitizeForExcel(a.AttemptID),
			a.SubmittedAt.UTC().Format(time.RFC3339),
			sanitizeForExcel(strings.Join(a.Subjects, ", ")),
			sanitizeForExcel(strings.Join(a.Topics, ", ")),
			a.Difficulty,
			a.Duration,
			a.TotalQuestions,
			a.AnsweredQuestions,
			a.CorrectAnswers,
			a.Score,
			a.TimeSpent,
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			log.Printf("[ResultHandler] Failed to write row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ResultHandler] Flush failed: %v", err)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ResultHandler] Failed to write workbook: %v", err)
	}
}

// sanitizeForExcel prefixes values that a spreadsheet would run as a formula.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

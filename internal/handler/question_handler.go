package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
	"github.com/jeeprep/jee-prep-api/internal/service"
)

// QuestionHandler serves the subject catalogue, question lookups and practice
// submissions.
type QuestionHandler struct {
	questionService QuestionService
	resultService   ResultService
}

func NewQuestionHandler(questionService QuestionService, resultService ResultService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		resultService:   resultService,
	}
}

// ListSubjects GET /api/subjects
func (h *QuestionHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.questionService.ListSubjects(c.Request.Context())
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	if subjects == nil {
		subjects = []entity.SubjectSummary{}
	}
	c.JSON(http.StatusOK, subjects)
}

// FetchQuestions returns the questions matching a test configuration, for
// clients that run the test themselves. An empty bank is not an error.
// POST /api/questions
func (h *QuestionHandler) FetchQuestions(c *gin.Context) {
	var cfg entity.TestConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		bindError(c, err)
		return
	}

	questions, err := h.questionService.FetchForConfig(c.Request.Context(), cfg)
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions": dto.NewQuestionListResponse(questions),
		"total":     len(questions),
	})
}

// GetQuestion GET /api/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.MustGet(ctxQuestionID).(uint)

	question, err := h.questionService.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question))
}

// SubmitPractice grades one answer and reveals the solution.
// POST /api/questions/:id/submissions
func (h *QuestionHandler) SubmitPractice(c *gin.Context) {
	questionID := c.MustGet(ctxQuestionID).(uint)

	var req dto.PracticeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.resultService.SubmitPractice(c.Request.Context(), middleware.UserID(c), questionID, service.PracticeSubmission{
		Answer:    req.Answer,
		WorkArea:  req.WorkArea,
		TimeTaken: req.TimeTaken,
	})
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

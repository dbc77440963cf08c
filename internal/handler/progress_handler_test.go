package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/service"
)

func newProgressTestRouter(progress *MockProgressService) *gin.Engine {
	h := NewProgressHandler(progress)
	r := newTestRouter()
	r.POST("/api/test-progress", h.Save)
	r.GET("/api/test-progress", h.Get)
	r.DELETE("/api/test-progress", h.Delete)
	return r
}

func TestProgressHandler_RequiresTestID(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			progress := new(MockProgressService)
			r := newProgressTestRouter(progress)

			w := doJSON(r, method, "/api/test-progress", nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "testId is required", parseJSONResponse(t, w)["error"])
		})
	}
}

func TestProgressHandler_Get(t *testing.T) {
	t.Run("no snapshot encodes as null", func(t *testing.T) {
		progress := new(MockProgressService)
		r := newProgressTestRouter(progress)
		progress.On("Get", mock.Anything, testUserID, "t-1").Return(nil, nil)

		w := doJSON(r, http.MethodGet, "/api/test-progress?testId=t-1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", w.Body.String())
	})

	t.Run("snapshot", func(t *testing.T) {
		progress := new(MockProgressService)
		r := newProgressTestRouter(progress)
		cfg := entity.TestConfig{Subjects: []string{"Physics"}, Topics: []string{"Waves"}, Duration: 20, NumberOfQuestions: 5}
		snap := entity.NewTestProgress(testUserID, "t-1", entity.AnswerMap{"3": "A"}, 700, cfg, time.Now())
		progress.On("Get", mock.Anything, testUserID, "t-1").Return(snap, nil)

		w := doJSON(r, http.MethodGet, "/api/test-progress?testId=t-1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, "t-1", resp["testId"])
		assert.Equal(t, "Waves", resp["selectedTopic"])
		assert.Equal(t, float64(700), resp["timeRemaining"])
		assert.Equal(t, map[string]interface{}{"3": "A"}, resp["answers"])
	})

	t.Run("store failure", func(t *testing.T) {
		progress := new(MockProgressService)
		r := newProgressTestRouter(progress)
		progress.On("Get", mock.Anything, testUserID, "t-1").Return(nil, errors.New("timeout"))

		w := doJSON(r, http.MethodGet, "/api/test-progress?testId=t-1", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestProgressHandler_Save(t *testing.T) {
	// Arrange
	progress := new(MockProgressService)
	r := newProgressTestRouter(progress)
	cfg := entity.TestConfig{Subjects: []string{"Maths"}, Duration: 60, NumberOfQuestions: 20}
	progress.On("Save", mock.Anything, testUserID, service.SaveProgressInput{
		TestID:        "t-2",
		Answers:       entity.AnswerMap{"1": "4"},
		TimeRemaining: 1500,
		Config:        cfg,
	}).Return(entity.NewTestProgress(testUserID, "t-2", entity.AnswerMap{"1": "4"}, 1500, cfg, time.Now()), nil)

	// Act
	w := doJSON(r, http.MethodPost, "/api/test-progress", map[string]interface{}{
		"testId":        "t-2",
		"answers":       map[string]string{"1": "4"},
		"timeRemaining": 1500,
		"config":        cfg,
	})

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	progress.AssertExpectations(t)
}

func TestProgressHandler_Delete(t *testing.T) {
	progress := new(MockProgressService)
	r := newProgressTestRouter(progress)
	progress.On("Delete", mock.Anything, testUserID, "t-3").Return(nil).Once()

	w := doJSON(r, http.MethodDelete, "/api/test-progress?testId=t-3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	progress.AssertExpectations(t)
}

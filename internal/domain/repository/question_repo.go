package repository

import (
	"context"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// QuestionRepository reads the question bank.
type QuestionRepository interface {
	// Fetch returns at most limit questions matching filter, ordered by id.
	// An empty result is not an error.
	Fetch(ctx context.Context, filter entity.QuestionFilter, limit int) ([]entity.Question, error)
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error)
}

// SubjectRepository reads the subject/topic catalogue.
type SubjectRepository interface {
	ListWithCounts(ctx context.Context) ([]entity.SubjectSummary, error)
}

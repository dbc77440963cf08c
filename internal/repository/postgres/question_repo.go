package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// QuestionRepo implements repository.QuestionRepository.
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo creates a question repository.
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Fetch returns up to limit questions whose subject is one of filter.Subjects.
// Topics and difficulty narrow the result only when set.
func (r *QuestionRepo) Fetch(ctx context.Context, filter entity.QuestionFilter, limit int) ([]entity.Question, error) {
	var questions []entity.Question

	query := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Topic").
		Joins("JOIN subjects ON subjects.id = questions.subject_id").
		Where("subjects.name IN ?", filter.Subjects)

	if len(filter.Topics) > 0 {
		query = query.Joins("JOIN topics ON topics.id = questions.topic_id").
			Where("topics.name IN ?", filter.Topics)
	}
	if filter.Difficulty != "" {
		query = query.Where("questions.difficulty = ?", filter.Difficulty)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("questions.id ASC").Find(&questions).Error
	return questions, err
}

// GetByID returns one question with its subject and topic.
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).Preload("Subject").Preload("Topic").First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByIDs returns the questions with the given ids in the order of ids. Unknown ids are skipped.
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}

	var found []entity.Question
	if err := r.db.WithContext(ctx).Preload("Subject").Preload("Topic").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]entity.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	ordered := make([]entity.Question, 0, len(found))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// SubjectRepo implements repository.SubjectRepository.
type SubjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo creates a subject repository.
func NewSubjectRepo(db *gorm.DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

// ListWithCounts returns every subject with its topics and the number of questions filed under it.
func (r *SubjectRepo) ListWithCounts(ctx context.Context) ([]entity.SubjectSummary, error) {
	var subjects []entity.Subject
	err := r.db.WithContext(ctx).
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("topics.name ASC") }).
		Order("name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}

	var counts []struct {
		SubjectID uint
		Count     int64
	}
	err = r.db.WithContext(ctx).Model(&entity.Question{}).
		Select("subject_id, COUNT(*) AS count").
		Group("subject_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	countBySubject := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countBySubject[c.SubjectID] = c.Count
	}

	summaries := make([]entity.SubjectSummary, len(subjects))
	for i, s := range subjects {
		summaries[i] = entity.SubjectSummary{Subject: s, ProblemCount: countBySubject[s.ID]}
	}
	return summaries, nil
}

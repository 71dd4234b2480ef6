package services

import (
	"context"

	"schoolquiz-backend/internal/game"
	"schoolquiz-backend/internal/models"

	"gorm.io/gorm"
)

// QuestionFilter narrows a bank query for the host's setup screen.
type QuestionFilter struct {
	Subject  string
	Grade    int
	Language string
	Limit    int
}

// QuestionService is the read-only gateway to the question bank. It also
// implements game.QuestionSource so a room can resolve the host's question
// selection during setup.
type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

func (s *QuestionService) FetchQuestions(filter QuestionFilter) ([]models.Question, error) {
	q := s.db.Model(&models.Question{})
	if filter.Subject != "" {
		q = q.Where("subject = ?", filter.Subject)
	}
	if filter.Grade > 0 {
		q = q.Where("grade = ?", filter.Grade)
	}
	if filter.Language != "" {
		q = q.Where("language = ?", filter.Language)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var questions []models.Question
	if err := q.Order("id ASC").Limit(limit).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *QuestionService) FetchSubjects() ([]string, error) {
	var subjects []string
	err := s.db.Model(&models.Question{}).
		Distinct("subject").
		Order("subject ASC").
		Pluck("subject", &subjects).Error
	return subjects, err
}

func (s *QuestionService) FetchLanguages() ([]string, error) {
	var languages []string
	err := s.db.Model(&models.Question{}).
		Distinct("language").
		Order("language ASC").
		Pluck("language", &languages).Error
	return languages, err
}

// FetchByIDs satisfies game.QuestionSource. Results keep the order the host
// picked the questions in.
func (s *QuestionService) FetchByIDs(ctx context.Context, ids []uint) ([]game.Question, error) {
	var rows []models.Question
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Question, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]game.Question, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, game.Question{
			ID:       row.ID,
			Text:     row.Text,
			Answer:   row.Answer,
			Subject:  row.Subject,
			Grade:    row.Grade,
			Language: row.Language,
		})
	}
	return out, nil
}

package repository

import (
	"context"

	"github.com/kidsact/admin-console/internal/domain"
)

// FeedbackLabelRepository reads the feedback label catalogue.
type FeedbackLabelRepository interface {
	List(ctx context.Context) ([]domain.FeedbackLabel, error)
}

type feedbackLabelRepository struct {
	db DBTX
}

// NewFeedbackLabelRepository builds the repository.
func NewFeedbackLabelRepository(db DBTX) FeedbackLabelRepository {
	return &feedbackLabelRepository{db: db}
}

func (r *feedbackLabelRepository) List(ctx context.Context) ([]domain.FeedbackLabel, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM feedback_labels ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FeedbackLabel
	for rows.Next() {
		var label domain.FeedbackLabel
		if err := rows.Scan(&label.ID, &label.Name); err != nil {
			return nil, err
		}
		result = append(result, label)
	}
	return result, rows.Err()
}

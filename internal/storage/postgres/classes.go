package postgres

import (
	"context"
	"fmt"

	"github.com/schoolbank/backend/internal/models"
)

func (t *pgTx) GetClass(ctx context.Context, id string) (*models.Class, error) {
	var c models.Class
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, teacher_id, name, created_at
		FROM classes
		WHERE id = $1`, id).Scan(&c.ID, &c.TeacherID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (t *pgTx) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	var ok bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM class_enrollments WHERE student_id = $1 AND class_id = $2
		)`, studentID, classID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("enrollment check: %w", mapError(err))
	}
	return ok, nil
}

func (t *pgTx) TeachesStudent(ctx context.Context, teacherID, studentID string) (bool, error) {
	var ok bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM class_enrollments e
			JOIN classes c ON c.id = e.class_id
			WHERE c.teacher_id = $1 AND e.student_id = $2
		)`, teacherID, studentID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("teacher check: %w", mapError(err))
	}
	return ok, nil
}

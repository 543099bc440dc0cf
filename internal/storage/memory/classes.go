package memory

import (
	"context"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

func (t *tx) enrolled(studentID, classID string) bool {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.enrollments[classID][studentID]
}

func (t *tx) GetClass(ctx context.Context, id string) (*models.Class, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.classes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (t *tx) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	return t.enrolled(studentID, classID), nil
}

func (t *tx) TeachesStudent(ctx context.Context, teacherID, studentID string) (bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for classID, students := range t.s.enrollments {
		if c, ok := t.s.classes[classID]; ok && c.TeacherID == teacherID && students[studentID] {
			return true, nil
		}
	}
	return false, nil
}

package models

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Class is the teaching group bills are assigned to. Classes and enrollments
// are owned by the school-management side; the bank only reads them.
type Class struct {
	ID        string    `json:"id" db:"id"`
	TeacherID string    `json:"teacherId" db:"teacher_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

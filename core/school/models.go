package school

import "time"

type Class struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
}

type Student struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Class     string    `json:"class" bson:"class" db:"class_id"` // empty when not assigned
	Fees      []string  `json:"fees" bson:"fees" db:"-"`
	Exams     []string  `json:"exams" bson:"exams" db:"-"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
}

type Teacher struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Email     string    `json:"email" bson:"email" db:"email"`
	IsActive  bool      `json:"isActive" bson:"isActive" db:"is_active"`
	Salaries  []string  `json:"salaries" bson:"salaries" db:"-"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
}

type Subject struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Class     string    `json:"class" bson:"class" db:"class_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
}

type NewClass struct {
	Name string `json:"name" validate:"required,notblank"`
}

type NewStudent struct {
	Name  string `json:"name" validate:"required,notblank"`
	Class string `json:"class"`
}

type NewTeacher struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive *bool  `json:"isActive"` // defaults to true
}

type NewSubject struct {
	Name  string `json:"name" validate:"required,notblank"`
	Class string `json:"class"`
}

type StudentFilter struct {
	Class string
}

type TeacherFilter struct {
	IsActive *bool
}

type SubjectFilter struct {
	Class string
}

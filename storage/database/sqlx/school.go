package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/school"
)

// back-reference kinds of school_refs
const (
	refFee    = "fee"
	refExam   = "exam"
	refSalary = "salary"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(ctx context.Context, class school.Class) (school.Class, error) {
	q := repo.db.builder().Insert("classes").SetMap(map[string]interface{}{
		"id":         class.ID,
		"name":       class.Name,
		"created_at": class.CreatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	var class school.Class
	q := repo.db.builder().Select("*").From("classes").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &class, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "selecting class")
	}
	class.CreatedAt = utc(class.CreatedAt)
	return class, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	classes := make([]school.Class, 0)
	q := repo.db.builder().Select("*").From("classes").OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &classes, q); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	for i := range classes {
		classes[i].CreatedAt = utc(classes[i].CreatedAt)
	}
	return classes, nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, student school.Student) (school.Student, error) {
	q := repo.db.builder().Insert("students").SetMap(map[string]interface{}{
		"id":         student.ID,
		"name":       student.Name,
		"class_id":   student.Class,
		"created_at": student.CreatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	student.Fees = []string{}
	student.Exams = []string{}
	return student, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	students, err := repo.queryStudents(ctx, sq.Eq{"id": id})
	if err != nil {
		return school.Student{}, err
	}
	if len(students) == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return students[0], nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	where := sq.And{}
	if filter.Class != "" {
		where = append(where, sq.Eq{"class_id": filter.Class})
	}
	return repo.queryStudents(ctx, where)
}

func (repo *schoolRepository) queryStudents(ctx context.Context, where sq.Sqlizer) ([]school.Student, error) {
	students := make([]school.Student, 0)
	q := repo.db.builder().Select("*").From("students").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &students, q); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}

	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	refs, err := repo.refs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range students {
		s := &students[i]
		s.CreatedAt = utc(s.CreatedAt)
		s.Fees = refs.of(s.ID, refFee)
		s.Exams = refs.of(s.ID, refExam)
	}
	return students, nil
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, teacher school.Teacher) (school.Teacher, error) {
	q := repo.db.builder().Insert("teachers").SetMap(map[string]interface{}{
		"id":         teacher.ID,
		"name":       teacher.Name,
		"email":      teacher.Email,
		"is_active":  teacher.IsActive,
		"created_at": teacher.CreatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		return school.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	teacher.Salaries = []string{}
	return teacher, nil
}

func (repo *schoolRepository) GetTeacher(ctx context.Context, id string) (school.Teacher, error) {
	teachers, err := repo.queryTeachers(ctx, sq.Eq{"id": id})
	if err != nil {
		return school.Teacher{}, err
	}
	if len(teachers) == 0 {
		return school.Teacher{}, school.ErrTeacherNotFound
	}
	return teachers[0], nil
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	where := sq.And{}
	if filter.IsActive != nil {
		where = append(where, sq.Eq{"is_active": *filter.IsActive})
	}
	return repo.queryTeachers(ctx, where)
}

func (repo *schoolRepository) queryTeachers(ctx context.Context, where sq.Sqlizer) ([]school.Teacher, error) {
	teachers := make([]school.Teacher, 0)
	q := repo.db.builder().Select("*").From("teachers").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &teachers, q); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}

	ids := make([]string, len(teachers))
	for i, t := range teachers {
		ids[i] = t.ID
	}
	refs, err := repo.refs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range teachers {
		t := &teachers[i]
		t.CreatedAt = utc(t.CreatedAt)
		t.Salaries = refs.of(t.ID, refSalary)
	}
	return teachers, nil
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, subject school.Subject) (school.Subject, error) {
	q := repo.db.builder().Insert("subjects").SetMap(map[string]interface{}{
		"id":         subject.ID,
		"name":       subject.Name,
		"class_id":   subject.Class,
		"created_at": subject.CreatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subject, nil
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string) (school.Subject, error) {
	var subject school.Subject
	q := repo.db.builder().Select("*").From("subjects").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &subject, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return school.Subject{}, school.ErrSubjectNotFound
		}
		return school.Subject{}, errors.Wrap(err, "selecting subject")
	}
	subject.CreatedAt = utc(subject.CreatedAt)
	return subject, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, filter school.SubjectFilter) ([]school.Subject, error) {
	where := sq.And{}
	if filter.Class != "" {
		where = append(where, sq.Eq{"class_id": filter.Class})
	}
	subjects := make([]school.Subject, 0)
	q := repo.db.builder().Select("*").From("subjects").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &subjects, q); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	for i := range subjects {
		subjects[i].CreatedAt = utc(subjects[i].CreatedAt)
	}
	return subjects, nil
}

func (repo *schoolRepository) AddStudentFee(ctx context.Context, studentID, feeID string) error {
	return repo.addRef(ctx, "students", studentID, refFee, feeID, school.ErrStudentNotFound)
}

func (repo *schoolRepository) AddStudentExam(ctx context.Context, studentID, examID string) error {
	return repo.addRef(ctx, "students", studentID, refExam, examID, school.ErrStudentNotFound)
}

func (repo *schoolRepository) AddTeacherSalary(ctx context.Context, teacherID, salaryID string) error {
	return repo.addRef(ctx, "teachers", teacherID, refSalary, salaryID, school.ErrTeacherNotFound)
}

func (repo *schoolRepository) addRef(ctx context.Context, owners, ownerID, kind, refID string, notFound error) error {
	var count int
	q := repo.db.builder().Select("COUNT(*)").From(owners).Where(sq.Eq{"id": ownerID})
	if err := get(ctx, repo.db, &count, q); err != nil {
		return errors.Wrapf(err, "checking %s", owners)
	}
	if count == 0 {
		return notFound
	}

	ins := repo.db.builder().Insert("school_refs").SetMap(map[string]interface{}{
		"owner_id":   ownerID,
		"kind":       kind,
		"ref_id":     refID,
		"created_at": core.Now(),
	}).Suffix("ON CONFLICT DO NOTHING")
	_, err := exec(ctx, repo.db, ins)
	return errors.Wrapf(err, "adding %s reference", kind)
}

type ref struct {
	OwnerID string `db:"owner_id"`
	Kind    string `db:"kind"`
	RefID   string `db:"ref_id"`
}

type refIndex map[string]map[string][]string // owner -> kind -> ids

func (idx refIndex) of(ownerID, kind string) []string {
	if ids := idx[ownerID][kind]; ids != nil {
		return ids
	}
	return []string{}
}

func (repo *schoolRepository) refs(ctx context.Context, ownerIDs []string) (refIndex, error) {
	idx := make(refIndex)
	if len(ownerIDs) == 0 {
		return idx, nil
	}
	var rows []ref
	q := repo.db.builder().
		Select("owner_id", "kind", "ref_id").
		From("school_refs").
		Where(sq.Eq{"owner_id": ownerIDs}).
		OrderBy("created_at ASC", "ref_id ASC")
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting references")
	}
	for _, r := range rows {
		if idx[r.OwnerID] == nil {
			idx[r.OwnerID] = make(map[string][]string)
		}
		idx[r.OwnerID][r.Kind] = append(idx[r.OwnerID][r.Kind], r.RefID)
	}
	return idx, nil
}

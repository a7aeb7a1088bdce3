package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/bursar/core/school"
)

type schoolRepository struct {
	classes  *mongo.Collection
	students *mongo.Collection
	teachers *mongo.Collection
	subjects *mongo.Collection
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{
		classes:  db.collection(classesCollection),
		students: db.collection(studentsCollection),
		teachers: db.collection(teachersCollection),
		subjects: db.collection(subjectsCollection),
	}
}

func (repo *schoolRepository) CreateClass(ctx context.Context, class school.Class) (school.Class, error) {
	if _, err := repo.classes.InsertOne(ctx, class); err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	var class school.Class
	if err := repo.classes.FindOne(ctx, bson.M{"_id": id}).Decode(&class); err != nil {
		if isNotFound(err) {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "finding class")
	}
	return class, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	classes := make([]school.Class, 0)
	if err := findAll(ctx, repo.classes, bson.M{}, &classes); err != nil {
		return nil, errors.Wrap(err, "finding classes")
	}
	return classes, nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, student school.Student) (school.Student, error) {
	// arrays must exist for $addToSet
	student.Fees = []string{}
	student.Exams = []string{}
	if _, err := repo.students.InsertOne(ctx, student); err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return student, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	var student school.Student
	if err := repo.students.FindOne(ctx, bson.M{"_id": id}).Decode(&student); err != nil {
		if isNotFound(err) {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "finding student")
	}
	return student, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	f := bson.M{}
	if filter.Class != "" {
		f["class"] = filter.Class
	}
	students := make([]school.Student, 0)
	if err := findAll(ctx, repo.students, f, &students); err != nil {
		return nil, errors.Wrap(err, "finding students")
	}
	return students, nil
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, teacher school.Teacher) (school.Teacher, error) {
	teacher.Salaries = []string{}
	if _, err := repo.teachers.InsertOne(ctx, teacher); err != nil {
		return school.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return teacher, nil
}

func (repo *schoolRepository) GetTeacher(ctx context.Context, id string) (school.Teacher, error) {
	var teacher school.Teacher
	if err := repo.teachers.FindOne(ctx, bson.M{"_id": id}).Decode(&teacher); err != nil {
		if isNotFound(err) {
			return school.Teacher{}, school.ErrTeacherNotFound
		}
		return school.Teacher{}, errors.Wrap(err, "finding teacher")
	}
	return teacher, nil
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	f := bson.M{}
	if filter.IsActive != nil {
		f["isActive"] = *filter.IsActive
	}
	teachers := make([]school.Teacher, 0)
	if err := findAll(ctx, repo.teachers, f, &teachers); err != nil {
		return nil, errors.Wrap(err, "finding teachers")
	}
	return teachers, nil
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, subject school.Subject) (school.Subject, error) {
	if _, err := repo.subjects.InsertOne(ctx, subject); err != nil {
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subject, nil
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string) (school.Subject, error) {
	var subject school.Subject
	if err := repo.subjects.FindOne(ctx, bson.M{"_id": id}).Decode(&subject); err != nil {
		if isNotFound(err) {
			return school.Subject{}, school.ErrSubjectNotFound
		}
		return school.Subject{}, errors.Wrap(err, "finding subject")
	}
	return subject, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, filter school.SubjectFilter) ([]school.Subject, error) {
	f := bson.M{}
	if filter.Class != "" {
		f["class"] = filter.Class
	}
	subjects := make([]school.Subject, 0)
	if err := findAll(ctx, repo.subjects, f, &subjects); err != nil {
		return nil, errors.Wrap(err, "finding subjects")
	}
	return subjects, nil
}

func (repo *schoolRepository) AddStudentFee(ctx context.Context, studentID, feeID string) error {
	return addRef(ctx, repo.students, studentID, "fees", feeID, school.ErrStudentNotFound)
}

func (repo *schoolRepository) AddStudentExam(ctx context.Context, studentID, examID string) error {
	return addRef(ctx, repo.students, studentID, "exams", examID, school.ErrStudentNotFound)
}

func (repo *schoolRepository) AddTeacherSalary(ctx context.Context, teacherID, salaryID string) error {
	return addRef(ctx, repo.teachers, teacherID, "salaries", salaryID, school.ErrTeacherNotFound)
}

func addRef(ctx context.Context, coll *mongo.Collection, ownerID, field, refID string, notFound error) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": ownerID}, bson.M{"$addToSet": bson.M{field: refID}})
	if err != nil {
		return errors.Wrapf(err, "adding %s reference", field)
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

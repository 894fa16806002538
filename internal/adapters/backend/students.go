package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tuition/internal/domain/student"
)

// GetStudent loads the enrolment form of a child. [GET /student/{id}]
func (s *Session) GetStudent(ctx context.Context, childID int) (student.Student, error) {
	var out studentDTO
	if err := s.do(ctx, call{method: http.MethodGet, path: "/student/" + strconv.Itoa(childID), out: &out}); err != nil {
		return student.Student{}, err
	}
	st := out.toStudent()
	st.ID = childID
	return st, nil
}

// CreateStudent enrols a new student. Returns the backend's confirmation. [POST /student]
func (s *Session) CreateStudent(ctx context.Context, st student.Student) (string, error) {
	var out messageResponse
	err := s.do(ctx, call{method: http.MethodPost, path: "/student", body: newStudentPayload(st), out: &out})
	return out.Message, err
}

// UpdateStudent saves an existing student. [PUT /student/{id}]
func (s *Session) UpdateStudent(ctx context.Context, childID int, st student.Student) (string, error) {
	var out messageResponse
	err := s.do(ctx, call{
		method: http.MethodPut,
		path:   "/student/" + strconv.Itoa(childID),
		body:   newStudentPayload(st),
		out:    &out,
	})
	return out.Message, err
}

// SearchStudents finds existing students by name fragment. [GET /students/search]
func (s *Session) SearchStudents(ctx context.Context, name string) ([]student.Student, error) {
	var out []studentDTO
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/students/search",
		query:  map[string]string{"name": name},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	found := make([]student.Student, len(out))
	for i, d := range out {
		found[i] = d.toStudent()
	}
	return found, nil
}

// EnableStudent re-activates an existing student in a tuition. [PUT /student/status/{sno}]
func (s *Session) EnableStudent(ctx context.Context, sno string, tuitionID int) error {
	return s.do(ctx, call{
		method: http.MethodPut,
		path:   "/student/status/" + url.PathEscape(sno),
		body:   map[string]int{"tuitionId": tuitionID},
	})
}

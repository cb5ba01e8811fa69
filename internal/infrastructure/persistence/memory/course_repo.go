package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository in memory.
type CourseRepository struct {
	mu           sync.RWMutex
	courses      map[string]*course.Course
	enrollments  map[string][]*course.Enrollment // courseID -> enrollments
	assignments  map[string]*course.Assignment
	contents     map[string]*course.StudyContent
	certificates map[certKey]*course.Certificate
}

type certKey struct {
	courseID     string
	studentEmail string
}

// NewCourseRepository creates a new in-memory CourseRepository.
func NewCourseRepository() *CourseRepository {
	return &CourseRepository{
		courses:      make(map[string]*course.Course),
		enrollments:  make(map[string][]*course.Enrollment),
		assignments:  make(map[string]*course.Assignment),
		contents:     make(map[string]*course.StudyContent),
		certificates: make(map[certKey]*course.Certificate),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Courses
// ─────────────────────────────────────────────────────────────────────────────

func (r *CourseRepository) CreateCourse(ctx context.Context, c *course.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.courses[c.ID]; exists {
		return shared.NewDomainError("course", "CreateCourse", shared.ErrAlreadyExists,
			"course already exists: "+c.ID)
	}

	clone := *c
	r.courses[c.ID] = &clone
	return nil
}

func (r *CourseRepository) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, shared.NewDomainError("course", "GetCourse", shared.ErrNotFound, "course not found: "+id)
	}

	clone := *c
	return &clone, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrollments
// ─────────────────────────────────────────────────────────────────────────────

func (r *CourseRepository) CreateEnrollment(ctx context.Context, e *course.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.enrollments[e.CourseID] {
		if existing.StudentEmail == e.StudentEmail {
			return shared.NewDomainError("course", "CreateEnrollment", shared.ErrAlreadyExists,
				"student already enrolled")
		}
	}

	clone := *e
	r.enrollments[e.CourseID] = append(r.enrollments[e.CourseID], &clone)
	return nil
}

func (r *CourseRepository) LatestEnrollment(ctx context.Context, courseID string) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, e := range r.enrollments[courseID] {
		if latest == nil || e.EnrolledAt.After(*latest) {
			t := e.EnrolledAt
			latest = &t
		}
	}
	return latest, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignments
// ─────────────────────────────────────────────────────────────────────────────

func (r *CourseRepository) CreateAssignment(ctx context.Context, a *course.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assignments[a.ID]; exists {
		return shared.NewDomainError("course", "CreateAssignment", shared.ErrAlreadyExists,
			"assignment already exists: "+a.ID)
	}

	clone := *a
	r.assignments[a.ID] = &clone
	return nil
}

func (r *CourseRepository) GetAssignment(ctx context.Context, id string) (*course.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, shared.NewDomainError("course", "GetAssignment", shared.ErrNotFound, "assignment not found")
	}

	clone := *a
	return &clone, nil
}

func (r *CourseRepository) ListAssignmentsByCourse(ctx context.Context, courseID string) ([]*course.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*course.Assignment
	for _, a := range r.assignments {
		if a.CourseID == courseID {
			clone := *a
			out = append(out, &clone)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CourseRepository) UpdateAssignmentDueDate(ctx context.Context, assignmentID string, dueDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[assignmentID]
	if !ok {
		return shared.NewDomainError("course", "UpdateAssignmentDueDate", shared.ErrNotFound,
			"assignment not found: "+assignmentID)
	}

	a.DueDate = dueDate
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Study content
// ─────────────────────────────────────────────────────────────────────────────

func (r *CourseRepository) CreateStudyContent(ctx context.Context, sc *course.StudyContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contents[sc.ID]; exists {
		return shared.NewDomainError("course", "CreateStudyContent", shared.ErrAlreadyExists,
			"study content already exists: "+sc.ID)
	}

	clone := *sc
	r.contents[sc.ID] = &clone
	return nil
}

func (r *CourseRepository) GetStudyContent(ctx context.Context, id string) (*course.StudyContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sc, ok := r.contents[id]
	if !ok {
		return nil, shared.NewDomainError("course", "GetStudyContent", shared.ErrNotFound,
			"study content not found: "+id)
	}

	clone := *sc
	return &clone, nil
}

func (r *CourseRepository) UpdateStudyContent(ctx context.Context, sc *course.StudyContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contents[sc.ID]; !ok {
		return shared.NewDomainError("course", "UpdateStudyContent", shared.ErrNotFound,
			"study content not found: "+sc.ID)
	}

	clone := *sc
	r.contents[sc.ID] = &clone
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Certificates
// ─────────────────────────────────────────────────────────────────────────────

func (r *CourseRepository) CreateCertificate(ctx context.Context, cert *course.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := certKey{cert.CourseID, cert.StudentEmail}
	if _, exists := r.certificates[key]; exists {
		return shared.NewDomainError("course", "CreateCertificate", shared.ErrAlreadyExists,
			"certificate already issued")
	}

	clone := *cert
	r.certificates[key] = &clone
	return nil
}

func (r *CourseRepository) GetCertificate(ctx context.Context, courseID, studentEmail string) (*course.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, ok := r.certificates[certKey{courseID, studentEmail}]
	if !ok {
		return nil, shared.NewDomainError("course", "GetCertificate", shared.ErrNotFound,
			"certificate not found")
	}

	clone := *cert
	return &clone, nil
}

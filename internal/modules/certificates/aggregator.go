package certificates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type DataAggregatorDeps struct {
	Log     *logger.Logger
	Courses CourseReader
	Users   UserReader
	// Signatures is optional.
	Signatures SignatureLoader
	Now        func() time.Time
}

// DataAggregator collects the printable facts of a certificate.
type DataAggregator struct {
	log        *logger.Logger
	courses    CourseReader
	users      UserReader
	signatures SignatureLoader
	now        func() time.Time
}

func NewDataAggregator(deps DataAggregatorDeps) *DataAggregator {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &DataAggregator{
		log:        log.With("service", "CertificateDataAggregator"),
		courses:    deps.Courses,
		users:      deps.Users,
		signatures: deps.Signatures,
		now:        now,
	}
}

// Resolve loads course, instructor and student and refuses to return data
// that would print a fallback placeholder.
func (a *DataAggregator) Resolve(ctx context.Context, courseID, userID uuid.UUID) (CertificateData, error) {
	dbc := dbctx.New(ctx)

	course, err := a.courses.GetByID(dbc, courseID)
	if err != nil {
		return CertificateData{}, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return CertificateData{}, domain.NotFound("certificate.resolve", "course")
	}
	student, err := a.users.GetByID(dbc, userID)
	if err != nil {
		return CertificateData{}, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return CertificateData{}, domain.NotFound("certificate.resolve", "student")
	}
	instructor, err := a.users.GetByID(dbc, course.InstructorID)
	if err != nil {
		return CertificateData{}, fmt.Errorf("load instructor: %w", err)
	}

	data := CertificateData{
		StudentName:    displayName(student, DefaultStudentName),
		CourseTitle:    courseTitle(course.Title),
		InstructorName: displayName(instructor, DefaultInstructorName),
		IssueDate:      a.now().UTC(),
		TemplateID:     strings.TrimSpace(course.CertificateTemplate),
	}

	var placeholders []string
	if data.CourseTitle == DefaultCourseTitle {
		placeholders = append(placeholders, "course_title")
	}
	if data.InstructorName == DefaultInstructorName {
		placeholders = append(placeholders, "instructor_name")
	}
	if data.StudentName == DefaultStudentName {
		placeholders = append(placeholders, "student_name")
	}
	if len(placeholders) > 0 {
		return CertificateData{}, domain.IncompleteProfileData(placeholders)
	}

	if instructor != nil {
		data.InstructorSignatureURL = strings.TrimSpace(instructor.SignatureURL)
	}
	if data.InstructorSignatureURL != "" && a.signatures != nil {
		sig, err := a.signatures.Load(ctx, data.InstructorSignatureURL)
		if err != nil {
			a.log.Warn("Instructor signature unavailable, using typeset line",
				"course_id", courseID,
				"instructor_id", course.InstructorID,
				"error", err,
			)
		} else {
			data.InstructorSignature = sig
		}
	}
	return data, nil
}

package academics

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
)

// gradePoints is the 4.0 scale used by the university registrar.
var gradePoints = map[string]decimal.Decimal{
	"A+": decimal.NewFromFloat(4.00),
	"A":  decimal.NewFromFloat(4.00),
	"A-": decimal.NewFromFloat(3.67),
	"B+": decimal.NewFromFloat(3.33),
	"B":  decimal.NewFromFloat(3.00),
	"B-": decimal.NewFromFloat(2.67),
	"C+": decimal.NewFromFloat(2.33),
	"C":  decimal.NewFromFloat(2.00),
	"C-": decimal.NewFromFloat(1.67),
	"D+": decimal.NewFromFloat(1.33),
	"D":  decimal.NewFromFloat(1.00),
	"F":  decimal.NewFromFloat(0.00),
}

// CourseGrade is a single graded course with its credit weight.
type CourseGrade struct {
	Course  string `json:"course,omitempty"`
	Grade   string `json:"grade" validate:"required"`
	Credits int    `json:"credits" validate:"required,gt=0"`
}

// GPARequest carries the courses of a single term.
type GPARequest struct {
	Courses []CourseGrade `json:"courses" validate:"required,min=1,dive"`
}

// GPAResult is the weighted average over one term, rounded to two decimals.
type GPAResult struct {
	GPA          decimal.Decimal `json:"gpa"`
	TotalCredits int             `json:"total_credits"`
}

// CGPARequest carries every term of a program.
type CGPARequest struct {
	Semesters []GPARequest `json:"semesters" validate:"required,min=1,dive"`
}

// CGPAResult reports the per-term GPAs plus the cumulative average weighted
// across all credits.
type CGPAResult struct {
	CGPA         decimal.Decimal `json:"cgpa"`
	TotalCredits int             `json:"total_credits"`
	Semesters    []GPAResult     `json:"semesters"`
}

// ComputeGPA calculates the credit-weighted grade point average for a term.
func ComputeGPA(req GPARequest) (*GPAResult, error) {
	points, credits, err := accumulate(req.Courses)
	if err != nil {
		return nil, err
	}
	return &GPAResult{
		GPA:          points.Div(decimal.NewFromInt(int64(credits))).Round(2),
		TotalCredits: credits,
	}, nil
}

// ComputeCGPA calculates the cumulative average across terms. The cumulative
// value weights every course by its credits, not terms equally.
func ComputeCGPA(req CGPARequest) (*CGPAResult, error) {
	if len(req.Semesters) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one semester required")
	}

	totalPoints := decimal.Zero
	totalCredits := 0
	results := make([]GPAResult, 0, len(req.Semesters))
	for _, semester := range req.Semesters {
		points, credits, err := accumulate(semester.Courses)
		if err != nil {
			return nil, err
		}
		totalPoints = totalPoints.Add(points)
		totalCredits += credits
		results = append(results, GPAResult{
			GPA:          points.Div(decimal.NewFromInt(int64(credits))).Round(2),
			TotalCredits: credits,
		})
	}

	return &CGPAResult{
		CGPA:         totalPoints.Div(decimal.NewFromInt(int64(totalCredits))).Round(2),
		TotalCredits: totalCredits,
		Semesters:    results,
	}, nil
}

func accumulate(courses []CourseGrade) (decimal.Decimal, int, error) {
	if len(courses) == 0 {
		return decimal.Zero, 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one course required")
	}

	points := decimal.Zero
	credits := 0
	for _, course := range courses {
		if course.Credits <= 0 {
			return decimal.Zero, 0, pkgerrors.New(pkgerrors.CodeValidation, "credits must be positive")
		}
		grade, ok := gradePoints[strings.ToUpper(strings.TrimSpace(course.Grade))]
		if !ok {
			return decimal.Zero, 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown grade "+course.Grade).
				WithDetails(map[string]any{"grade": course.Grade})
		}
		points = points.Add(grade.Mul(decimal.NewFromInt(int64(course.Credits))))
		credits += course.Credits
	}
	return points, credits, nil
}

package controllers

import (
	"net/http"

	"github.com/custconnect/custconnect-backend/api/responses"
	"github.com/custconnect/custconnect-backend/api/validators"
	"github.com/custconnect/custconnect-backend/internal/academics"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

// AcademicsGPA computes the credit-weighted GPA for one term.
func AcademicsGPA(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body academics.GPARequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := academics.ComputeGPA(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AcademicsCGPA computes the cumulative GPA across terms.
func AcademicsCGPA(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body academics.CGPARequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := academics.ComputeCGPA(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

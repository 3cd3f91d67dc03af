package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// EnrollmentResponse is the API representation of an enrollment record.
type EnrollmentResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	WorkshopID string `json:"workshop_id" doc:"Workshop the user enrolled in"`
	UserID     string `json:"user_id" doc:"Enrolled user"`
	Role       string `json:"role" doc:"Role taken in the workshop"`
	Status     string `json:"status" doc:"Pairing state (waiting or confirmed)"`
	PartnerID  string `json:"partner_id,omitempty" doc:"Partner's enrollment ID when paired"`
	CreatedAt  string `json:"created_at" doc:"Enrollment timestamp (ISO 8601)"`
}

func toEnrollmentResponse(e domain.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         e.ID,
		WorkshopID: e.WorkshopID,
		UserID:     e.UserID,
		Role:       string(e.Role),
		Status:     string(e.Status),
		PartnerID:  e.PartnerID,
		CreatedAt:  e.CreatedAt.Format(timestampLayout),
	}
}

func optionalEnrollment(e *domain.Enrollment) *EnrollmentResponse {
	if e == nil {
		return nil
	}
	r := toEnrollmentResponse(*e)
	return &r
}

// --- Enroll ---

type EnrollInput struct {
	WorkshopID string `path:"id" doc:"Workshop ID"`
	Body       struct {
		UserID string `json:"user_id" minLength:"1" doc:"User to enroll"`
	}
}

type EnrollmentOutput struct {
	Body EnrollmentResponse
}

// --- Direct Pair / Add Partner ---

type DirectPairInput struct {
	WorkshopID string `path:"id" doc:"Workshop ID"`
	Body       struct {
		UserID       string `json:"user_id" minLength:"1" doc:"Requesting user"`
		PartnerEmail string `json:"partner_email" format:"email" doc:"Email of the chosen partner"`
	}
}

type AddPartnerInput struct {
	WorkshopID string `path:"id" doc:"Workshop ID"`
	UserID     string `path:"user_id" doc:"Enrolled user asking for a partner"`
	Body       struct {
		PartnerEmail string `json:"partner_email" format:"email" doc:"Email of the chosen partner"`
	}
}

type PairOutput struct {
	Body struct {
		Requester EnrollmentResponse `json:"requester"`
		Partner   EnrollmentResponse `json:"partner"`
	}
}

// --- Sign Out ---

type EnrollmentPathInput struct {
	WorkshopID string `path:"id" doc:"Workshop ID"`
	UserID     string `path:"user_id" doc:"User ID"`
}

type SignOutOutput struct {
	Body struct {
		Removed    EnrollmentResponse  `json:"removed" doc:"The withdrawn enrollment"`
		Orphan     *EnrollmentResponse `json:"orphan,omitempty" doc:"Former partner's enrollment after the cascade"`
		NewPartner *EnrollmentResponse `json:"new_partner,omitempty" doc:"Enrollment the former partner was rematched with"`
	}
}

// --- Status ---

type EnrollmentStatusOutput struct {
	Body struct {
		SignedUp   bool                `json:"signed_up"`
		HasPartner bool                `json:"has_partner"`
		Enrollment *EnrollmentResponse `json:"enrollment,omitempty"`
	}
}

// --- Roster ---

type RosterEntryResponse struct {
	Enrollment  EnrollmentResponse `json:"enrollment"`
	Name        string             `json:"name" doc:"Attendee's full name"`
	Email       string             `json:"email" doc:"Attendee's email"`
	PartnerName string             `json:"partner_name,omitempty" doc:"Partner's full name when paired"`
}

type RosterOutput struct {
	Body []RosterEntryResponse
}

// --- Audit ---

type ViolationResponse struct {
	EnrollmentID string `json:"enrollment_id"`
	Rule         string `json:"rule"`
	Detail       string `json:"detail"`
}

type AuditOutput struct {
	Body struct {
		Consistent bool                `json:"consistent"`
		Violations []ViolationResponse `json:"violations"`
	}
}

func toPairOutput(requester, partner domain.Enrollment) *PairOutput {
	out := &PairOutput{}
	out.Body.Requester = toEnrollmentResponse(requester)
	out.Body.Partner = toEnrollmentResponse(partner)
	return out
}

func registerEnrollments(api huma.API, svc *app.PairingService) {
	huma.Register(api, huma.Operation{
		OperationID: "enroll",
		Method:      http.MethodPost,
		Path:        basePath + "/workshops/{id}/enrollments",
		Summary:     "Enroll a user and pair them with the first waiting dancer of the other role",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *EnrollInput) (*EnrollmentOutput, error) {
		e, err := svc.Enroll(ctx, input.Body.UserID, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &EnrollmentOutput{Body: toEnrollmentResponse(e)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "direct-pair",
		Method:      http.MethodPost,
		Path:        basePath + "/workshops/{id}/pairs",
		Summary:     "Enroll a user together with a chosen partner",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *DirectPairInput) (*PairOutput, error) {
		requester, partner, err := svc.DirectPair(ctx, input.Body.UserID, input.Body.PartnerEmail, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return toPairOutput(requester, partner), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-partner",
		Method:      http.MethodPost,
		Path:        basePath + "/workshops/{id}/enrollments/{user_id}/partner",
		Summary:     "Pair a waiting enrollee with a chosen partner",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *AddPartnerInput) (*PairOutput, error) {
		requester, partner, err := svc.AddPartner(ctx, input.UserID, input.Body.PartnerEmail, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return toPairOutput(requester, partner), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sign-out",
		Method:      http.MethodDelete,
		Path:        basePath + "/workshops/{id}/enrollments/{user_id}",
		Summary:     "Withdraw a user from a workshop",
		Description: "A partner left behind returns to the waitlist and is rematched when a dancer of the other role is waiting.",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *EnrollmentPathInput) (*SignOutOutput, error) {
		result, err := svc.SignOut(ctx, input.UserID, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &SignOutOutput{}
		out.Body.Removed = toEnrollmentResponse(result.Removed)
		out.Body.Orphan = optionalEnrollment(result.Orphan)
		out.Body.NewPartner = optionalEnrollment(result.NewPartner)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-enrollment-status",
		Method:      http.MethodGet,
		Path:        basePath + "/workshops/{id}/enrollments/{user_id}",
		Summary:     "Check whether a user is signed up and paired",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *EnrollmentPathInput) (*EnrollmentStatusOutput, error) {
		out := &EnrollmentStatusOutput{}

		signedUp, err := svc.IsSignedUp(ctx, input.UserID, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}
		if !signedUp {
			return out, nil
		}

		paired, err := svc.HasPartner(ctx, input.UserID, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}
		e, err := svc.Enrollment(ctx, input.UserID, input.WorkshopID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out.Body.SignedUp = true
		out.Body.HasPartner = paired
		out.Body.Enrollment = optionalEnrollment(&e)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-roster",
		Method:      http.MethodGet,
		Path:        basePath + "/workshops/{id}/enrollments",
		Summary:     "List a workshop's attendees in waitlist order",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *WorkshopPathInput) (*RosterOutput, error) {
		entries, err := svc.Roster(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RosterEntryResponse, len(entries))
		for i, entry := range entries {
			resp[i] = RosterEntryResponse{
				Enrollment:  toEnrollmentResponse(entry.Enrollment),
				Name:        entry.User.FullName(),
				Email:       entry.User.Email,
				PartnerName: entry.PartnerName,
			}
		}
		return &RosterOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "audit-workshop",
		Method:      http.MethodGet,
		Path:        basePath + "/workshops/{id}/audit",
		Summary:     "Check a workshop's enrollments against the pairing invariants",
		Tags:        []string{"Enrollments"},
	}, func(ctx context.Context, input *WorkshopPathInput) (*AuditOutput, error) {
		violations, err := svc.Audit(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &AuditOutput{}
		out.Body.Consistent = len(violations) == 0
		out.Body.Violations = make([]ViolationResponse, len(violations))
		for i, v := range violations {
			out.Body.Violations[i] = ViolationResponse{EnrollmentID: v.EnrollmentID, Rule: v.Rule, Detail: v.Detail}
		}
		return out, nil
	})
}

package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// UserResponse is the API representation of a dancer profile.
type UserResponse struct {
	ID      string `json:"id" doc:"Unique identifier"`
	Name    string `json:"name" doc:"First name"`
	Surname string `json:"surname" doc:"Last name"`
	Email   string `json:"email" doc:"Contact email, unique per user"`
	Phone   string `json:"phone,omitempty" doc:"Contact phone"`
	Role    string `json:"role" doc:"Declared dance role"`
}

func toUserResponse(u domain.UserProfile) UserResponse {
	return UserResponse{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
		Phone:   u.Phone,
		Role:    string(u.Role),
	}
}

// --- Put User ---

type PutUserInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body struct {
		Name    string `json:"name" minLength:"1" maxLength:"100" doc:"First name"`
		Surname string `json:"surname,omitempty" maxLength:"100" doc:"Last name"`
		Email   string `json:"email" format:"email" doc:"Contact email"`
		Phone   string `json:"phone,omitempty" maxLength:"30" doc:"Contact phone"`
		Role    string `json:"role" enum:"leader,follower,lider" doc:"Dance role"`
	}
}

type UserOutput struct {
	Body UserResponse
}

// --- Get User ---

type GetUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

// --- User Enrollments ---

type ListUserEnrollmentsOutput struct {
	Body []EnrollmentResponse
}

func registerUsers(api huma.API, users UserRegistry, pairing *app.PairingService) {
	huma.Register(api, huma.Operation{
		OperationID: "put-user",
		Method:      http.MethodPut,
		Path:        basePath + "/users/{id}",
		Summary:     "Register or replace a dancer profile",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *PutUserInput) (*UserOutput, error) {
		role, err := domain.ParseRole(input.Body.Role)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		u := domain.UserProfile{
			ID:      input.ID,
			Name:    input.Body.Name,
			Surname: input.Body.Surname,
			Email:   input.Body.Email,
			Phone:   input.Body.Phone,
			Role:    role,
		}
		if err := users.Save(ctx, u); err != nil {
			return nil, toHumaError(err)
		}

		saved, err := users.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UserOutput{Body: toUserResponse(saved)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        basePath + "/users/{id}",
		Summary:     "Get a dancer profile",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *GetUserInput) (*UserOutput, error) {
		u, err := users.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UserOutput{Body: toUserResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-user-enrollments",
		Method:      http.MethodGet,
		Path:        basePath + "/users/{id}/enrollments",
		Summary:     "List a user's enrollments",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *GetUserInput) (*ListUserEnrollmentsOutput, error) {
		records, err := pairing.UserEnrollments(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]EnrollmentResponse, len(records))
		for i, e := range records {
			resp[i] = toEnrollmentResponse(e)
		}
		return &ListUserEnrollmentsOutput{Body: resp}, nil
	})
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// WorkshopResponse is the API representation of a workshop.
type WorkshopResponse struct {
	ID          string   `json:"id" doc:"Unique identifier"`
	Name        string   `json:"name" doc:"Display name"`
	Modality    string   `json:"modality" doc:"Dance style"`
	Instructors []string `json:"instructors" doc:"Instructor names"`
	Date        string   `json:"date" doc:"Calendar day (YYYY-MM-DD)"`
	StartTime   string   `json:"start_time" doc:"Start time (HH:MM)"`
	Location    string   `json:"location" doc:"Venue"`
	CreatedAt   string   `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt   string   `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toWorkshopResponse(w domain.Workshop) WorkshopResponse {
	instructors := w.Instructors
	if instructors == nil {
		instructors = []string{}
	}
	return WorkshopResponse{
		ID:          w.ID,
		Name:        w.Name,
		Modality:    w.Modality,
		Instructors: instructors,
		Date:        w.Date.Format(domain.DateLayout),
		StartTime:   w.StartTime,
		Location:    w.Location,
		CreatedAt:   w.CreatedAt.Format(timestampLayout),
		UpdatedAt:   w.UpdatedAt.Format(timestampLayout),
	}
}

// ChangeResponse describes one updated workshop field.
type ChangeResponse struct {
	Field string `json:"field" doc:"Changed attribute"`
	Value string `json:"value" doc:"New value"`
}

// --- Create Workshop ---

type CreateWorkshopInput struct {
	Body struct {
		Name        string   `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Modality    string   `json:"modality,omitempty" maxLength:"100" doc:"Dance style"`
		Instructors []string `json:"instructors,omitempty" doc:"Instructor names"`
		Date        string   `json:"date" format:"date" doc:"Calendar day (YYYY-MM-DD)"`
		StartTime   string   `json:"start_time" pattern:"^([01][0-9]|2[0-3]):[0-5][0-9]$" doc:"Start time (HH:MM)"`
		Location    string   `json:"location,omitempty" maxLength:"255" doc:"Venue"`
	}
}

type WorkshopOutput struct {
	Body WorkshopResponse
}

// --- Get / Delete Workshop ---

type WorkshopPathInput struct {
	ID string `path:"id" doc:"Workshop ID"`
}

// --- List Workshops ---

type ListWorkshopsInput struct {
	Limit  int `query:"limit" required:"false" default:"50" minimum:"1" maximum:"500" doc:"Max results"`
	Offset int `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListWorkshopsOutput struct {
	Body []WorkshopResponse
}

// --- Update Workshop ---

type UpdateWorkshopInput struct {
	ID   string `path:"id" doc:"Workshop ID"`
	Body struct {
		Name        *string  `json:"name,omitempty" maxLength:"255" doc:"Display name"`
		Modality    *string  `json:"modality,omitempty" maxLength:"100" doc:"Dance style"`
		Instructors []string `json:"instructors,omitempty" doc:"Instructor names"`
		Date        *string  `json:"date,omitempty" format:"date" doc:"Calendar day (YYYY-MM-DD)"`
		StartTime   *string  `json:"start_time,omitempty" pattern:"^([01][0-9]|2[0-3]):[0-5][0-9]$" doc:"Start time (HH:MM)"`
		Location    *string  `json:"location,omitempty" maxLength:"255" doc:"Venue"`
	}
}

type UpdateWorkshopOutput struct {
	Body struct {
		Workshop WorkshopResponse `json:"workshop"`
		Changes  []ChangeResponse `json:"changes" doc:"Fields that actually changed; attendees are notified of these"`
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, huma.Error422UnprocessableEntity("date must be YYYY-MM-DD")
	}
	return d, nil
}

func registerWorkshops(api huma.API, svc *app.WorkshopService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-workshop",
		Method:      http.MethodPost,
		Path:        basePath + "/workshops",
		Summary:     "Schedule a new workshop",
		Tags:        []string{"Workshops"},
	}, func(ctx context.Context, input *CreateWorkshopInput) (*WorkshopOutput, error) {
		date, err := parseDate(input.Body.Date)
		if err != nil {
			return nil, err
		}

		w, err := svc.Create(ctx, domain.WorkshopInput{
			Name:        input.Body.Name,
			Modality:    input.Body.Modality,
			Instructors: input.Body.Instructors,
			Date:        date,
			StartTime:   input.Body.StartTime,
			Location:    input.Body.Location,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &WorkshopOutput{Body: toWorkshopResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workshop",
		Method:      http.MethodGet,
		Path:        basePath + "/workshops/{id}",
		Summary:     "Get a workshop by ID",
		Tags:        []string{"Workshops"},
	}, func(ctx context.Context, input *WorkshopPathInput) (*WorkshopOutput, error) {
		w, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &WorkshopOutput{Body: toWorkshopResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workshops",
		Method:      http.MethodGet,
		Path:        basePath + "/workshops",
		Summary:     "List workshops by date",
		Tags:        []string{"Workshops"},
	}, func(ctx context.Context, input *ListWorkshopsInput) (*ListWorkshopsOutput, error) {
		workshops, err := svc.List(ctx, domain.WorkshopFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]WorkshopResponse, len(workshops))
		for i, w := range workshops {
			resp[i] = toWorkshopResponse(w)
		}
		return &ListWorkshopsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-workshop",
		Method:      http.MethodPatch,
		Path:        basePath + "/workshops/{id}",
		Summary:     "Update a workshop and notify its attendees",
		Tags:        []string{"Workshops"},
	}, func(ctx context.Context, input *UpdateWorkshopInput) (*UpdateWorkshopOutput, error) {
		patch := domain.WorkshopPatch{
			Name:        input.Body.Name,
			Modality:    input.Body.Modality,
			Instructors: input.Body.Instructors,
			StartTime:   input.Body.StartTime,
			Location:    input.Body.Location,
		}
		if input.Body.Date != nil {
			d, err := parseDate(*input.Body.Date)
			if err != nil {
				return nil, err
			}
			patch.Date = &d
		}

		w, changes, err := svc.Update(ctx, input.ID, patch)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &UpdateWorkshopOutput{}
		out.Body.Workshop = toWorkshopResponse(w)
		out.Body.Changes = make([]ChangeResponse, len(changes))
		for i, c := range changes {
			out.Body.Changes[i] = ChangeResponse{Field: string(c.Field), Value: c.Value}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-workshop",
		Method:        http.MethodDelete,
		Path:          basePath + "/workshops/{id}",
		Summary:       "Cancel a workshop",
		Description:   "Removes the workshop with its enrollments. Attendees of an upcoming workshop are told it was cancelled.",
		Tags:          []string{"Workshops"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *WorkshopPathInput) (*struct{}, error) {
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

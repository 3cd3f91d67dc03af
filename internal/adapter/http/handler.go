package http

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/domain"
)

const (
	basePath        = "/api/v1"
	timestampLayout = "2006-01-02T15:04:05Z"
)

// UserRegistry is the directory the API registers dancer profiles in.
type UserRegistry interface {
	domain.UserDirectory
	Save(ctx context.Context, u domain.UserProfile) error
}

// Services bundles what the API routes call into.
type Services struct {
	Pairing   *app.PairingService
	Workshops *app.WorkshopService
	Users     UserRegistry
}

// Register adds all dancepair API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerUsers(api, svc.Users, svc.Pairing)
	registerWorkshops(api, svc.Workshops)
	registerEnrollments(api, svc.Pairing)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrWorkshopNotFound),
		errors.Is(err, domain.ErrEnrollmentNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrAlreadyPaired):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var enrolledErr *domain.AlreadyEnrolledError
	if errors.As(err, &enrolledErr) {
		return huma.Error409Conflict(enrolledErr.Error())
	}

	var emailErr *domain.EmailConflictError
	if errors.As(err, &emailErr) {
		return huma.Error409Conflict(emailErr.Error())
	}

	var roleErr *domain.RoleMismatchError
	if errors.As(err, &roleErr) {
		return huma.Error422UnprocessableEntity(roleErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}

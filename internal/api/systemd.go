package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/padnode/internal/api/models"
	"github.com/smazurov/padnode/internal/systemd"
)

func unitError(msg string, err error) error {
	if errors.Is(err, systemd.ErrUnitNotAllowed) {
		return huma.Error404NotFound("Unit is not in the layout's unit list", err)
	}
	return huma.Error500InternalServerError(msg, err)
}

func (s *Server) registerSystemdRoutes() {
	units := s.options.Units
	if units == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-units",
		Method:      http.MethodGet,
		Path:        "/api/systemd/units",
		Summary:     "List Units",
		Description: "List the systemd units bound to pads and their state",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdUnitListResponse, error) {
		names := units.Units()
		list := make([]models.SystemdServiceStatus, 0, len(names))
		for _, name := range names {
			status, err := units.UnitStatus(ctx, name)
			if err != nil {
				s.logger.Warn("Failed to get unit status", "unit", name, "error", err)
				status = "unknown"
			}
			list = append(list, models.SystemdServiceStatus{Service: name, Status: status})
		}
		return &models.SystemdUnitListResponse{Body: models.SystemdUnitList{Units: list}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-unit-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/{unit}/status",
		Summary:     "Unit Status",
		Description: "Get the ActiveState of a systemd unit",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *models.SystemdUnitInput) (*models.SystemdServiceStatusResponse, error) {
		status, err := units.UnitStatus(ctx, input.Unit)
		if err != nil {
			return nil, unitError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{
				Service: input.Unit,
				Status:  status,
			},
		}, nil
	})

	for _, action := range []string{"start", "stop", "restart"} {
		huma.Register(s.api, huma.Operation{
			OperationID: action + "-unit",
			Method:      http.MethodPost,
			Path:        "/api/systemd/{unit}/" + action,
			Summary:     "Unit " + action,
			Description: "Run " + action + " on a systemd unit and wait for the job",
			Tags:        []string{"systemd"},
			Security:    withAuth(),
			Errors:      []int{401, 404, 500},
		}, func(ctx context.Context, input *models.SystemdUnitInput) (*models.SystemdServiceActionResponse, error) {
			if err := units.Do(ctx, input.Unit, action); err != nil {
				return nil, unitError("Failed to "+action+" service", err)
			}
			return &models.SystemdServiceActionResponse{
				Body: models.SystemdServiceAction{
					Service: input.Unit,
					Action:  action,
					Success: true,
				},
			}, nil
		})
	}
}

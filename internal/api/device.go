package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/padnode/internal/api/models"
	"github.com/smazurov/padnode/internal/events"
)

const (
	defaultTextSpeed = 15
	defaultTextColor = 3
)

var queued = &models.AcceptedResponse{Body: models.AcceptedData{Status: "queued"}}

// registerDeviceRoutes registers requests that the render loop applies to
// the Launchpad. They are queued on the bus and answered immediately.
func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "scroll-text",
		Method:        http.MethodPost,
		Path:          "/api/text",
		Summary:       "Scroll Text",
		Description:   "Scroll text across the pads",
		Tags:          []string{"device"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401, 422},
	}, func(_ context.Context, input *models.TextRequest) (*models.AcceptedResponse, error) {
		for _, r := range input.Body.Text {
			if r > 0x7f {
				return nil, huma.Error422UnprocessableEntity("text must be ASCII")
			}
		}
		speed := input.Body.Speed
		if speed == 0 {
			speed = defaultTextSpeed
		}
		color := uint8(defaultTextColor)
		if input.Body.Color != nil {
			color = *input.Body.Color
		}
		s.eventBus.Publish(events.TextRequestedEvent{
			Text:  input.Body.Text,
			Loop:  input.Body.Loop,
			Speed: speed,
			Color: color,
		})
		return queued, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "set-brightness",
		Method:        http.MethodPost,
		Path:          "/api/brightness",
		Summary:       "Set Brightness",
		Description:   "Set the LED brightness of the device",
		Tags:          []string{"device"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401, 422},
	}, func(_ context.Context, input *models.BrightnessRequest) (*models.AcceptedResponse, error) {
		s.eventBus.Publish(events.BrightnessRequestedEvent{Level: input.Body.Level})
		return queued, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "redraw",
		Method:        http.MethodPost,
		Path:          "/api/redraw",
		Summary:       "Redraw",
		Description:   "Re-render the UI and push the frame",
		Tags:          []string{"device"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.AcceptedResponse, error) {
		s.eventBus.Publish(events.RedrawEvent{Reason: "api"})
		return queued, nil
	})
}

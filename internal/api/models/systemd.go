package models

// SystemdUnitInput selects a unit from the layout's allow-list.
type SystemdUnitInput struct {
	Unit string `path:"unit" example:"picom.service" doc:"systemd unit name"`
}

// SystemdServiceStatus contains the status information for a systemd service.
type SystemdServiceStatus struct {
	Service string `json:"service" example:"picom.service" doc:"Service name"`
	Status  string `json:"status" example:"active" doc:"Service status (active, inactive, failed, etc.)"`
}

// SystemdServiceStatusResponse wraps SystemdServiceStatus for API responses.
type SystemdServiceStatusResponse struct {
	Body SystemdServiceStatus
}

// SystemdServiceAction contains the result of a systemd service action.
type SystemdServiceAction struct {
	Service string `json:"service" example:"picom.service" doc:"Service name"`
	Action  string `json:"action" example:"restart" doc:"Action performed (start, stop, restart)"`
	Success bool   `json:"success" example:"true" doc:"Whether the action succeeded"`
}

// SystemdServiceActionResponse wraps SystemdServiceAction for API responses.
type SystemdServiceActionResponse struct {
	Body SystemdServiceAction
}

// SystemdUnitList lists the units the API may control.
type SystemdUnitList struct {
	Units []SystemdServiceStatus `json:"units" doc:"Controllable units and their state"`
}

// SystemdUnitListResponse wraps SystemdUnitList for API responses.
type SystemdUnitListResponse struct {
	Body SystemdUnitList
}

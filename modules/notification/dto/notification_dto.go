package dto

type CreateNotificationRequest struct {
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Type    string                 `json:"type"`
	Data    map[string]interface{} `json:"data"`
}

type MarkAsReadRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// ExportResponse points the operator at the uploaded export object.
type ExportResponse struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

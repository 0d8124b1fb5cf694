package dto

type ImportResponse struct {
	Imported bool             `json:"imported"`
	Count    int              `json:"count"`
	Owners   []string         `json:"owners,omitempty"`
	Journal  *JournalResponse `json:"journal,omitempty"`
}

type ChooseOwnerRequest struct {
	PlayerId string `json:"playerId" validate:"required"`
}

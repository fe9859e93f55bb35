package models

// Share is a plant offered by a user.
type Share struct {
	ID             int64   `json:"id"               bson:"_id"`
	PlantName      string  `json:"plant_name"       bson:"plant_name"`
	SharedBy       string  `json:"shared_by"        bson:"shared_by"`
	Amount         float64 `json:"amount"           bson:"amount"`
	Description    string  `json:"description"      bson:"description"`
	IsAvailableNow bool    `json:"is_available_now" bson:"is_available_now"`
	Date           string  `json:"date"             bson:"date"`
	PhotoKey       string  `json:"photo_key,omitempty" bson:"photo_key,omitempty"`
}

// Request is a plant wanted by a user.
type Request struct {
	ID          int64   `json:"id"           bson:"_id"`
	PlantName   string  `json:"plant_name"   bson:"plant_name"`
	RequestedBy string  `json:"requested_by" bson:"requested_by"`
	Amount      float64 `json:"amount"       bson:"amount"`
	Notes       string  `json:"notes"        bson:"notes"`
	Date        string  `json:"date"         bson:"date"`
}

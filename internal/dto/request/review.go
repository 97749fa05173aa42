package request

type CreateReviewRequest struct {
	ListingID string   `json:"listing_id" validate:"required,uuid4"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Comment   string   `json:"comment" validate:"required,min=10,max=1000"`
	Images    []string `json:"images,omitempty" validate:"omitempty,max=5,dive,url"`
}

type ModerateReviewRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

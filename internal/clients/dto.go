package clients

type CreateClientRequest struct {
	FullName   string  `json:"full_name" validate:"required,max=200"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	NationalID *string `json:"national_id,omitempty" validate:"omitempty,max=30"`
	Address    *string `json:"address,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address  *string `json:"address,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}

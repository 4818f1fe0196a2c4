package models

type Estate struct {
	ID             int64  `json:"id"`
	EstateTypeID   int64  `json:"estate_type_id"`
	EstateTypeName string `json:"estate_type_name"`
	EstateTypeIcon string `json:"estate_type_icon"`
	Name           string `json:"name"`
	UserID         int64  `json:"user_id,omitempty"`
	Description    string `json:"description,omitempty"`
	Recoupment     int    `json:"recoupment,omitempty"`
	Active         int    `json:"active,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type EstateRequest struct {
	EstateTypeID int64  `json:"estate_type_id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required,max=255"`
	Description  string `json:"description,omitempty" validate:"max=1000"`
}

type EstateType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// EstateTypeOption is the select-box form of an EstateType.
type EstateTypeOption struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	Icon  string `json:"icon"`
}

package templates

type CreateTemplateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Code        string `json:"code" binding:"required"`
	IsPublic    bool   `json:"isPublic"`
}

// UpdateTemplateRequest is a partial update; omitted fields are unchanged.
type UpdateTemplateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Code        *string `json:"code"`
	IsPublic    *bool   `json:"isPublic"`
}

type ListTemplatesQuery struct {
	Filter string `form:"filter" binding:"omitempty,oneof=mine public all"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

package handlers

import (
	"net/http"

	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/pkg/httpx"
	pkgvalidator "github.com/ghuser/supplytrack/pkg/validator"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// CreateItemRequest is the request body for POST /items.
type CreateItemRequest struct {
	Name        string   `json:"name"        validate:"required,notblank,max=255" example:"Widget"`
	Description *string  `json:"description" validate:"omitempty,max=2000"        example:"Blue plastic crate"`
	Color       *string  `json:"color"       validate:"omitempty,max=64"          example:"blue"`
	Price       *float64 `json:"price"       validate:"omitempty"                 example:"9.99"`
} // @name CreateItemRequest

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services, errs *errhttp.Writer) *PostItemHandler {
	return &PostItemHandler{svc: svc, errs: errs}
}

// Execute creates a new item.
//
//	@Summary		Create item
//	@Description	Creates a new item with an empty event history
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	models.Item
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ValidationErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.Create(r.Context(), models.ItemDraft{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Price:       req.Price,
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, item)
}

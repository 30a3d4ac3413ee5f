package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/pkg/httpx"
	pkgvalidator "github.com/ghuser/supplytrack/pkg/validator"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// UpdateItemRequest is the request body for PUT /items/{id}. Omitted fields
// keep their stored values. An explicit null clears description, color or
// price; a null name is ignored.
type UpdateItemRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,notblank,max=255" example:"Widget v2"`
	Description *string  `json:"description" validate:"omitempty,max=2000"         example:"Blue plastic crate"`
	Color       *string  `json:"color"       validate:"omitempty,max=64"           example:"green"`
	Price       *float64 `json:"price"       validate:"omitempty"                  example:"12.5"`

	cleared models.OptionalField
} // @name UpdateItemRequest

var clearableFields = map[string]models.OptionalField{
	"description": models.FieldDescription,
	"color":       models.FieldColor,
	"price":       models.FieldPrice,
}

// UnmarshalJSON decodes the body and remembers which clearable fields were
// sent as null, which a nil pointer alone cannot tell apart from absent.
func (r *UpdateItemRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateItemRequest
	var req plain
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = UpdateItemRequest(req)
	for key, field := range clearableFields {
		if v, ok := raw[key]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			r.cleared |= field
		}
	}
	return nil
}

// PutItemHandler handles PUT /items/{id} requests.
type PutItemHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewPutItemHandler returns a PutItemHandler backed by the given services.
func NewPutItemHandler(svc *appsvcs.Services, errs *errhttp.Writer) *PutItemHandler {
	return &PutItemHandler{svc: svc, errs: errs}
}

// Execute merges the supplied fields into an existing item.
//
//	@Summary		Update item
//	@Description	Partial update: only the fields present in the body change. Sending null for description, color or price removes that field; null for name is ignored.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item ID"
//	@Param			request	body		UpdateItemRequest	true	"Fields to change"
//	@Success		200		{object}	models.Item
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ValidationErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items/{id} [put]
func (h *PutItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[UpdateItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.Update(r.Context(), chi.URLParam(r, "id"), models.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Price:       req.Price,
		Clear:       req.cleared,
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, item)
}

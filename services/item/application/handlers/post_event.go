package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/pkg/httpx"
	pkgvalidator "github.com/ghuser/supplytrack/pkg/validator"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// CreateEventRequest is the request body for POST /items/{id}/events.
type CreateEventRequest struct {
	Type      string `json:"type"      validate:"required,oneof=LOCATION_UPDATE CUSTODIAN_CHANGE STATUS_UPDATE" example:"LOCATION_UPDATE"`
	Location  string `json:"location"  validate:"max=255"  example:"Warehouse 7, Rotterdam"`
	Custodian string `json:"custodian" validate:"max=255"  example:"Acme Logistics"`
	Status    string `json:"status"    validate:"max=255"  example:"IN_TRANSIT"`
	Notes     string `json:"notes"     validate:"max=2000" example:"Seal intact"`
} // @name CreateEventRequest

// PostEventHandler handles POST /items/{id}/events requests.
type PostEventHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewPostEventHandler returns a PostEventHandler backed by the given services.
func NewPostEventHandler(svc *appsvcs.Services, errs *errhttp.Writer) *PostEventHandler {
	return &PostEventHandler{svc: svc, errs: errs}
}

// Execute appends an event to an item's history and returns the updated item.
//
//	@Summary	Add event
//	@Tags		events
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Item ID"
//	@Param		request	body		CreateEventRequest	true	"Event to append"
//	@Success	200		{object}	models.Item
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	422		{object}	ValidationErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/items/{id}/events [post]
func (h *PostEventHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateEventRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.AddEvent(r.Context(), chi.URLParam(r, "id"), models.EventDraft{
		Type:      models.EventType(req.Type),
		Location:  req.Location,
		Custodian: req.Custodian,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, item)
}

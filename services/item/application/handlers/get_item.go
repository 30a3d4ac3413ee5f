package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/pkg/httpx"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
)

// GetItemHandler handles GET /items/{id} requests.
type GetItemHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services, errs *errhttp.Writer) *GetItemHandler {
	return &GetItemHandler{svc: svc, errs: errs}
}

// Execute returns one item with its full event history.
//
//	@Summary	Get item
//	@Tags		items
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"
//	@Success	200	{object}	models.Item
//	@Failure	404	{object}	ErrorResponse
//	@Router		/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Item.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/pkg/httpx"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
)

// ListEventsHandler handles GET /items/{id}/events requests.
type ListEventsHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewListEventsHandler returns a ListEventsHandler backed by the given services.
func NewListEventsHandler(svc *appsvcs.Services, errs *errhttp.Writer) *ListEventsHandler {
	return &ListEventsHandler{svc: svc, errs: errs}
}

// Execute returns an item's event history, oldest first.
//
//	@Summary	List events
//	@Tags		events
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"
//	@Success	200	{array}		models.Event
//	@Failure	404	{object}	ErrorResponse
//	@Router		/items/{id}/events [get]
func (h *ListEventsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Item.ListEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, events)
}

// GetLastEventHandler handles GET /items/{id}/events/last requests.
type GetLastEventHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewGetLastEventHandler returns a GetLastEventHandler backed by the given services.
func NewGetLastEventHandler(svc *appsvcs.Services, errs *errhttp.Writer) *GetLastEventHandler {
	return &GetLastEventHandler{svc: svc, errs: errs}
}

// Execute returns the most recent event of an item.
//
//	@Summary	Get last event
//	@Tags		events
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"
//	@Success	200	{object}	models.Event
//	@Failure	404	{object}	ErrorResponse	"Item not found or item has no events"
//	@Router		/items/{id}/events/last [get]
func (h *GetLastEventHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Item.LastEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ev)
}

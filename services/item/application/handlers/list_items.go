package handlers

import (
	"net/http"
	"strconv"

	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/pkg/httpx"
	pkgvalidator "github.com/ghuser/supplytrack/pkg/validator"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
)

// ListItemsQuery holds the query parameters of GET /items.
type ListItemsQuery struct {
	Name   string `query:"name"   validate:"max=255"`
	Limit  int    `query:"limit"  validate:"gte=0,lte=1000"`
	Offset int    `query:"offset" validate:"gte=0"`
}

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct {
	svc  *appsvcs.Services
	errs *errhttp.Writer
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services, errs *errhttp.Writer) *ListItemsHandler {
	return &ListItemsHandler{svc: svc, errs: errs}
}

// Execute lists items in creation order. The total number of matches before
// paging is returned in the X-Total-Count header.
//
//	@Summary		List items
//	@Description	Lists items in creation order, optionally filtered by name
//	@Tags			items
//	@Produce		json
//	@Param			name	query		string	false	"Case-insensitive name substring"
//	@Param			limit	query		int		false	"Maximum items to return (0 = all)"
//	@Param			offset	query		int		false	"Items to skip"
//	@Success		200		{array}		models.Item
//	@Header			200		{integer}	X-Total-Count	"Matches before paging"
//	@Failure		422		{object}	ValidationErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q, fields := parseListQuery(r)
	if len(fields) > 0 {
		httpx.JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Error: "Validation failed", Fields: fields})
		return
	}
	if err := pkgvalidator.Validate(q); err != nil {
		pkgvalidator.WriteValidationError(w, err)
		return
	}

	items, total, err := h.svc.Item.List(r.Context(), appsvcs.ListOpts{
		Name:   q.Name,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	httpx.JSONList(w, items, total)
}

func parseListQuery(r *http.Request) (ListItemsQuery, map[string]string) {
	values := r.URL.Query()
	q := ListItemsQuery{Name: values.Get("name")}
	fields := map[string]string{}
	for key, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[key] = "Must be an integer"
			continue
		}
		*dst = n
	}
	return q, fields
}

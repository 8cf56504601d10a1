package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/csnedu/appointments/core"
)

const orderingParam = "ordering"

// bindOrdering reads `?ordering=date,-exam`: comma-separated fields, "-" for descending.
// Unknown fields are dropped by the repositories.
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	fields := strings.Split(val, ",")
	orderings := make([]core.DBOrdering, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		field, descending := strings.CutPrefix(field, "-")
		if field == "" {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

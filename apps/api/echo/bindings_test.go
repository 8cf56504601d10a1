package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/csnedu/appointments/core"
)

func Test_bindOrdering(t *testing.T) {
	tests := []struct {
		query string
		want  []core.DBOrdering
	}{
		{query: "", want: nil},
		{query: "?ordering=", want: nil},
		{query: "?ordering=date", want: []core.DBOrdering{{Field: "date", Ascending: true}}},
		{
			query: "?ordering=-exam,%20time,,-",
			want:  []core.DBOrdering{{Field: "exam"}, {Field: "time", Ascending: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard"+tt.query, nil)
			ctx := echo.New().NewContext(req, httptest.NewRecorder())
			got := bindOrdering(ctx)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

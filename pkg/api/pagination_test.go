package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/pickings/?"+rawQuery, nil)
	return c
}

func TestParseOffsetPagination(t *testing.T) {
	tests := []struct {
		query string
		want  OffsetRequest
	}{
		{query: "", want: OffsetRequest{Skip: 0, Limit: DefaultLimit}},
		{query: "skip=40&limit=20", want: OffsetRequest{Skip: 40, Limit: 20}},
		{query: "skip=-5&limit=0", want: OffsetRequest{Skip: 0, Limit: DefaultLimit}},
		{query: "skip=abc&limit=xyz", want: OffsetRequest{Skip: 0, Limit: DefaultLimit}},
		{query: "limit=5000", want: OffsetRequest{Skip: 0, Limit: MaxLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOffsetPagination(newContext(tt.query)))
		})
	}
}

func TestOffsetRequest_Page(t *testing.T) {
	assert.Equal(t, int64(1), OffsetRequest{Skip: 0, Limit: 10}.Page())
	assert.Equal(t, int64(3), OffsetRequest{Skip: 25, Limit: 10}.Page())
	assert.Equal(t, int64(1), OffsetRequest{Skip: 25}.Page())
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool(newContext("unassigned_only=true"), "unassigned_only", false))
	assert.False(t, ParseBool(newContext("unassigned_only=0"), "unassigned_only", true))
	assert.True(t, ParseBool(newContext("unassigned_only=maybe"), "unassigned_only", true))
	assert.False(t, ParseBool(newContext(""), "unassigned_only", false))
}

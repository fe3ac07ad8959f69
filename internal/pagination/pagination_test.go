package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name            string
		totalCount      int64
		page            int
		pageSize        int
		expectedPage    int
		expectedPages   int
		expectedHasPrev bool
		expectedHasNext bool
	}{
		{
			name:            "first page",
			totalCount:      100,
			page:            1,
			pageSize:        10,
			expectedPage:    1,
			expectedPages:   10,
			expectedHasPrev: false,
			expectedHasNext: true,
		},
		{
			name:            "middle page",
			totalCount:      100,
			page:            5,
			pageSize:        10,
			expectedPage:    5,
			expectedPages:   10,
			expectedHasPrev: true,
			expectedHasNext: true,
		},
		{
			name:            "last page",
			totalCount:      100,
			page:            10,
			pageSize:        10,
			expectedPage:    10,
			expectedPages:   10,
			expectedHasPrev: true,
			expectedHasNext: false,
		},
		{
			name:            "page beyond total clamps",
			totalCount:      5,
			page:            3,
			pageSize:        10,
			expectedPage:    1,
			expectedPages:   1,
			expectedHasPrev: false,
			expectedHasNext: false,
		},
		{
			name:            "empty result set",
			totalCount:      0,
			page:            1,
			pageSize:        10,
			expectedPage:    1,
			expectedPages:   0,
			expectedHasPrev: false,
			expectedHasNext: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(tt.totalCount, tt.page, tt.pageSize)

			assert.Equal(t, tt.totalCount, result.TotalCount)
			assert.Equal(t, tt.expectedPage, result.CurrentPage)
			assert.Equal(t, tt.pageSize, result.PageSize)
			assert.Equal(t, tt.expectedPages, result.TotalPages)
			assert.Equal(t, tt.expectedHasPrev, result.HasPrevious)
			assert.Equal(t, tt.expectedHasNext, result.HasNext)
		})
	}
}

func TestNormalize(t *testing.T) {
	page, size := Normalize(0, 0, 25)
	assert.Equal(t, 1, page)
	assert.Equal(t, 25, size)

	page, size = Normalize(3, 1000, 25)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, size)
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 10))
	assert.Equal(t, 40, CalculateOffset(5, 10))
	assert.Equal(t, 0, CalculateOffset(0, 10))
	assert.Equal(t, 0, CalculateOffset(1, 0))
}

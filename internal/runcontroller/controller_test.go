package runcontroller

import "testing"

func TestClampPagination(t *testing.T) {
	tests := []struct {
		name                           string
		page, pageSize                 int
		wantPage, wantSize, wantOffset int
	}{
		{"defaults", 1, 20, 1, 20, 0},
		{"page zero floors to one", 0, 20, 1, 20, 0},
		{"negative page floors to one", -5, 20, 1, 20, 0},
		{"page size zero falls back to max", 1, 0, 1, 100, 0},
		{"page size over max clamps to max", 1, 500, 1, 100, 0},
		{"third page computes offset", 3, 20, 3, 20, 40},
		{"second page at max size", 2, 100, 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size, offset := clampPagination(tt.page, tt.pageSize)
			if page != tt.wantPage || size != tt.wantSize || offset != tt.wantOffset {
				t.Errorf("clampPagination(%d, %d) = (%d, %d, %d), want (%d, %d, %d)",
					tt.page, tt.pageSize, page, size, offset, tt.wantPage, tt.wantSize, tt.wantOffset)
			}
		})
	}
}

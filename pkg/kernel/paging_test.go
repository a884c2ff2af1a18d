package kernel_test

import (
	"testing"

	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
)

func TestNewPaginated(t *testing.T) {
	p := kernel.NewPaginated([]string{"a", "b"}, 2, 2, 5)
	if p.Page.Pages != 3 || !p.HasNext() || !p.HasPrevious() || p.Empty {
		t.Fatalf("unexpected page: %+v", p)
	}

	empty := kernel.NewPaginated[string](nil, 1, 20, 0)
	if !empty.Empty || empty.Items == nil || empty.HasNext() {
		t.Fatalf("unexpected empty page: %+v", empty)
	}
}

func TestPaginationOptions_Normalize(t *testing.T) {
	o := kernel.PaginationOptions{Page: 0, PageSize: 1000}.Normalize()
	if o.Page != 1 || o.PageSize != kernel.MaxPageSize {
		t.Fatalf("unexpected normalized options: %+v", o)
	}
	if off := (kernel.PaginationOptions{Page: 3, PageSize: 10}).Offset(); off != 20 {
		t.Fatalf("expected offset 20, got %d", off)
	}
}

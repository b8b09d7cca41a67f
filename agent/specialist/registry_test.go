package specialist

import (
	"errors"
	"sync"
	"testing"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

func testRegistry(t *testing.T, descriptors []Descriptor) Registry {
	t.Helper()
	r, err := NewRegistry(descriptors)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry([]Descriptor{
		{ID: "alex", Departments: []string{contractx.DepartmentTechnicalSupport}, MaxConcurrent: 3},
		{ID: "alex", Departments: []string{contractx.DepartmentSalesInquiry}, MaxConcurrent: 3},
	})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestCandidatesForOrdering(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, []Descriptor{
		{ID: "mike", Departments: []string{contractx.DepartmentScheduling}, MaxConcurrent: 3},
		{ID: "dana", Departments: []string{contractx.DepartmentScheduling}, MaxConcurrent: 3},
	})

	got := r.CandidatesFor(contractx.DepartmentScheduling)
	if len(got) != 2 || got[0].ID != "dana" || got[1].ID != "mike" {
		t.Fatalf("expected [dana mike], got %+v", got)
	}

	// Load changes the order; ID only breaks ties.
	if err := r.TryReserve("dana"); err != nil {
		t.Fatalf("TryReserve() error = %v", err)
	}
	got = r.CandidatesFor(contractx.DepartmentScheduling)
	if got[0].ID != "mike" || got[1].ID != "dana" {
		t.Fatalf("expected [mike dana] after reserving dana, got %+v", got)
	}

	if got := r.CandidatesFor("no_such_department"); len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}

func TestTryReserveCapacity(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, []Descriptor{
		{ID: "sarah", Departments: []string{contractx.DepartmentSalesInquiry}, MaxConcurrent: 2},
	})

	if err := r.TryReserve("sarah"); err != nil {
		t.Fatalf("TryReserve() error = %v", err)
	}
	if err := r.TryReserve("sarah"); err != nil {
		t.Fatalf("TryReserve() error = %v", err)
	}
	if err := r.TryReserve("sarah"); !errors.Is(err, ErrAtCapacity) {
		t.Fatalf("expected ErrAtCapacity, got %v", err)
	}
	if err := r.TryReserve("ghost"); !errors.Is(err, ErrUnknownSpecialist) {
		t.Fatalf("expected ErrUnknownSpecialist, got %v", err)
	}

	r.Release("sarah")
	if err := r.TryReserve("sarah"); err != nil {
		t.Fatalf("TryReserve() after release error = %v", err)
	}
}

func TestReleaseClampsAtZero(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, []Descriptor{
		{ID: "alex", Departments: []string{contractx.DepartmentTechnicalSupport}, MaxConcurrent: 1},
	})

	r.Release("alex")
	r.Release("alex")
	r.Release("ghost")

	snap, ok := r.Get("alex")
	if !ok || snap.Load != 0 {
		t.Fatalf("expected load 0, got %+v ok=%v", snap, ok)
	}
	if err := r.TryReserve("alex"); err != nil {
		t.Fatalf("TryReserve() error = %v", err)
	}
}

func TestUnlimitedRepresentativeNeverFills(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, []Descriptor{
		{ID: "maria", Departments: []string{contractx.DepartmentGeneral}},
	})

	for i := 0; i < 100; i++ {
		if err := r.TryReserve("maria"); err != nil {
			t.Fatalf("TryReserve() #%d error = %v", i, err)
		}
	}
}

func TestConcurrentReservesNeverExceedCapacity(t *testing.T) {
	t.Parallel()

	const maxConcurrent = 5
	r := testRegistry(t, []Descriptor{
		{ID: "alex", Departments: []string{contractx.DepartmentTechnicalSupport}, MaxConcurrent: maxConcurrent},
	})

	const attempts = 64
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.TryReserve("alex")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrAtCapacity) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != maxConcurrent {
		t.Fatalf("expected exactly %d successful reserves, got %d", maxConcurrent, succeeded)
	}

	snap, _ := r.Get("alex")
	if snap.Load != maxConcurrent {
		t.Fatalf("expected load %d, got %d", maxConcurrent, snap.Load)
	}
}

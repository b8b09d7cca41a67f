package specialist

import (
	"os"
	"path/filepath"
	"testing"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

func TestLoadCatalogDefault(t *testing.T) {
	t.Parallel()

	catalog, err := LoadCatalog(CatalogConfig{})
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if catalog.Representative != "maria" {
		t.Fatalf("expected maria as representative, got %q", catalog.Representative)
	}
	if err := catalog.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(catalog.Specialists) != 5 {
		t.Fatalf("expected 5 specialists, got %d", len(catalog.Specialists))
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `representative: front
specialists:
  - id: front
    display_name: Front Desk
    departments: [general]
  - id: pat
    departments: [technical_support]
  - id: lee
    departments: [scheduling]
    max_concurrent: 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadCatalog(CatalogConfig{Path: path, DefaultMaxConcurrent: 4})
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if catalog.Representative != "front" {
		t.Fatalf("expected front, got %q", catalog.Representative)
	}

	byID := map[string]Descriptor{}
	for _, d := range catalog.Specialists {
		byID[d.ID] = d
	}
	if byID["pat"].MaxConcurrent != 4 {
		t.Fatalf("expected default max_concurrent 4 for pat, got %d", byID["pat"].MaxConcurrent)
	}
	if byID["lee"].MaxConcurrent != 7 {
		t.Fatalf("expected explicit max_concurrent 7 for lee, got %d", byID["lee"].MaxConcurrent)
	}
	if !byID["front"].Unlimited() {
		t.Fatal("expected representative to be unlimited")
	}
}

func TestLoadCatalogRejectsMissingRepresentative(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `representative: ghost
specialists:
  - id: pat
    departments: [technical_support]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	if _, err := LoadCatalog(CatalogConfig{Path: path, DefaultMaxConcurrent: 3}); err == nil {
		t.Fatal("expected validation error for missing representative")
	}
}

func TestDescriptorServes(t *testing.T) {
	t.Parallel()

	d := Descriptor{
		ID:            "alex",
		Departments:   []string{contractx.DepartmentTechnicalSupport, contractx.DepartmentAccountSupport},
		MaxConcurrent: 3,
	}
	if !d.Serves(contractx.DepartmentTechnicalSupport) {
		t.Fatal("expected alex to serve technical_support")
	}
	if d.Serves(contractx.DepartmentSalesInquiry) {
		t.Fatal("alex must not serve sales_inquiry")
	}
	if d.Unlimited() {
		t.Fatal("max_concurrent 3 is not unlimited")
	}
}

package specialist

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

type CatalogConfig struct {
	Path                 string `envconfig:"PATH" split_words:"true"`
	DefaultMaxConcurrent int    `envconfig:"DEFAULT_MAX_CONCURRENT" split_words:"true" default:"3"`
}

// Catalog is the routing table: the representative identity plus the
// specialist descriptors. Reloadable by re-reading the file and building a
// fresh registry.
type Catalog struct {
	Representative string       `mapstructure:"representative"`
	Specialists    []Descriptor `mapstructure:"specialists"`
}

// LoadCatalog reads the YAML catalog at cfg.Path, falling back to the
// embedded default table when no path is configured.
func LoadCatalog(cfg CatalogConfig) (Catalog, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return DefaultCatalog(), nil
	}

	v := viper.New()
	v.SetConfigFile(cfg.Path)
	if err := v.ReadInConfig(); err != nil {
		return Catalog{}, fmt.Errorf("read specialist catalog: %w", err)
	}

	var catalog Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		return Catalog{}, fmt.Errorf("unmarshal specialist catalog: %w", err)
	}

	if strings.TrimSpace(catalog.Representative) == "" {
		catalog.Representative = DefaultCatalog().Representative
	}
	for i := range catalog.Specialists {
		if catalog.Specialists[i].MaxConcurrent == 0 && catalog.Specialists[i].ID != catalog.Representative {
			catalog.Specialists[i].MaxConcurrent = cfg.DefaultMaxConcurrent
		}
	}

	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c Catalog) Validate() error {
	if strings.TrimSpace(c.Representative) == "" {
		return fmt.Errorf("%w: catalog representative is empty", contractx.ErrValidation)
	}
	found := false
	for _, d := range c.Specialists {
		if err := d.validate(); err != nil {
			return err
		}
		if d.ID == c.Representative {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: representative %q is not in the catalog", contractx.ErrValidation, c.Representative)
	}
	return nil
}

// DefaultCatalog mirrors the stock department table: Maria fronts general
// inquiries, Alex covers technical and account support, Sarah handles sales,
// Mike and Dana split scheduling.
func DefaultCatalog() Catalog {
	return Catalog{
		Representative: "maria",
		Specialists: []Descriptor{
			{
				ID:            "maria",
				DisplayName:   "Maria",
				Departments:   []string{contractx.DepartmentGeneral},
				MaxConcurrent: 0, // representative never turns a conversation away
			},
			{
				ID:            "alex",
				DisplayName:   "Alex",
				Departments:   []string{contractx.DepartmentTechnicalSupport, contractx.DepartmentAccountSupport},
				MaxConcurrent: 3,
			},
			{
				ID:            "sarah",
				DisplayName:   "Sarah",
				Departments:   []string{contractx.DepartmentSalesInquiry},
				MaxConcurrent: 3,
			},
			{
				ID:            "mike",
				DisplayName:   "Mike",
				Departments:   []string{contractx.DepartmentScheduling},
				MaxConcurrent: 3,
			},
			{
				ID:            "dana",
				DisplayName:   "Dana",
				Departments:   []string{contractx.DepartmentScheduling},
				MaxConcurrent: 3,
			},
		},
	}
}

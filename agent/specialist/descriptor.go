package specialist

import (
	"fmt"
	"strings"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

// Descriptor identifies a specialist and its capability metadata.
// MaxConcurrent <= 0 means unlimited; that is reserved for the representative,
// which must always be able to accept a conversation.
type Descriptor struct {
	ID            string   `json:"id" mapstructure:"id"`
	DisplayName   string   `json:"display_name,omitempty" mapstructure:"display_name"`
	Departments   []string `json:"departments" mapstructure:"departments"`
	MaxConcurrent int      `json:"max_concurrent" mapstructure:"max_concurrent"`
}

func (d Descriptor) Serves(departmentLabel string) bool {
	for _, label := range d.Departments {
		if label == departmentLabel {
			return true
		}
	}
	return false
}

func (d Descriptor) Unlimited() bool {
	return d.MaxConcurrent <= 0
}

func (d Descriptor) validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: specialist id is empty", contractx.ErrValidation)
	}
	if len(d.Departments) == 0 {
		return fmt.Errorf("%w: specialist %s serves no departments", contractx.ErrValidation, d.ID)
	}
	for _, label := range d.Departments {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("%w: specialist %s has an empty department label", contractx.ErrValidation, d.ID)
		}
	}
	return nil
}

// Snapshot pairs a descriptor with its load at observation time.
type Snapshot struct {
	Descriptor
	Load int `json:"load"`
}

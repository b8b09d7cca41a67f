package contract

// Department labels understood by the routing core. The catalog may serve a
// subset; unknown labels fall back to DepartmentGeneral.
const (
	DepartmentTechnicalSupport = "technical_support"
	DepartmentSalesInquiry     = "sales_inquiry"
	DepartmentScheduling       = "scheduling"
	DepartmentAccountSupport   = "account_support"
	DepartmentGeneral          = "general"
)

func KnownDepartments() []string {
	return []string{
		DepartmentTechnicalSupport,
		DepartmentSalesInquiry,
		DepartmentScheduling,
		DepartmentAccountSupport,
		DepartmentGeneral,
	}
}

func IsKnownDepartment(label string) bool {
	for _, d := range KnownDepartments() {
		if d == label {
			return true
		}
	}
	return false
}

// Intent is one ranked classification candidate. Confidence is in [0,1].
type Intent struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type ClassifyRequest struct {
	Message           string `json:"message"`
	RecentContext     string `json:"recent_context,omitempty"`
	CurrentDepartment string `json:"current_department,omitempty"`
}

// RoutingDecision is the ephemeral outcome of routing one inbound message.
// It is returned to the caller and recorded through analytics, never persisted
// as its own entity.
type RoutingDecision struct {
	ConversationID string  `json:"conversation_id"`
	Department     string  `json:"department"`
	Confidence     float64 `json:"confidence"`
	Owner          string  `json:"owner"`
	PreviousOwner  string  `json:"previous_owner,omitempty"`
	Handoff        bool    `json:"handoff"`
	Degraded       bool    `json:"degraded,omitempty"`
	Overflow       bool    `json:"overflow,omitempty"`
}

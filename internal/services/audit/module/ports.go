package module

import "datacompliance/internal/services/audit/domain"

// Ports defines ledger module ports exposed via the registry
type Ports struct {
	Ledger domain.LedgerPort
	Setup  domain.SetupPort
}

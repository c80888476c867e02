package shared

import "fmt"

// TaxFilingLockKey builds redis keys guarding carryforward consumption for a company tax year.
func TaxFilingLockKey(companyID int64, taxYear int) string {
	return fmt.Sprintf("tax:filing:%d:%d:lock", companyID, taxYear)
}

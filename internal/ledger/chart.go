package ledger

import "sort"

// Chart indexes a company's accounts by id and by code.
type Chart struct {
	byID   map[int64]Account
	byCode map[string]Account
	sorted []Account
}

// NewChart builds a Chart. Accounts are kept sorted by code.
func NewChart(accounts []Account) *Chart {
	c := &Chart{
		byID:   make(map[int64]Account, len(accounts)),
		byCode: make(map[string]Account, len(accounts)),
		sorted: make([]Account, 0, len(accounts)),
	}
	for _, acc := range accounts {
		if acc.ReportCategory == "" {
			acc.ReportCategory = CategoryFor(acc.Type)
		}
		c.byID[acc.ID] = acc
		c.byCode[acc.Code] = acc
		c.sorted = append(c.sorted, acc)
	}
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i].Code < c.sorted[j].Code })
	return c
}

// Len returns the number of accounts.
func (c *Chart) Len() int {
	return len(c.sorted)
}

// Accounts returns every account ordered by code.
func (c *Chart) Accounts() []Account {
	out := make([]Account, len(c.sorted))
	copy(out, c.sorted)
	return out
}

// Account looks up an account by id.
func (c *Chart) Account(id int64) (Account, bool) {
	acc, ok := c.byID[id]
	return acc, ok
}

// ByCode looks up an account by code.
func (c *Chart) ByCode(code string) (Account, bool) {
	acc, ok := c.byCode[code]
	return acc, ok
}

// FirstOfType returns the lowest-code account of the first type in the
// preference list that has any account. Active accounts win over inactive ones.
func (c *Chart) FirstOfType(types ...AccountType) (Account, bool) {
	for _, t := range types {
		var inactive *Account
		for i := range c.sorted {
			acc := c.sorted[i]
			if acc.Type != t {
				continue
			}
			if acc.IsActive {
				return acc, true
			}
			if inactive == nil {
				inactive = &c.sorted[i]
			}
		}
		if inactive != nil {
			return *inactive, true
		}
	}
	return Account{}, false
}

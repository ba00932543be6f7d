package econ

import "time"

const (
	MoneyDeltaCap = int64(150_000)

	HireCost      = int64(50_000)
	TrainCost     = int64(10_000)
	ProjectCost   = int64(100_000)
	MarketingCost = int64(30_000)

	SalaryPerEmployee = int64(8_000)
	TickUpkeep        = int64(3_000)
	BankruptcyReset   = int64(50_000)

	StarterMoney      = int64(200_000)
	StarterReputation = 5

	RevenueDecay       = 0.98
	ReleasableProgress = 80

	MinReputation = 1
	MaxReputation = 10
)

// State is the per-player economic record. One document per player lives in
// the store; every mutation goes through the transaction runner.
type State struct {
	Money         int64             `json:"money"`
	Fans          int64             `json:"fans"`
	Reputation    int               `json:"reputation"`
	Employees     int               `json:"employees"`
	Projects      []Project         `json:"projects"`
	Released      []ReleasedProduct `json:"released"`
	LastWriteTime time.Time         `json:"lastWriteTime"`
}

// Project is a product under development. Quality holds the reputation
// captured at creation time and feeds the release-quality formula.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Bugs     int    `json:"bugs"`
	Quality  int    `json:"quality"`
}

// ReleasedProduct is an archived catalog entry. Only BaseRevenue changes
// after release; it decays on every tick.
type ReleasedProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quality     int    `json:"quality"`
	BaseRevenue int64  `json:"baseRevenue"`
}

// Clone returns a deep copy. Mutators receive a clone so the committed
// snapshot stays untouched until the store accepts the write.
func (s State) Clone() State {
	next := s
	if s.Projects != nil {
		next.Projects = make([]Project, len(s.Projects))
		copy(next.Projects, s.Projects)
	}
	if s.Released != nil {
		next.Released = make([]ReleasedProduct, len(s.Released))
		copy(next.Released, s.Released)
	}
	return next
}

// NewPlayerState is the record a freshly provisioned player starts from.
func NewPlayerState(now time.Time) State {
	return State{
		Money:         StarterMoney,
		Reputation:    StarterReputation,
		Projects:      []Project{},
		Released:      []ReleasedProduct{},
		LastWriteTime: now,
	}
}

// ClampMoneyDelta bounds a proposed money value to at most cap above the
// pre-transaction value. Decreases pass through unmodified. Applied
// centrally to every commit regardless of which command produced it.
func ClampMoneyDelta(oldMoney, newMoney, cap int64) int64 {
	if newMoney > oldMoney+cap {
		return oldMoney + cap
	}
	return newMoney
}

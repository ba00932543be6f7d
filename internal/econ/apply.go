package econ

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// Apply executes one command against st in place and reports the outcome.
// It is a pure function of the snapshot and the random stream: no I/O, no
// shared state, safe to invoke again when a commit attempt is retried.
func Apply(st *State, cmd Command, roll *rand.Rand) Outcome {
	switch cmd.Kind {
	case KindHire:
		if st.Money < HireCost {
			return rejected(RejectInsufficientFunds)
		}
		st.Money -= HireCost
		st.Employees++
		return applied()

	case KindTrain:
		if st.Money < TrainCost {
			return rejected(RejectInsufficientFunds)
		}
		st.Money -= TrainCost
		if st.Reputation < MaxReputation {
			st.Reputation++
		}
		return applied()

	case KindStartProject:
		if st.Money < ProjectCost {
			return rejected(RejectInsufficientFunds)
		}
		st.Money -= ProjectCost
		name := cmd.ProjectName
		if name == "" {
			name = RandomProjectName(roll)
		}
		st.Projects = append(st.Projects, Project{
			ID:      uuid.NewString(),
			Name:    name,
			Quality: st.Reputation,
		})
		return applied()

	case KindSprint:
		if len(st.Projects) == 0 {
			return rejected(RejectNotEligible)
		}
		for i := range st.Projects {
			sprintProject(&st.Projects[i], st.Employees, roll)
		}
		return applied()

	case KindRelease:
		idx := firstReleasable(st.Projects)
		if idx < 0 {
			return rejected(RejectNotEligible)
		}
		rel := releaseProject(st, idx, roll)
		out := applied()
		out.Released = &rel
		return out

	case KindMarketing:
		if st.Money < MarketingCost {
			return rejected(RejectInsufficientFunds)
		}
		st.Money -= MarketingCost
		st.Fans += int64(math.Round(200 + roll.Float64()*400))
		return applied()

	case KindTick:
		applyTick(st, roll)
		return applied()
	}
	return rejected(RejectNotEligible)
}

// sprintProject advances one project. Speed scales with head count but a
// lone founder still makes progress; bugs drift by [-1,3) per sprint and
// never go negative.
func sprintProject(p *Project, employees int, roll *rand.Rand) {
	speed := int(math.Floor(float64(employees) * (0.6 + roll.Float64()*0.8)))
	if speed < 1 {
		speed = 1
	}
	p.Progress += speed
	if p.Progress > 100 {
		p.Progress = 100
	}
	p.Bugs += int(math.Floor(roll.Float64()*4 - 1))
	if p.Bugs < 0 {
		p.Bugs = 0
	}
}

func firstReleasable(projects []Project) int {
	for i, p := range projects {
		if p.Progress >= ReleasableProgress {
			return i
		}
	}
	return -1
}

// releaseProject moves projects[idx] into the released catalog. Removal and
// append happen inside the same command so a project is never present in
// both lists across a commit.
func releaseProject(st *State, idx int, roll *rand.Rand) ReleasedProduct {
	p := st.Projects[idx]
	st.Projects = append(st.Projects[:idx], st.Projects[idx+1:]...)

	quality := releaseQuality(p, st.Reputation)
	rel := ReleasedProduct{
		ID:          p.ID,
		Name:        p.Name,
		Quality:     quality,
		BaseRevenue: int64(math.Round(40_000*float64(quality) + float64(st.Fans)*(50+roll.Float64()*50))),
	}
	st.Released = append(st.Released, rel)
	st.Fans += int64(math.Round(float64(quality) * (30 + roll.Float64()*120)))
	return rel
}

// releaseQuality blends the quality seed captured at creation, the bug
// count and the current reputation into a final 1..10 score.
func releaseQuality(p Project, reputation int) int {
	score := (float64(p.Quality) + float64(100-p.Bugs)/20 + float64(reputation)) / 3
	q := int(math.Round(score))
	if q < MinReputation {
		q = MinReputation
	}
	if q > MaxReputation {
		q = MaxReputation
	}
	return q
}

// applyTick is the passive income pass. Revenue decays before it pays out,
// so a product earns on its already-decayed base. No single product
// contributes negative income.
func applyTick(st *State, roll *rand.Rand) {
	var income int64
	for i := range st.Released {
		g := &st.Released[i]
		g.BaseRevenue = int64(math.Floor(float64(g.BaseRevenue) * RevenueDecay))
		gain := int64(math.Floor(float64(g.BaseRevenue)*0.2 + roll.Float64()*3000))
		if gain > 0 {
			income += gain
		}
	}
	salaries := int64(st.Employees) * SalaryPerEmployee
	st.Money = st.Money + income - salaries - TickUpkeep
	if st.Money < 0 {
		st.Money = BankruptcyReset
		if st.Reputation > MinReputation {
			st.Reputation--
		}
	}
}

package bazi

import "fmt"

// PillarKey identifies one of the four pillars. The serialized values are
// stable and shared with the condition codec.
type PillarKey string

const (
	PillarYear  PillarKey = "year"
	PillarMonth PillarKey = "month"
	PillarDay   PillarKey = "day"
	PillarHour  PillarKey = "hour"
)

// PillarKeys lists the pillars in year→hour order.
var PillarKeys = []PillarKey{PillarYear, PillarMonth, PillarDay, PillarHour}

// PillarFromWord maps the single characters used in rule text (年月日时)
// to pillar keys.
var PillarFromWord = map[string]PillarKey{
	"年": PillarYear,
	"月": PillarMonth,
	"日": PillarDay,
	"时": PillarHour,
}

// Valid reports whether k names one of the four pillars.
func (k PillarKey) Valid() bool {
	switch k {
	case PillarYear, PillarMonth, PillarDay, PillarHour:
		return true
	}
	return false
}

// Gender values carried by charts and rules.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// DayMasterStar is the main-star label of the day pillar: the day stem has
// no ten-god relation to itself.
const DayMasterStar = "日主"

// Pillar is one stem-branch pair of a computed chart together with the
// per-pillar attributes the calculator derives from it.
type Pillar struct {
	Stem        string   `json:"stem"`
	Branch      string   `json:"branch"`
	HiddenStems []string `json:"hidden_stems,omitempty"`
	MainStar    string   `json:"main_star,omitempty"`
	SubStars    []string `json:"sub_stars,omitempty"`
	StarFortune string   `json:"star_fortune,omitempty"`
	SelfSitting string   `json:"self_sitting,omitempty"`
	Void        bool     `json:"void,omitempty"`
	NaYin       string   `json:"nayin,omitempty"`
	Deities     []string `json:"deities,omitempty"`
}

// GanZhi returns the pillar as a stem+branch pair, e.g. 甲子.
func (p *Pillar) GanZhi() string { return p.Stem + p.Branch }

// HasDeity reports whether the pillar carries the named deity.
func (p *Pillar) HasDeity(name string) bool {
	for _, d := range p.Deities {
		if d == name {
			return true
		}
	}
	return false
}

// Chart is one computed Four-Pillars chart. It is produced by the external
// chart calculator, decoded from JSON, completed once via Complete, and
// from then on read-only: the evaluator never mutates it.
type Chart struct {
	Year  Pillar `json:"year"`
	Month Pillar `json:"month"`
	Day   Pillar `json:"day"`
	Hour  Pillar `json:"hour"`

	Gender   string `json:"gender,omitempty"`
	Strength string `json:"strength,omitempty"` // 身强 / 身弱 / 中和 …

	FavorableElements   []string `json:"favorable_elements,omitempty"`
	UnfavorableElements []string `json:"unfavorable_elements,omitempty"`
	FavorableGods       []string `json:"favorable_gods,omitempty"`
	UnfavorableGods     []string `json:"unfavorable_gods,omitempty"`

	ElementCounts map[string]int `json:"element_counts,omitempty"`
}

// Pillar returns the pillar for k, or nil for an invalid key.
func (c *Chart) Pillar(k PillarKey) *Pillar {
	switch k {
	case PillarYear:
		return &c.Year
	case PillarMonth:
		return &c.Month
	case PillarDay:
		return &c.Day
	case PillarHour:
		return &c.Hour
	}
	return nil
}

// Pillars returns the four pillars in year→hour order.
func (c *Chart) Pillars() []*Pillar {
	return []*Pillar{&c.Year, &c.Month, &c.Day, &c.Hour}
}

// DayMaster returns the day stem.
func (c *Chart) DayMaster() string { return c.Day.Stem }

// StemsInOrder returns the four pillar stems in year→hour order.
func (c *Chart) StemsInOrder() []string {
	return []string{c.Year.Stem, c.Month.Stem, c.Day.Stem, c.Hour.Stem}
}

// Complete validates the stems and branches and fills every derivable
// field the producer left empty: hidden stems, main and sub stars, nayin,
// life stages and element counts. Supplied values are never overwritten.
func (c *Chart) Complete() error {
	for i, k := range PillarKeys {
		p := c.Pillar(k)
		if !IsStem(p.Stem) {
			return fmt.Errorf("chart: invalid stem %q in %s pillar", p.Stem, PillarKeys[i])
		}
		if !IsBranch(p.Branch) {
			return fmt.Errorf("chart: invalid branch %q in %s pillar", p.Branch, PillarKeys[i])
		}
	}

	day := c.DayMaster()
	for _, k := range PillarKeys {
		p := c.Pillar(k)
		if p.HiddenStems == nil {
			p.HiddenStems = HiddenStems(p.Branch)
		}
		if p.MainStar == "" {
			if k == PillarDay {
				p.MainStar = DayMasterStar
			} else {
				p.MainStar = TenGod(day, p.Stem)
			}
		}
		if p.SubStars == nil {
			p.SubStars = make([]string, len(p.HiddenStems))
			for i, hs := range p.HiddenStems {
				p.SubStars[i] = TenGod(day, hs)
			}
		}
		if p.NaYin == "" {
			p.NaYin = NaYin(p.GanZhi())
		}
		if p.StarFortune == "" {
			p.StarFortune = LifeStage(day, p.Branch)
		}
		if p.SelfSitting == "" {
			p.SelfSitting = LifeStage(p.Stem, p.Branch)
		}
	}

	if c.ElementCounts == nil {
		counts := make(map[string]int, 5)
		for _, p := range c.Pillars() {
			counts[StemElement(p.Stem)]++
			counts[BranchElement(p.Branch)]++
		}
		c.ElementCounts = counts
	}
	return nil
}

// ElementCount returns the count recorded for one element.
func (c *Chart) ElementCount(el string) int { return c.ElementCounts[el] }

// CountBranches counts how many of the four branches are in names.
func (c *Chart) CountBranches(names []string) int {
	n := 0
	for _, p := range c.Pillars() {
		for _, name := range names {
			if p.Branch == name {
				n++
				break
			}
		}
	}
	return n
}

// CountTenGodsSub counts occurrences of the named ten gods among the sub
// stars of the given pillars. Empty pillars means all four.
func (c *Chart) CountTenGodsSub(names []string, pillars []PillarKey) int {
	if len(pillars) == 0 {
		pillars = PillarKeys
	}
	n := 0
	for _, k := range pillars {
		p := c.Pillar(k)
		if p == nil {
			continue
		}
		for _, s := range p.SubStars {
			for _, name := range names {
				if s == name {
					n++
					break
				}
			}
		}
	}
	return n
}

// CountTenGodsTotal counts the named ten gods across the whole chart:
// main stars and sub stars of all four pillars.
func (c *Chart) CountTenGodsTotal(names []string) int {
	n := 0
	for _, p := range c.Pillars() {
		for _, name := range names {
			if p.MainStar == name {
				n++
				break
			}
		}
		for _, s := range p.SubStars {
			for _, name := range names {
				if s == name {
					n++
					break
				}
			}
		}
	}
	return n
}

// HasDeityAny reports whether any pillar carries the named deity.
func (c *Chart) HasDeityAny(name string) bool {
	for _, p := range c.Pillars() {
		if p.HasDeity(name) {
			return true
		}
	}
	return false
}

// Favors reports whether name (an element or a ten god) is in the chart's
// favorable sets.
func (c *Chart) Favors(name string) bool {
	return contains(c.FavorableElements, name) || contains(c.FavorableGods, name)
}

// Dislikes reports whether name is in the chart's unfavorable sets.
func (c *Chart) Dislikes(name string) bool {
	return contains(c.UnfavorableElements, name) || contains(c.UnfavorableGods, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

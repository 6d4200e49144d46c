package domain

import (
	"slices"

	"github.com/samber/lo"
)

// DefaultOptions is the estimation scale used when none is configured.
var DefaultOptions = []int{1, 2, 3, 5, 8, 13, 21}

var defaultLegend = map[int]string{
	1:  "Under 1 week",
	2:  "Under 2 weeks",
	3:  "Under 4 weeks",
	5:  "Under 12 weeks",
	8:  "Under 24 weeks",
	13: "Under 6 months",
	21: "Over 6 months",
}

// Deck is the ordered set of values a participant may vote with.
type Deck struct {
	options []int
}

type Card struct {
	Value  int    `json:"value"`
	Legend string `json:"legend,omitempty"`
}

// NewDeck sorts and dedups options. An empty list yields the default deck.
func NewDeck(options []int) Deck {
	if len(options) == 0 {
		options = DefaultOptions
	}
	opts := lo.Uniq(options)
	slices.Sort(opts)
	return Deck{options: opts}
}

func (d Deck) Options() []int {
	if len(d.options) == 0 {
		return slices.Clone(DefaultOptions)
	}
	return slices.Clone(d.options)
}

func (d Deck) Cards() []Card {
	return lo.Map(d.Options(), func(v int, _ int) Card {
		return Card{Value: v, Legend: defaultLegend[v]}
	})
}

// Nearest snaps v to the closest option by absolute distance. On a tie the
// smaller option wins. Values outside the deck clamp to its ends.
func (d Deck) Nearest(v int) int {
	opts := d.Options()
	v = max(opts[0], min(v, opts[len(opts)-1]))
	best := opts[0]
	for _, o := range opts[1:] {
		if abs(o-v) < abs(best-v) {
			best = o
		}
	}
	return best
}

// Consensus is the lower median of votes snapped to the deck. ok is false
// when there are no votes.
func (d Deck) Consensus(votes []int) (value int, ok bool) {
	if len(votes) == 0 {
		return 0, false
	}
	sorted := slices.Clone(votes)
	slices.Sort(sorted)
	return d.Nearest(sorted[(len(sorted)-1)/2]), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeck_Consensus(t *testing.T) {
	deck := NewDeck(nil)

	cases := []struct {
		name  string
		votes []int
		want  int
		ok    bool
	}{
		{"odd count takes middle", []int{1, 2, 3}, 2, true},
		{"even count takes lower middle", []int{1, 2}, 1, true},
		{"unsorted input", []int{8, 5}, 5, true},
		{"median snapped to deck", []int{4, 4, 4}, 3, true},
		{"single vote", []int{13}, 13, true},
		{"no votes", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := deck.Consensus(tc.votes)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDeck_Nearest_TieGoesToSmaller(t *testing.T) {
	req := require.New(t)
	deck := NewDeck([]int{1, 3, 5})

	req.Equal(1, deck.Nearest(2))
	req.Equal(3, deck.Nearest(4))
	req.Equal(5, deck.Nearest(100))
	req.Equal(1, deck.Nearest(-7))
}

func TestDeck_Nearest_ClampsExtremes(t *testing.T) {
	req := require.New(t)
	deck := NewDeck(nil)

	req.Equal(1, deck.Nearest(math.MinInt))
	req.Equal(1, deck.Nearest(math.MinInt+5))
	req.Equal(21, deck.Nearest(math.MaxInt))
	req.Equal(21, deck.Nearest(math.MaxInt-3))
}

func TestNewDeck_SortsAndDedups(t *testing.T) {
	req := require.New(t)

	deck := NewDeck([]int{8, 1, 3, 1})

	req.Equal([]int{1, 3, 8}, deck.Options())
	req.Equal(DefaultOptions, NewDeck(nil).Options())
}

func TestDeck_Cards(t *testing.T) {
	req := require.New(t)

	cards := NewDeck(nil).Cards()

	req.Len(cards, len(DefaultOptions))
	req.Equal(Card{Value: 1, Legend: "Under 1 week"}, cards[0])
	req.Equal(Card{Value: 21, Legend: "Over 6 months"}, cards[len(cards)-1])
}

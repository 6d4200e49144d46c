package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession_View_RedactsOthersBeforeReveal(t *testing.T) {
	req := require.New(t)
	deck := NewDeck(nil)
	s := newTestSession()
	s.AddMember("alice", "Alice")
	s.AddMember("bob", "Bob")
	s.AddMember("carol", "Carol")
	s.CastVote("alice", 5)
	s.CastVote("bob", 8)

	// When alice looks at the session before reveal
	snap := s.View("alice", deck)

	// Then she sees her own vote only
	req.False(snap.Revealed)
	req.Nil(snap.Consensus)
	req.Equal(2, snap.VotedCount)
	req.Equal(5, *snap.Members[0].Vote)
	req.True(snap.Members[1].Voted)
	req.Nil(snap.Members[1].Vote)
	req.False(snap.Members[2].Voted)
	req.Nil(snap.Members[2].Vote)

	// And an outsider sees no values at all
	for _, m := range s.View("", deck).Members {
		req.Nil(m.Vote)
	}
}

func TestSession_View_RevealedShowsVotesAndConsensus(t *testing.T) {
	req := require.New(t)
	deck := NewDeck(nil)
	s := newTestSession()
	s.AddMember("alice", "Alice")
	s.AddMember("bob", "Bob")
	s.CastVote("alice", 5)
	s.CastVote("bob", 8)

	s.Reveal()
	snap := s.View("", deck)

	req.True(snap.Revealed)
	req.Equal(5, *snap.Members[0].Vote)
	req.Equal(8, *snap.Members[1].Vote)
	req.NotNil(snap.Consensus)
	req.Equal(5, *snap.Consensus)
}

func TestSession_View_DoesNotAliasVotes(t *testing.T) {
	req := require.New(t)
	s := newTestSession()
	s.AddMember("alice", "Alice")
	s.CastVote("alice", 5)

	snap := s.View("alice", NewDeck(nil))
	*snap.Members[0].Vote = 21

	m, _ := s.Member("alice")
	req.Equal(5, *m.Vote)
}

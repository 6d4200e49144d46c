package domain

// MemberView is a member as one recipient is allowed to see it.
// Vote stays nil before reveal unless the member is the recipient.
type MemberView struct {
	ID    ParticipantID `json:"id"`
	Name  string        `json:"name"`
	Voted bool          `json:"voted"`
	Vote  *int          `json:"vote"`
}

// Snapshot is the read-only session payload sent to clients.
type Snapshot struct {
	ID         SessionID     `json:"id"`
	Title      string        `json:"title"`
	CreatorID  ParticipantID `json:"creatorId"`
	Members    []MemberView  `json:"members"`
	Revealed   bool          `json:"revealed"`
	VotedCount int           `json:"votedCount"`
	Consensus  *int          `json:"consensus,omitempty"`
}

// View renders the session for viewer. Raw vote values of other members are
// only included once the session is revealed.
func (s *Session) View(viewer ParticipantID, deck Deck) Snapshot {
	snap := Snapshot{
		ID:        s.ID,
		Title:     s.Title,
		CreatorID: s.CreatorID,
		Members:   make([]MemberView, 0, len(s.Members)),
		Revealed:  s.Revealed,
	}
	for _, m := range s.Members {
		mv := MemberView{ID: m.ID, Name: m.Name, Voted: m.HasVoted()}
		if m.Vote != nil && (s.Revealed || m.ID == viewer) {
			v := *m.Vote
			mv.Vote = &v
		}
		if mv.Voted {
			snap.VotedCount++
		}
		snap.Members = append(snap.Members, mv)
	}
	if s.Revealed {
		if c, ok := deck.Consensus(s.Votes()); ok {
			snap.Consensus = &c
		}
	}
	return snap
}

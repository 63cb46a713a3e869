package domain

import "sort"

// Room is the state shared by everyone in one study session.
//
// Room is not safe for concurrent mutation; the dispatcher loop is its only writer.
type Room struct {
	ID       string
	Config   RoomConfig
	Sections []Section

	sectionsSet  bool
	participants map[string]*Participant
	nextSeq      uint64
}

// NewRoom returns an empty room.
func NewRoom(id string, cfg RoomConfig) *Room {
	return &Room{
		ID:           id,
		Config:       cfg,
		participants: make(map[string]*Participant),
	}
}

// SetSections assigns the generated sections. Only the first call has any effect.
func (r *Room) SetSections(sections []Section) bool {
	if r.sectionsSet {
		return false
	}
	if sections == nil {
		sections = []Section{}
	}
	r.Sections = sections
	r.sectionsSet = true
	return true
}

// HasSections reports whether section generation has completed for the room.
func (r *Room) HasSections() bool {
	return r.sectionsSet
}

// Section returns the section at index i.
func (r *Room) Section(i int) (Section, bool) {
	if i < 0 || i >= len(r.Sections) {
		return Section{}, false
	}
	return r.Sections[i], true
}

// SetParticipantName creates the participant with a zero score or renames an existing one.
func (r *Room) SetParticipantName(connID, name string) *Participant {
	if p, ok := r.participants[connID]; ok {
		p.DisplayName = name
		return p
	}
	r.nextSeq++
	p := &Participant{ConnID: connID, DisplayName: name, seq: r.nextSeq}
	r.participants[connID] = p
	return p
}

// Participant looks up a participant by connection.
func (r *Room) Participant(connID string) (*Participant, bool) {
	p, ok := r.participants[connID]
	return p, ok
}

// SetScore replaces the participant's score.
func (r *Room) SetScore(connID string, score float64) error {
	p, ok := r.participants[connID]
	if !ok {
		return ErrParticipantNotFound
	}
	p.Score = score
	return nil
}

// RemoveParticipant drops the connection's participant, if any.
func (r *Room) RemoveParticipant(connID string) bool {
	if _, ok := r.participants[connID]; !ok {
		return false
	}
	delete(r.participants, connID)
	return true
}

// ParticipantCount returns the number of named participants.
func (r *Room) ParticipantCount() int {
	return len(r.participants)
}

// Participants returns a copy of the participants in join order.
func (r *Room) Participants() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

package game

import (
	"fmt"
	"strconv"

	opt "github.com/repeale/fp-go/option"
)

type SlotID string

const (
	SlotTop    SlotID = "top"
	SlotBottom SlotID = "bottom"
)

// Slot order doubles as the player iteration order for collision checks.
var slotOrder = []SlotID{SlotTop, SlotBottom}

func ParseSlot(position string) (SlotID, bool) {
	switch SlotID(position) {
	case SlotTop:
		return SlotTop, true
	case SlotBottom:
		return SlotBottom, true
	}
	return "", false
}

type Player struct {
	ID     string
	X      float64
	Y      float64
	Points int
	Slot   SlotID
}

type Knife struct {
	ID        string
	X         float64
	Y         float64
	DX        float64
	DY        float64
	ShooterID string
}

// Store holds every live entity: the two fixed spawn slots, the players
// occupying them, and the knives in flight. It is a plain container; the
// Game serializes all access to it.
type Store struct {
	players map[string]*Player
	slots   map[SlotID]opt.Option[string]
	knives  map[string]*Knife

	// Insertion order of live knives, so ticks process them deterministically.
	knifeOrder []string
	nextKnife  uint64
}

func NewStore() *Store {
	return &Store{
		players: make(map[string]*Player),
		slots: map[SlotID]opt.Option[string]{
			SlotTop:    opt.None[string](),
			SlotBottom: opt.None[string](),
		},
		knives: make(map[string]*Knife),
	}
}

// AddPlayer occupies the slot and creates (or overwrites) the player record.
// It fails if the slot is held by a different player.
func (s *Store) AddPlayer(id string, x float64, y float64, slot SlotID) (*Player, error) {
	occupant := s.slots[slot]
	if opt.IsSome(occupant) && occupant.Value != id {
		return nil, fmt.Errorf("slot %s is occupied by %s", slot, occupant.Value)
	}

	player := &Player{
		ID:   id,
		X:    x,
		Y:    y,
		Slot: slot,
	}
	s.players[id] = player
	s.slots[slot] = opt.Some(id)
	return player, nil
}

// RemovePlayer drops the player record and frees any slot referencing it.
// It is a no-op for unknown ids.
func (s *Store) RemovePlayer(id string) {
	delete(s.players, id)
	s.ClearSlotOf(id)
}

// ClearSlotOf vacates whichever slot the player holds, leaving the player
// record (if any) alone.
func (s *Store) ClearSlotOf(id string) {
	for slot, occupant := range s.slots {
		if opt.IsSome(occupant) && occupant.Value == id {
			s.slots[slot] = opt.None[string]()
		}
	}
}

func (s *Store) Player(id string) (*Player, bool) {
	player, ok := s.players[id]
	return player, ok
}

// PlayersInSlotOrder lists live players top-first.
func (s *Store) PlayersInSlotOrder() []*Player {
	players := make([]*Player, 0, len(s.players))
	for _, slot := range slotOrder {
		occupant := s.slots[slot]
		if opt.IsNone(occupant) {
			continue
		}
		if player, ok := s.players[occupant.Value]; ok {
			players = append(players, player)
		}
	}
	return players
}

func (s *Store) NumPlayers() int {
	return len(s.players)
}

func (s *Store) Occupant(slot SlotID) opt.Option[string] {
	return s.slots[slot]
}

func (s *Store) BothSlotsFilled() bool {
	return opt.IsSome(s.slots[SlotTop]) && opt.IsSome(s.slots[SlotBottom])
}

// AddKnife registers a knife, generating a monotonic id when the caller did
// not provide one.
func (s *Store) AddKnife(knife Knife) *Knife {
	if knife.ID == "" {
		s.nextKnife++
		knife.ID = "k" + strconv.FormatUint(s.nextKnife, 10)
	}

	if _, ok := s.knives[knife.ID]; !ok {
		s.knifeOrder = append(s.knifeOrder, knife.ID)
	}

	added := knife
	s.knives[knife.ID] = &added
	return &added
}

// RemoveKnife reports whether the knife was still live. Removing an absent
// knife is not an error.
func (s *Store) RemoveKnife(id string) bool {
	if _, ok := s.knives[id]; !ok {
		return false
	}

	delete(s.knives, id)
	for i, knifeID := range s.knifeOrder {
		if knifeID == id {
			s.knifeOrder = append(s.knifeOrder[:i], s.knifeOrder[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Knife(id string) (*Knife, bool) {
	knife, ok := s.knives[id]
	return knife, ok
}

// Knives lists live knives in insertion order.
func (s *Store) Knives() []*Knife {
	knives := make([]*Knife, 0, len(s.knives))
	for _, id := range s.knifeOrder {
		knives = append(knives, s.knives[id])
	}
	return knives
}

func (s *Store) NumKnives() int {
	return len(s.knives)
}

// Reset vacates both slots and drops all players and knives. Knife id
// generation is deliberately not reset so ids stay unique across matches.
func (s *Store) Reset() {
	s.players = make(map[string]*Player)
	s.knives = make(map[string]*Knife)
	s.knifeOrder = nil
	for slot := range s.slots {
		s.slots[slot] = opt.None[string]()
	}
}

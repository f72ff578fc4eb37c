package protocol

type Op int

const (
	// Client -> server
	RequestSpawnOp Op = iota
	MoveOp
	ThrowKnifeOp
	DestroyKnifeOp
	// Client -> server OR server -> client
	KnifeHitOp
	PointsUpdateOp
	// Server -> client
	SpawnSlotsUpdateOp
	PlayersOp
	PlayerJoinedOp
	PlayerLeftOp
	PlayerMovedOp
	KnivesUpdateOp
	KnifeFiredOp
	KnifeDestroyedOp
	GameTimerUpdateOp
	GameEndOp
	SpawnRejectedOp
)

// Structured reasons for spawn rejections. These are policy outcomes, not
// errors; they only ever go to the requesting connection.
const (
	ReasonSlotOccupied   = "slot_occupied"
	ReasonGameInProgress = "game_in_progress"
)

// Message is the closed set of events that cross the wire. Every event is a
// struct tagged with its Op.
type Message interface {
	MessageOp() Op
}

type Player struct {
	ID     string
	X      float64
	Y      float64
	Points int
	Slot   string
}

type Knife struct {
	ID        string
	X         float64
	Y         float64
	DX        float64
	DY        float64
	ShooterID string
}

// A client asking to occupy (or toggle out of) a spawn slot.
type RequestSpawn struct {
	Position string
}

func (RequestSpawn) MessageOp() Op { return RequestSpawnOp }

type Move struct {
	X float64
	Y float64
}

func (Move) MessageOp() Op { return MoveOp }

// A client throwing a knife. The id is the client's locally-predicted one so
// the sender can reconcile its own projectile when the fire is echoed back.
type ThrowKnife struct {
	Knife Knife
}

func (ThrowKnife) MessageOp() Op { return ThrowKnifeOp }

type DestroyKnife struct {
	KnifeID string
}

func (DestroyKnife) MessageOp() Op { return DestroyKnifeOp }

type KnifeHit struct {
	KnifeID     string
	HitPlayerID string
	ShooterID   string
}

func (KnifeHit) MessageOp() Op { return KnifeHitOp }

type PointsUpdate struct {
	PlayerID string
	Points   int
}

func (PointsUpdate) MessageOp() Op { return PointsUpdateOp }

// Occupant ids for both slots; nil means vacant.
type SpawnSlotsUpdate struct {
	Top    *string
	Bottom *string
}

func (SpawnSlotsUpdate) MessageOp() Op { return SpawnSlotsUpdateOp }

// The full roster, keyed by player id.
type Players struct {
	Players map[string]Player
}

func (Players) MessageOp() Op { return PlayersOp }

type PlayerJoined struct {
	Player Player
}

func (PlayerJoined) MessageOp() Op { return PlayerJoinedOp }

type PlayerLeft struct {
	IDs []string
}

func (PlayerLeft) MessageOp() Op { return PlayerLeftOp }

type PlayerMoved struct {
	ID string
	X  float64
	Y  float64
}

func (PlayerMoved) MessageOp() Op { return PlayerMovedOp }

// The authoritative knife list; clients replace their state wholesale.
type KnivesUpdate struct {
	Knives []Knife
}

func (KnivesUpdate) MessageOp() Op { return KnivesUpdateOp }

type KnifeFired struct {
	Knife Knife
}

func (KnifeFired) MessageOp() Op { return KnifeFiredOp }

type KnifeDestroyed struct {
	KnifeID string
}

func (KnifeDestroyed) MessageOp() Op { return KnifeDestroyedOp }

type GameTimerUpdate struct {
	Seconds int
}

func (GameTimerUpdate) MessageOp() Op { return GameTimerUpdateOp }

// Final scores, keyed by player id.
type GameEnd struct {
	Scores map[string]int
}

func (GameEnd) MessageOp() Op { return GameEndOp }

type SpawnRejected struct {
	Position string
	Reason   string
}

func (SpawnRejected) MessageOp() Op { return SpawnRejectedOp }

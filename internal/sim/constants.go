package sim

import "time"

// Fixed-timestep tuning.
const (
	// StepSeconds is the fixed physics step (60 Hz).
	StepSeconds = 1.0 / 60.0

	// MaxFrameDelta caps the wall time accumulated per frame so a long
	// stall never schedules an unbounded catch-up burst.
	MaxFrameDelta = 200 * time.Millisecond

	// FramePeriod drives the frame ticker.
	FramePeriod = 16 * time.Millisecond

	// Step budget tiers, keyed on the raw (uncapped) frame elapsed.
	// Under normal load the full budget applies; sustained spikes degrade
	// to 2 then 1 step per frame.
	FullStepBudget    = 4
	ReducedStepBudget = 2
	MinStepBudget     = 1

	ReducedBudgetThreshold = 300 * time.Millisecond
	MinBudgetThreshold     = 600 * time.Millisecond
)

// Board geometry. Units are abstract pixels; y grows downward.
const (
	BoardWidth  = 480.0
	BoardHeight = 640.0

	BallRadius = 8.0
	PegRadius  = 4.0

	// SpawnY is the vertical drop-in line; SpawnJitter bounds the random
	// horizontal offset from board center.
	SpawnY      = 24.0
	SpawnJitter = 180.0

	// KillY removes unscored bodies that fell past the board.
	KillY = BoardHeight + 60.0

	SlotCount = 13
	SlotY     = BoardHeight - 24.0
)

// Physics tuning.
const (
	Gravity     = 900.0 // px/s^2
	Restitution = 0.55

	// Velocity safety clamps: horizontal first, then total speed
	// preserving direction.
	MaxHorizontalSpeed = 420.0
	MaxSpeed           = 900.0
)

// Scoring.
const (
	// PointScale converts a slot multiplier into points.
	PointScale = 100

	// RemoveDelaySeconds keeps a scored body in the world briefly so
	// clients can play feedback before it disappears.
	RemoveDelaySeconds = 0.5
)

// Spawn fan-out.
const (
	// FanOutDiamondDivisor grants one extra drop per this many diamonds.
	FanOutDiamondDivisor = 50
	MaxFanOut            = 5

	// SpawnQueueSize bounds pending spawn requests; the frame loop is
	// never blocked by enqueue.
	SpawnQueueSize = 256
)

// Log message constants
const (
	LogMsgLoopStarted       = "simulation loop started"
	LogMsgLoopStopped       = "simulation loop stopped"
	LogMsgSpawnQueueFull    = "spawn queue full, dropping request"
	LogMsgBodyScored        = "body scored"
	LogMsgQualityTierChange = "presentation quality tier changed"
)

package sim

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/metrics"
)

// Body is one falling ball. Scored flips false to true at most once over
// its lifetime; once set, further slot contact awards nothing.
type Body struct {
	ID        string
	Owner     string
	AvatarURL string
	Pos       Vec2
	Vel       Vec2
	Radius    float64
	Scored    bool

	// removeAt is sim-time after which a scored body leaves the world.
	// Zero means no removal scheduled.
	removeAt float64
}

// ScoreSink receives the single score increment a body produces.
type ScoreSink interface {
	Award(username, avatarURL string, slotIndex int, points int64)
}

type spawnRequest struct {
	owner     string
	avatarURL string
}

// Loop owns the full simulation state. Bodies live in a map keyed by
// stable IDs; all mutation happens on the frame goroutine, so the struct
// needs no locking beyond the spawn queue channel.
type Loop struct {
	board *Board
	sink  ScoreSink
	rng   *rand.Rand

	bodies map[string]*Body
	spawns chan spawnRequest

	simTime     float64
	accumulator float64
	lastFrame   time.Time

	quality *AdaptiveQuality
}

// NewLoop creates a simulation loop scoring into sink.
func NewLoop(board *Board, sink ScoreSink) *Loop {
	return &Loop{
		board:   board,
		sink:    sink,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		bodies:  make(map[string]*Body),
		spawns:  make(chan spawnRequest, SpawnQueueSize),
		quality: NewAdaptiveQuality(),
	}
}

// Quality exposes the presentation-quality controller.
func (l *Loop) Quality() *AdaptiveQuality { return l.quality }

// BodyCount reports live bodies; frame-goroutine use only.
func (l *Loop) BodyCount() int { return len(l.bodies) }

// HandleSpawn converts one consumed spawn event into 1..MaxFanOut body
// requests. It never blocks: when the queue is full the request is
// dropped, which only costs presentation, never leaderboard correctness
// beyond the dropped drop itself.
func (l *Loop) HandleSpawn(ctx context.Context, evt domain.SpawnEvent) {
	n := fanOutFor(evt.Command)
	for i := 0; i < n; i++ {
		select {
		case l.spawns <- spawnRequest{owner: evt.Username, avatarURL: evt.AvatarURL}:
		default:
			logger.FromContext(ctx).Warn(LogMsgSpawnQueueFull, "username", evt.Username)
			return
		}
	}
}

// fanOutFor derives the drop count from the spawn command. Chat drops are
// always 1; gift commands carry a diamond count in their last segment and
// earn an extra drop per FanOutDiamondDivisor diamonds, capped.
func fanOutFor(command string) int {
	if !strings.HasPrefix(command, "gift:") {
		return 1
	}
	parts := strings.Split(command, ":")
	diamonds, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || diamonds < 0 {
		return 1
	}
	n := 1 + diamonds/FanOutDiamondDivisor
	if n > MaxFanOut {
		n = MaxFanOut
	}
	return n
}

// Run drives frames on a fixed ticker until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgLoopStarted, "step_ms", StepSeconds*1000, "slots", SlotCount)
	defer log.Info(LogMsgLoopStopped)

	l.lastFrame = time.Now()
	ticker := time.NewTicker(FramePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := time.Now()
			l.Frame(ctx, now)
			cost := time.Since(start)
			metrics.FrameDuration.Observe(cost.Seconds())
			l.quality.Observe(ctx, cost)
		}
	}
}

// Frame advances the simulation for one real frame at wall time now and
// returns the number of fixed steps executed. Elapsed time is capped at
// MaxFrameDelta before accumulation, and at most maxStepsFor(raw elapsed)
// fixed steps execute; leftover accumulated time beyond one step is
// discarded rather than carried into a growing debt.
func (l *Loop) Frame(ctx context.Context, now time.Time) int {
	raw := now.Sub(l.lastFrame)
	l.lastFrame = now
	if raw < 0 {
		raw = 0
	}

	capped := raw
	if capped > MaxFrameDelta {
		capped = MaxFrameDelta
	}
	l.accumulator += capped.Seconds()

	l.drainSpawns(ctx)

	budget := maxStepsFor(raw)
	steps := 0
	for l.accumulator >= StepSeconds && steps < budget {
		l.step(ctx, StepSeconds)
		l.accumulator -= StepSeconds
		steps++
	}
	if l.accumulator > StepSeconds {
		l.accumulator = StepSeconds
	}
	return steps
}

// maxStepsFor returns the per-frame step budget for a raw frame elapsed.
func maxStepsFor(elapsed time.Duration) int {
	switch {
	case elapsed <= ReducedBudgetThreshold:
		return FullStepBudget
	case elapsed <= MinBudgetThreshold:
		return ReducedStepBudget
	default:
		return MinStepBudget
	}
}

func (l *Loop) drainSpawns(ctx context.Context) {
	for {
		select {
		case req := <-l.spawns:
			l.spawnBody(req)
		default:
			return
		}
	}
}

func (l *Loop) spawnBody(req spawnRequest) {
	x := BoardWidth/2 + (l.rng.Float64()*2-1)*SpawnJitter
	body := &Body{
		ID:        uuid.NewString(),
		Owner:     req.owner,
		AvatarURL: req.avatarURL,
		Pos:       Vec2{X: x, Y: SpawnY},
		Radius:    BallRadius,
	}
	l.bodies[body.ID] = body
	metrics.BodiesSpawned.Inc()
}

func (l *Loop) step(ctx context.Context, dt float64) {
	l.simTime += dt

	var removals []string
	for id, body := range l.bodies {
		l.integrate(body, dt)
		l.collidePegs(body)
		l.collideWalls(body)
		l.clampVelocity(body)

		if !body.Scored && body.Pos.Y+body.Radius >= SlotY {
			l.scoreBody(ctx, body)
		}

		if body.Scored && body.removeAt > 0 && l.simTime >= body.removeAt {
			removals = append(removals, id)
			continue
		}
		if !body.Scored && body.Pos.Y > KillY {
			removals = append(removals, id)
		}
	}
	for _, id := range removals {
		delete(l.bodies, id)
	}
}

func (l *Loop) integrate(body *Body, dt float64) {
	body.Vel.Y += Gravity * dt
	body.Pos.X += body.Vel.X * dt
	body.Pos.Y += body.Vel.Y * dt
}

func (l *Loop) collidePegs(body *Body) {
	for i := range l.board.Pegs {
		peg := &l.board.Pegs[i]
		dx := body.Pos.X - peg.Pos.X
		dy := body.Pos.Y - peg.Pos.Y
		minDist := body.Radius + peg.Radius
		distSq := dx*dx + dy*dy
		if distSq >= minDist*minDist || distSq == 0 {
			continue
		}

		dist := math.Sqrt(distSq)
		nx, ny := dx/dist, dy/dist

		// Push out of the peg, then reflect the velocity about the
		// contact normal with restitution.
		body.Pos.X = peg.Pos.X + nx*minDist
		body.Pos.Y = peg.Pos.Y + ny*minDist

		dot := body.Vel.X*nx + body.Vel.Y*ny
		if dot < 0 {
			body.Vel.X -= (1 + Restitution) * dot * nx
			body.Vel.Y -= (1 + Restitution) * dot * ny
		}
	}
}

func (l *Loop) collideWalls(body *Body) {
	if body.Pos.X-body.Radius < 0 {
		body.Pos.X = body.Radius
		if body.Vel.X < 0 {
			body.Vel.X = -body.Vel.X * Restitution
		}
	}
	if body.Pos.X+body.Radius > BoardWidth {
		body.Pos.X = BoardWidth - body.Radius
		if body.Vel.X > 0 {
			body.Vel.X = -body.Vel.X * Restitution
		}
	}
}

// clampVelocity applies the safety clamps: horizontal speed first, then
// total speed preserving direction.
func (l *Loop) clampVelocity(body *Body) {
	if body.Vel.X > MaxHorizontalSpeed {
		body.Vel.X = MaxHorizontalSpeed
	} else if body.Vel.X < -MaxHorizontalSpeed {
		body.Vel.X = -MaxHorizontalSpeed
	}

	speed := math.Hypot(body.Vel.X, body.Vel.Y)
	if speed > MaxSpeed {
		scale := MaxSpeed / speed
		body.Vel.X *= scale
		body.Vel.Y *= scale
	}
}

func (l *Loop) scoreBody(ctx context.Context, body *Body) {
	slot := l.board.SlotAt(body.Pos.X)
	if slot == nil {
		return
	}

	body.Scored = true
	body.removeAt = l.simTime + RemoveDelaySeconds

	metrics.ScoresAwarded.WithLabelValues(strconv.Itoa(slot.Index)).Inc()
	metrics.PointsAwarded.Add(float64(slot.PointValue))
	logger.FromContext(ctx).Debug(LogMsgBodyScored,
		"owner", body.Owner, "slot", slot.Index, "points", slot.PointValue)

	l.sink.Award(body.Owner, body.AvatarURL, slot.Index, slot.PointValue)
}

// Snapshot returns the live bodies sorted by ID, for status surfaces and
// tests. Frame-goroutine use only.
func (l *Loop) Snapshot() []Body {
	out := make([]Body, 0, len(l.bodies))
	for _, body := range l.bodies {
		out = append(out, *body)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

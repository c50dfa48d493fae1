package gate

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWrongResponder is returned when someone other than the
	// challenged member presses an answer button. The challenge is
	// left untouched.
	ErrWrongResponder = errors.New("only the challenged member can answer")
	// ErrAlreadyResolved is returned when an answer loses the removal
	// race against the timeout (or another event). The submission is a
	// stale duplicate and must be dropped without user feedback.
	ErrAlreadyResolved = errors.New("challenge already resolved")
)

// Gateway is the chat-platform capability surface the gate needs. All
// calls are best-effort: a failure is logged by the gate and never
// reopens a finished challenge.
type Gateway interface {
	Restrict(chatID, userID int64, canSend bool) error
	RemoveMember(chatID, userID int64) error
	PostChallenge(c Challenge, question string, options []int, attemptsLeft int) (int32, error)
	EditChallenge(c Challenge, question string, options []int, attemptsLeft int) error
	AnnounceOutcome(c Challenge, outcome Outcome) error
}

// OutcomeSink receives one terminal record per resolved challenge.
type OutcomeSink interface {
	RecordOutcome(userID, chatID int64, outcome Outcome, at time.Time)
}

// StateStore persists the per-chat protection flag so it survives
// restarts. Pending challenges are deliberately not persisted.
type StateStore interface {
	SetProtection(chatID int64, title string, enabled bool, adminID int64) error
	ProtectedChats() ([]int64, error)
}

type Config struct {
	// Timeout is how long a member has to solve the captcha.
	Timeout time.Duration
	// MaxAttempts is the number of wrong answers before eviction.
	MaxAttempts int
}

const (
	DefaultTimeout     = 30 * time.Minute
	DefaultMaxAttempts = 2
)

// Result reports what SubmitAnswer did. Outcome is empty when the
// challenge is still pending (wrong answer below the limit).
type Result struct {
	Outcome      Outcome
	AttemptsLeft int
}

// Gate owns the challenge lifecycle: creation on join, resolution on
// answer or timeout, and bulk cancellation on protection disable.
type Gate struct {
	cfg      Config
	registry *Registry
	sched    *Scheduler
	gateway  Gateway
	sink     OutcomeSink
	store    StateStore
	log      *zap.Logger

	mu        sync.RWMutex
	protected map[int64]bool
}

func New(cfg Config, gw Gateway, sink OutcomeSink, store StateStore, log *zap.Logger) *Gate {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Gate{
		cfg:       cfg,
		registry:  NewRegistry(),
		sched:     NewScheduler(),
		gateway:   gw,
		sink:      sink,
		store:     store,
		log:       log,
		protected: make(map[int64]bool),
	}
}

// LoadProtectionCache repopulates the toggle cache from the store.
// Called once at startup.
func (g *Gate) LoadProtectionCache() error {
	chats, err := g.store.ProtectedChats()
	if err != nil {
		return err
	}

	g.mu.Lock()
	for _, chatID := range chats {
		g.protected[chatID] = true
	}
	g.mu.Unlock()

	g.log.Info("loaded protection state", zap.Int("chats", len(chats)))
	return nil
}

func (g *Gate) Enabled(chatID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.protected[chatID]
}

// Enable turns protection on for the chat. The caller has already
// authorized the actor; adminID is recorded as the activating admin.
func (g *Gate) Enable(chatID int64, title string, adminID int64) error {
	if err := g.store.SetProtection(chatID, title, true, adminID); err != nil {
		return err
	}

	g.mu.Lock()
	g.protected[chatID] = true
	g.mu.Unlock()

	g.log.Info("protection enabled", zap.Int64("chat", chatID), zap.Int64("admin", adminID))
	return nil
}

// Disable turns protection off and abandons every pending challenge in
// the chat. Registry removal happens before timer cancellation so a
// timer that already fired finds nothing and no-ops. Members stay
// muted; no outcome is recorded for abandoned challenges.
func (g *Gate) Disable(chatID int64, title string, adminID int64) error {
	if err := g.store.SetProtection(chatID, title, false, adminID); err != nil {
		return err
	}

	g.mu.Lock()
	delete(g.protected, chatID)
	g.mu.Unlock()

	removed := g.registry.RemoveAllForChat(chatID)
	for _, c := range removed {
		c.kickTimer.Cancel()
	}

	g.log.Info("protection disabled",
		zap.Int64("chat", chatID),
		zap.Int("abandoned", len(removed)))
	return nil
}

// MemberJoined gates a new member: mutes them, posts a captcha and
// arms the eviction timer. No-op for bots, unprotected chats and
// members who are already gated.
func (g *Gate) MemberJoined(chatID, userID int64, name string, isBot bool) error {
	if isBot || !g.Enabled(chatID) {
		return nil
	}

	question, answer := GenerateCaptcha()
	c := NewChallenge(chatID, userID, name, answer)

	if err := g.registry.Create(c); err != nil {
		return err
	}

	if err := g.gateway.Restrict(chatID, userID, false); err != nil {
		g.logGatewayErr("mute", chatID, userID, err)
	}

	msgID, err := g.gateway.PostChallenge(*c, question, GenerateOptions(answer), g.cfg.MaxAttempts)
	if err != nil {
		g.logGatewayErr("post challenge", chatID, userID, err)
	}

	key := c.key()
	timer := g.sched.Arm(g.cfg.Timeout, func() { g.expire(key) })

	if _, _, err := g.registry.Update(key, func(c *Challenge) bool {
		c.MessageID = msgID
		c.kickTimer = timer
		return false
	}); err != nil {
		// Resolved before we could attach the timer (disable raced the
		// join); the armed timer would fire into an empty registry, but
		// cancel it anyway.
		timer.Cancel()
		return nil
	}

	g.log.Info("challenge created",
		zap.Int64("chat", chatID),
		zap.Int64("user", userID),
		zap.String("instance", c.Instance.String()))
	return nil
}

// SubmitAnswer drives the resolver state machine for one button press.
func (g *Gate) SubmitAnswer(chatID, responderID, targetID int64, chosen int) (Result, error) {
	key := Key{ChatID: chatID, UserID: targetID}

	c, err := g.registry.Get(key)
	if err != nil {
		return Result{}, err
	}
	if responderID != targetID {
		return Result{}, ErrWrongResponder
	}

	if chosen == c.Answer {
		return g.resolveSuccess(key)
	}
	return g.resolveWrong(key)
}

func (g *Gate) resolveSuccess(key Key) (Result, error) {
	c, err := g.registry.Remove(key)
	if err != nil {
		// Lost the race, the timeout (or a disable) got there first.
		return Result{}, ErrAlreadyResolved
	}
	c.kickTimer.Cancel()

	if err := g.gateway.Restrict(c.ChatID, c.UserID, true); err != nil {
		g.logGatewayErr("restore permissions", c.ChatID, c.UserID, err)
	}
	if err := g.gateway.AnnounceOutcome(c, OutcomeSuccess); err != nil {
		g.logGatewayErr("announce success", c.ChatID, c.UserID, err)
	}
	g.sink.RecordOutcome(c.UserID, c.ChatID, OutcomeSuccess, time.Now())

	g.log.Info("challenge solved",
		zap.Int64("chat", c.ChatID),
		zap.Int64("user", c.UserID),
		zap.String("instance", c.Instance.String()))
	return Result{Outcome: OutcomeSuccess}, nil
}

func (g *Gate) resolveWrong(key Key) (Result, error) {
	question, answer := GenerateCaptcha()

	c, kicked, err := g.registry.Update(key, func(c *Challenge) bool {
		c.Attempts++
		if c.Attempts >= g.cfg.MaxAttempts {
			return true
		}
		c.Answer = answer
		return false
	})
	if err != nil {
		return Result{}, ErrAlreadyResolved
	}

	if kicked {
		c.kickTimer.Cancel()

		if err := g.gateway.RemoveMember(c.ChatID, c.UserID); err != nil {
			g.logGatewayErr("kick", c.ChatID, c.UserID, err)
		}
		if err := g.gateway.AnnounceOutcome(c, OutcomeKicked); err != nil {
			g.logGatewayErr("announce kick", c.ChatID, c.UserID, err)
		}
		g.sink.RecordOutcome(c.UserID, c.ChatID, OutcomeKicked, time.Now())

		g.log.Info("challenge failed, member kicked",
			zap.Int64("chat", c.ChatID),
			zap.Int64("user", c.UserID),
			zap.String("instance", c.Instance.String()))
		return Result{Outcome: OutcomeKicked}, nil
	}

	left := g.cfg.MaxAttempts - c.Attempts
	if err := g.gateway.EditChallenge(c, question, GenerateOptions(answer), left); err != nil {
		g.logGatewayErr("edit challenge", c.ChatID, c.UserID, err)
	}
	return Result{AttemptsLeft: left}, nil
}

// expire is the timeout eviction path. It goes through the registry's
// atomic remove, so it is a no-op when the resolver already won.
func (g *Gate) expire(key Key) {
	c, err := g.registry.Remove(key)
	if err != nil {
		return
	}

	if err := g.gateway.RemoveMember(c.ChatID, c.UserID); err != nil {
		g.logGatewayErr("kick on timeout", c.ChatID, c.UserID, err)
	}
	if err := g.gateway.AnnounceOutcome(c, OutcomeTimeout); err != nil {
		g.logGatewayErr("announce timeout", c.ChatID, c.UserID, err)
	}
	g.sink.RecordOutcome(c.UserID, c.ChatID, OutcomeTimeout, time.Now())

	g.log.Info("challenge timed out",
		zap.Int64("chat", c.ChatID),
		zap.Int64("user", c.UserID),
		zap.String("instance", c.Instance.String()))
}

// Pending reports how many challenges are outstanding.
func (g *Gate) Pending() int {
	return g.registry.Len()
}

// IsPending reports whether the member is currently gated in the chat.
func (g *Gate) IsPending(chatID, userID int64) bool {
	_, err := g.registry.Get(Key{ChatID: chatID, UserID: userID})
	return err == nil
}

func (g *Gate) logGatewayErr(op string, chatID, userID int64, err error) {
	g.log.Error("gateway call failed",
		zap.String("op", op),
		zap.Int64("chat", chatID),
		zap.Int64("user", userID),
		zap.Error(err))
}

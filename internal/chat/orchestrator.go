package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentide/internal/action"
	"agentide/internal/executor"
	"agentide/internal/llm"
	"agentide/internal/mode"
	"agentide/internal/notify"
)

// DefaultRequestTimeout bounds one backend call.
const DefaultRequestTimeout = 120 * time.Second

var (
	ErrBusy  = errors.New("a chat request is already in flight")
	ErrEmpty = errors.New("message is empty")
)

// Backend produces the assistant reply for a conversation.
type Backend interface {
	Send(ctx context.Context, msgs []llm.Message) (string, error)
}

// Runner executes a parsed batch of actions.
type Runner interface {
	Run(ctx context.Context, actions []*action.Action) executor.Report
}

// Completion is the single value a background request posts back.
type Completion struct {
	Seq      uint64
	Reply    string
	Err      error
	Duration time.Duration
}

// Outcome is what applying a Completion did.
type Outcome struct {
	Reply   string
	Err     error
	Parsed  action.Parsed
	Report  *executor.Report
	Applied bool
}

// Orchestrator owns the conversation and at most one in-flight backend
// request. Every method except the background task runs on the interactive
// loop; the task only writes its Completion to a single-slot channel.
type Orchestrator struct {
	backend  Backend
	runner   Runner
	modes    mode.Reader
	notifier notify.Notifier
	logger   *zap.Logger

	ctx        context.Context
	timeout    time.Duration
	sessionID  string
	conv       *Conversation
	transcript *Transcript

	results chan Completion
	pending bool
	seq     uint64
	started time.Time
	cancel  context.CancelFunc
}

type options struct {
	logger       *zap.Logger
	ctx          context.Context
	timeout      time.Duration
	historyLimit int
	systemPrompt string
	stateDir     string
	sessionID    string
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithContext sets the parent of every request context.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithHistoryLimit(n int) Option {
	return func(o *options) { o.historyLimit = n }
}

func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.systemPrompt = prompt }
}

// WithTranscriptDir records the conversation under dir/sessions.
func WithTranscriptDir(dir string) Option {
	return func(o *options) { o.stateDir = dir }
}

func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

func New(backend Backend, runner Runner, modes mode.Reader, notifier notify.Notifier, opts ...Option) *Orchestrator {
	o := options{
		logger:  zap.NewNop(),
		ctx:     context.Background(),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if o.timeout <= 0 {
		o.timeout = DefaultRequestTimeout
	}
	if strings.TrimSpace(o.sessionID) == "" {
		o.sessionID = uuid.NewString()
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	c := &Orchestrator{
		backend:    backend,
		runner:     runner,
		modes:      modes,
		notifier:   notifier,
		logger:     o.logger.With(zap.String("session", o.sessionID)),
		ctx:        o.ctx,
		timeout:    o.timeout,
		sessionID:  o.sessionID,
		conv:       NewConversation(o.historyLimit, o.systemPrompt),
		transcript: NewTranscript(o.stateDir, o.sessionID),
		results:    make(chan Completion, 1),
	}
	for _, m := range c.conv.Messages() {
		c.record(m)
	}
	return c
}

func (c *Orchestrator) SessionID() string {
	return c.sessionID
}

func (c *Orchestrator) TranscriptPath() string {
	return c.transcript.Path()
}

// Pending reports whether a request is in flight.
func (c *Orchestrator) Pending() bool {
	return c.pending
}

// Since returns how long the in-flight request has been running.
func (c *Orchestrator) Since() time.Duration {
	if !c.pending {
		return 0
	}
	return time.Since(c.started)
}

func (c *Orchestrator) Messages() []llm.Message {
	return c.conv.Messages()
}

func (c *Orchestrator) LastReply() (string, bool) {
	m, ok := c.conv.Last(llm.RoleAssistant)
	return m.Content, ok
}

// Clear resets the conversation to its system prompt. It is refused while a
// request is in flight so the reply cannot land in a conversation it was not
// asked from.
func (c *Orchestrator) Clear() error {
	if c.pending {
		c.notifier.Notify(notify.KindInfo, "busy: wait for the current reply")
		return ErrBusy
	}
	c.conv.Clear()
	c.notifier.Notify(notify.KindInfo, "chat cleared")
	return nil
}

// Send appends the user message and starts the backend request. While a
// request is in flight the message is rejected with ErrBusy and a busy
// notification; it is neither queued nor appended.
func (c *Orchestrator) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	if c.pending {
		c.notifier.Notify(notify.KindInfo, "busy: waiting for the previous reply")
		return ErrBusy
	}
	if c.backend == nil {
		c.notifier.Notify(notify.KindInfo, "chat unavailable: no backend configured")
		return errors.New("no chat backend configured")
	}

	c.append(llm.Message{Role: llm.RoleUser, Content: text, Time: time.Now().UTC()})
	c.pending = true
	c.seq++
	c.started = time.Now()

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	c.cancel = cancel
	go c.request(ctx, c.seq, c.conv.Messages())
	c.logger.Debug("chat request started", zap.Uint64("seq", c.seq), zap.Int("messages", c.conv.Len()))
	return nil
}

func (c *Orchestrator) request(ctx context.Context, seq uint64, msgs []llm.Message) {
	start := time.Now()
	reply, err := c.backend.Send(ctx, msgs)
	c.results <- Completion{Seq: seq, Reply: reply, Err: err, Duration: time.Since(start)}
}

// Results is the channel the loop waits on for the next Completion.
func (c *Orchestrator) Results() <-chan Completion {
	return c.results
}

// Poll returns a Completion if one is ready without blocking.
func (c *Orchestrator) Poll() (Completion, bool) {
	select {
	case done := <-c.results:
		return done, true
	default:
		return Completion{}, false
	}
}

// Complete applies a Completion on the loop. A failed request leaves the
// conversation untouched and raises one notification. A reply is appended
// and, in agentic mode only, its action blocks are parsed and executed and
// the report is appended as a system message.
func (c *Orchestrator) Complete(ctx context.Context, done Completion) Outcome {
	if !c.pending || done.Seq != c.seq {
		c.logger.Warn("dropping stale chat completion", zap.Uint64("seq", done.Seq), zap.Uint64("want", c.seq))
		return Outcome{}
	}
	c.pending = false
	c.release()

	if done.Err == nil && strings.TrimSpace(done.Reply) == "" {
		done.Err = llm.ErrEmptyResponse
	}
	if done.Err != nil {
		c.notifier.Notify(notify.KindInfo, "chat failed: "+llm.Describe(done.Err))
		c.logger.Warn("chat request failed", zap.Error(done.Err), zap.Duration("duration", done.Duration))
		return Outcome{Err: done.Err, Applied: true}
	}

	c.append(llm.Message{Role: llm.RoleAssistant, Content: done.Reply, Time: time.Now().UTC()})
	c.logger.Info("chat reply received", zap.Int("bytes", len(done.Reply)), zap.Duration("duration", done.Duration))
	out := Outcome{Reply: done.Reply, Applied: true}

	if c.currentMode() != mode.Agentic {
		return out
	}
	out.Parsed = action.Parse(done.Reply)
	for _, perr := range out.Parsed.Errors {
		c.notifier.Notify(notify.KindDebug, "parse: "+perr.Error())
	}
	if len(out.Parsed.Actions) == 0 || c.runner == nil {
		return out
	}
	report := c.runner.Run(ctx, out.Parsed.Actions)
	out.Report = &report
	c.append(llm.Message{Role: llm.RoleSystem, Content: report.Format(), Time: time.Now().UTC()})
	return out
}

// Exchange runs one blocking round trip. It is the headless form of
// Send followed by Complete.
func (c *Orchestrator) Exchange(ctx context.Context, text string) (Outcome, error) {
	if err := c.Send(text); err != nil {
		return Outcome{}, err
	}
	select {
	case done := <-c.results:
		out := c.Complete(ctx, done)
		return out, out.Err
	case <-ctx.Done():
		c.abandon()
		return Outcome{}, fmt.Errorf("waiting for reply: %w", ctx.Err())
	}
}

// abandon cancels the in-flight request and discards its completion so the
// orchestrator accepts the next Send. The conversation keeps the user
// message; like a failed request, it gets no reply.
func (c *Orchestrator) abandon() {
	if !c.pending {
		return
	}
	c.release()
	done := <-c.results
	c.pending = false
	c.logger.Info("chat request abandoned", zap.Uint64("seq", done.Seq), zap.Duration("duration", done.Duration))
}

func (c *Orchestrator) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Orchestrator) currentMode() mode.Mode {
	if c.modes == nil {
		return mode.Normal
	}
	return c.modes.Current()
}

func (c *Orchestrator) append(msg llm.Message) {
	c.conv.Append(msg)
	c.record(msg)
}

func (c *Orchestrator) record(msg llm.Message) {
	if err := c.transcript.Append(msg); err != nil {
		c.logger.Warn("transcript write failed", zap.String("path", c.transcript.Path()), zap.Error(err))
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"studysync-service/internal/domain"
)

// ErrDispatcherStopped is returned by Submit once the loop has shut down.
var ErrDispatcherStopped = errors.New("dispatcher stopped")

const (
	inboxSize         = 256
	anonymousName     = "Anonymous"
	quizFailedMessage = "failed to generate quiz"
	teardownTimeout   = 5 * time.Second
)

type inbound struct {
	connID string
	event  Event
}

// Dispatcher is the room protocol state machine.
//
// Every event runs to completion on a single loop goroutine, so registry and session
// mutations together with their broadcasts never interleave. Generation calls run on their
// own goroutines and come back to the loop as completion events.
type Dispatcher struct {
	registry  RoomRegistry
	sessions  *SessionMap
	generator ContentGenerator
	locks     GenerationLocks
	defaults  domain.RoomConfig
	logger    *slog.Logger

	inbox    chan inbound
	done     chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithRoomDefaults fills quiz interval and question count when a creator omits them.
func WithRoomDefaults(cfg domain.RoomConfig) Option {
	return func(d *Dispatcher) { d.defaults = cfg }
}

func NewDispatcher(registry RoomRegistry, generator ContentGenerator, locks GenerationLocks, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		sessions:  NewSessionMap(registry),
		generator: generator,
		locks:     locks,
		defaults:  domain.RoomConfig{QuizInterval: 10, QuestionsPerQuiz: 5},
		logger:    slog.Default(),
		inbox:     make(chan inbound, inboxSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(slog.String("component", "dispatcher"))
	return d
}

// Connect registers a live connection so it can receive broadcasts.
func (d *Dispatcher) Connect(ctx context.Context, conn Sender) error {
	return d.enqueue(ctx, inbound{connID: conn.ID(), event: connected{conn: conn}})
}

// Submit queues an inbound event from connID.
func (d *Dispatcher) Submit(ctx context.Context, connID string, ev Event) error {
	return d.enqueue(ctx, inbound{connID: connID, event: ev})
}

func (d *Dispatcher) enqueue(ctx context.Context, msg inbound) error {
	select {
	case <-d.done:
		return ErrDispatcherStopped
	default:
	}
	select {
	case d.inbox <- msg:
		return nil
	case <-d.done:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post hands a completion back to the loop; dropped once the loop is gone.
func (d *Dispatcher) post(ev Event) {
	select {
	case d.inbox <- inbound{event: ev}:
	case <-d.done:
	}
}

// Run processes events until ctx is cancelled, then waits for in-flight generation and
// drops every room.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started")
	defer d.teardown(ctx)
	for {
		select {
		case msg := <-d.inbox:
			d.handle(ctx, msg)
		case <-ctx.Done():
			return nil
		}
	}
}

func (d *Dispatcher) teardown(ctx context.Context) {
	d.stopOnce.Do(func() { close(d.done) })
	d.inflight.Wait()

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	ids := d.registry.ListRoomIDs()
	for _, id := range ids {
		d.sessions.DropRoom(id)
	}
	d.registry.Clear(cleanupCtx)
	d.logger.Info("dispatcher stopped", slog.Int("rooms_dropped", len(ids)))
}

func (d *Dispatcher) handle(ctx context.Context, msg inbound) {
	switch ev := msg.event.(type) {
	case connected:
		d.sessions.Connect(ev.conn)
	case CreateRoom:
		d.createRoom(ctx, msg.connID, ev)
	case JoinRoom:
		d.joinRoom(ctx, msg.connID, ev)
	case SetName:
		d.setName(msg.connID, ev)
	case SendMessage:
		d.sendMessage(msg.connID, ev)
	case UpdateScore:
		d.updateScore(msg.connID, ev)
	case GetSections:
		d.getSections(msg.connID, ev)
	case GenerateQuiz:
		d.generateQuiz(ctx, msg.connID, ev)
	case LeaveRoom:
		d.leaveRoom(ctx, msg.connID, ev)
	case Disconnect:
		named := d.hasParticipant(msg.connID)
		if roomID, ok := d.sessions.Disconnect(msg.connID); ok {
			d.afterDeparture(ctx, roomID, named)
		}
	case sectionsGenerated:
		d.storeSections(ev)
	case quizGenerated:
		d.publishQuiz(ctx, ev)
	default:
		d.logger.Warn("unhandled event", slog.String("type", fmt.Sprintf("%T", ev)))
	}
}

func (d *Dispatcher) createRoom(ctx context.Context, connID string, ev CreateRoom) {
	cfg := d.withDefaults(ev.Config)
	room, err := d.registry.CreateRoom(ctx, ev.RoomID, cfg)
	if err != nil {
		d.sendTo(connID, RoomError{Message: err.Error()})
		return
	}
	d.logger.Info("room created", slog.String("room_id", room.ID), slog.String("conn_id", connID))

	d.bind(ctx, connID, room.ID)
	d.sendTo(connID, RoomCreated{RoomID: room.ID})

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		sections := d.generator.GenerateSections(ctx, cfg.StudyNotes)
		d.post(sectionsGenerated{room: room, creatorID: connID, sections: sections})
	}()
}

func (d *Dispatcher) storeSections(ev sectionsGenerated) {
	if !d.isLive(ev.room) {
		d.logger.Debug("dropping sections for closed room", slog.String("room_id", ev.room.ID))
		return
	}
	if !ev.room.SetSections(ev.sections) {
		return
	}
	sections := ev.room.Sections
	d.logger.Info("sections stored", slog.String("room_id", ev.room.ID), slog.Int("count", len(sections)))

	for _, member := range d.sessions.Members(ev.room.ID) {
		if member.ID() == ev.creatorID {
			member.Send(SectionsCreated(sections))
			continue
		}
		member.Send(SectionsUpdated(sections))
	}
}

func (d *Dispatcher) joinRoom(ctx context.Context, connID string, ev JoinRoom) {
	if _, ok := d.registry.GetRoom(ev.RoomID); !ok {
		d.sendTo(connID, RoomError{Message: domain.ErrRoomNotFound.Error()})
		return
	}
	d.bind(ctx, connID, ev.RoomID)
	d.sendTo(connID, RoomJoined{RoomID: ev.RoomID})
}

func (d *Dispatcher) setName(connID string, ev SetName) {
	room, ok := d.registry.GetRoom(ev.RoomID)
	if !ok {
		d.sendTo(connID, RoomError{Message: domain.ErrRoomNotFound.Error()})
		return
	}
	if err := d.sessions.SetParticipantName(connID, room.ID, ev.Name); err != nil {
		d.sendTo(connID, RoomError{Message: err.Error()})
		return
	}
	d.broadcastLeaderboard(room)
}

func (d *Dispatcher) sendMessage(connID string, ev SendMessage) {
	room, ok := d.registry.GetRoom(ev.RoomID)
	if !ok {
		d.sendTo(connID, RoomError{Message: domain.ErrRoomNotFound.Error()})
		return
	}
	name := anonymousName
	if p, ok := room.Participant(connID); ok && p.DisplayName != "" {
		name = p.DisplayName
	}
	d.broadcast(room.ID, ChatBroadcast{
		ID:   ev.Message.ID,
		Text: name + ": " + ev.Message.Text,
	})
}

func (d *Dispatcher) updateScore(connID string, ev UpdateScore) {
	room, ok := d.registry.GetRoom(ev.RoomID)
	if !ok {
		d.sendTo(connID, RoomError{Message: domain.ErrRoomNotFound.Error()})
		return
	}
	if math.IsNaN(ev.Score) || math.IsInf(ev.Score, 0) {
		d.sendTo(connID, RoomError{Message: domain.ErrInvalidScore.Error()})
		return
	}
	if err := room.SetScore(connID, ev.Score); err != nil {
		d.sendTo(connID, RoomError{Message: err.Error()})
		return
	}
	d.broadcastLeaderboard(room)
}

func (d *Dispatcher) getSections(connID string, ev GetSections) {
	sections := []domain.Section{}
	if room, ok := d.registry.GetRoom(ev.RoomID); ok && room.HasSections() {
		sections = room.Sections
	}
	d.sendTo(connID, SectionsUpdated(sections))
}

func (d *Dispatcher) generateQuiz(ctx context.Context, connID string, ev GenerateQuiz) {
	room, ok := d.registry.GetRoom(ev.RoomID)
	if !ok {
		d.sendTo(connID, QuizError{Message: domain.ErrSectionNotFound.Error()})
		return
	}
	section, ok := room.Section(ev.SectionIndex)
	if !ok {
		d.sendTo(connID, QuizError{Message: domain.ErrSectionNotFound.Error()})
		return
	}

	key := quizLockKey(room.ID, ev.SectionIndex)
	token, acquired, err := d.locks.TryAcquire(ctx, key)
	if err != nil {
		d.logger.Error("quiz lock failed", slog.String("room_id", room.ID), slog.String("error", err.Error()))
		d.sendTo(connID, QuizError{Message: quizFailedMessage})
		return
	}
	if !acquired {
		d.sendTo(connID, QuizError{Message: domain.ErrGenerationInProgress.Error()})
		return
	}

	req := domain.QuizRequest{
		SectionContent: section.Content,
		QuestionCount:  room.Config.QuestionsPerQuiz,
		SectionTitle:   section.Title,
		SectionIndex:   ev.SectionIndex,
	}
	d.logger.Info("generating quiz", slog.String("room_id", room.ID), slog.Int("section", ev.SectionIndex))

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		quiz := d.generator.GenerateQuiz(ctx, req)
		d.post(quizGenerated{
			room:         room,
			requesterID:  connID,
			sectionIndex: ev.SectionIndex,
			sectionTitle: section.Title,
			lockKey:      key,
			lockToken:    token,
			quiz:         quiz,
		})
	}()
}

func (d *Dispatcher) publishQuiz(ctx context.Context, ev quizGenerated) {
	if err := d.locks.Release(context.WithoutCancel(ctx), ev.lockKey, ev.lockToken); err != nil {
		d.logger.Warn("quiz lock release failed", slog.String("key", ev.lockKey), slog.String("error", err.Error()))
	}
	if !d.isLive(ev.room) {
		d.logger.Debug("dropping quiz for closed room", slog.String("room_id", ev.room.ID))
		return
	}
	if len(ev.quiz.Questions) == 0 {
		d.sendTo(ev.requesterID, QuizError{Message: quizFailedMessage})
		return
	}
	d.broadcast(ev.room.ID, QuizBroadcast{
		Quiz:         ev.quiz,
		SectionIndex: ev.sectionIndex,
		SectionTitle: ev.sectionTitle,
	})
}

func (d *Dispatcher) leaveRoom(ctx context.Context, connID string, ev LeaveRoom) {
	if roomID, ok := d.sessions.RoomOf(connID); !ok || roomID != ev.RoomID {
		d.sendTo(connID, RoomError{Message: domain.ErrNotInRoom.Error()})
		return
	}
	named := d.hasParticipant(connID)
	d.sessions.Unbind(connID)
	d.sendTo(connID, RoomLeft{RoomID: ev.RoomID})
	d.afterDeparture(ctx, ev.RoomID, named)
}

// bind moves connID into roomID, cleaning up whatever room it leaves behind.
func (d *Dispatcher) bind(ctx context.Context, connID, roomID string) {
	named := d.hasParticipant(connID)
	if previous, moved := d.sessions.Bind(connID, roomID); moved {
		d.afterDeparture(ctx, previous, named)
	}
}

// hasParticipant reports whether connID holds a named participant in the room it is bound to.
func (d *Dispatcher) hasParticipant(connID string) bool {
	roomID, ok := d.sessions.RoomOf(connID)
	if !ok {
		return false
	}
	room, ok := d.registry.GetRoom(roomID)
	if !ok {
		return false
	}
	_, ok = room.Participant(connID)
	return ok
}

// afterDeparture refreshes the leaderboard for whoever is left, or destroys the room when
// nobody is bound to it or the departing participant was the last one. Unnamed connections
// still bound to a destroyed room are unbound.
func (d *Dispatcher) afterDeparture(ctx context.Context, roomID string, participantLeft bool) {
	room, ok := d.registry.GetRoom(roomID)
	if !ok {
		return
	}
	lastParticipant := participantLeft && room.ParticipantCount() == 0
	if d.sessions.MemberCount(roomID) > 0 && !lastParticipant {
		d.broadcastLeaderboard(room)
		return
	}
	d.sessions.DropRoom(roomID)
	d.registry.RemoveRoom(ctx, roomID)
	d.logger.Info("room deleted due to no participants", slog.String("room_id", roomID))
	for _, conn := range d.sessions.All() {
		conn.Send(RoomDeleted{RoomID: roomID})
	}
}

func (d *Dispatcher) isLive(room *domain.Room) bool {
	current, ok := d.registry.GetRoom(room.ID)
	return ok && current == room
}

func (d *Dispatcher) broadcastLeaderboard(room *domain.Room) {
	d.broadcast(room.ID, LeaderboardUpdate(ComputeLeaderboard(room)))
}

func (d *Dispatcher) broadcast(roomID string, msg Outbound) {
	for _, conn := range d.sessions.Members(roomID) {
		conn.Send(msg)
	}
}

func (d *Dispatcher) sendTo(connID string, msg Outbound) {
	if conn, ok := d.sessions.Sender(connID); ok {
		conn.Send(msg)
	}
}

func (d *Dispatcher) withDefaults(cfg domain.RoomConfig) domain.RoomConfig {
	if cfg.QuizInterval <= 0 {
		cfg.QuizInterval = d.defaults.QuizInterval
	}
	if cfg.QuestionsPerQuiz <= 0 {
		cfg.QuestionsPerQuiz = d.defaults.QuestionsPerQuiz
	}
	return cfg
}

func quizLockKey(roomID string, sectionIndex int) string {
	return fmt.Sprintf("%s:%d", roomID, sectionIndex)
}

// Package scheduler drives debate turns. It consumes start_agent_turn and
// user_intervention events from the bus, runs the active agent's turn, and
// re-publishes the next agent's turn after a fixed delay, so client-sent and
// self-scheduled turns travel through the same entry point.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dev.helix.deliberation/internal/agents"
	"dev.helix.deliberation/internal/config"
	"dev.helix.deliberation/internal/events"
	"dev.helix.deliberation/internal/generator"
	"dev.helix.deliberation/internal/metrics"
	"dev.helix.deliberation/internal/models"
	"dev.helix.deliberation/internal/store"
)

const source = "scheduler"

// Scheduler sequences agent turns for all active debates. Turn chains for
// different debates run independently; within one debate, ordering follows
// from each turn scheduling the next only after it completes.
type Scheduler struct {
	store *store.Store
	gen   *generator.Generator
	bus   *events.Bus
	cfg   config.DebateConfig
	log   *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler wired to the store, generator, and bus.
func New(st *store.Store, gen *generator.Generator, bus *events.Bus, cfg config.DebateConfig, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:  st,
		gen:    gen,
		bus:    bus,
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the scheduler to inbound events and begins processing.
func (s *Scheduler) Start() {
	ch := s.bus.Subscribe(events.EventStartAgentTurn, events.EventUserIntervention)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				// Each event runs in its own goroutine so a slow generation
				// for one debate never stalls the others.
				s.wg.Add(1)
				go func(evt *events.Event) {
					defer s.wg.Done()
					s.dispatch(evt)
				}(evt)
			}
		}
	}()
}

// Stop cancels pending turn timers and waits for in-flight turns.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) dispatch(evt *events.Event) {
	switch evt.Type {
	case events.EventStartAgentTurn:
		payload, ok := evt.Payload.(events.StartAgentTurnPayload)
		if !ok {
			s.log.WithField("event_id", evt.ID).Warn("Malformed start_agent_turn payload")
			return
		}
		s.RunTurn(payload.DebateID, payload.Agent)
	case events.EventUserIntervention:
		payload, ok := evt.Payload.(events.InterventionPayload)
		if !ok {
			s.log.WithField("event_id", evt.ID).Warn("Malformed user_intervention payload")
			return
		}
		s.HandleIntervention(payload.DebateID, payload.Intervention)
	}
}

// RunTurn executes one agent turn: typing on, generate, append, broadcast,
// typing off, then schedule the next agent after the configured delay.
// Failures are contained at the turn boundary and reported as error events;
// they never crash the process and the failed turn is not retried.
func (s *Scheduler) RunTurn(debateID string, agent models.Persona) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TurnErrors.Inc()
			s.log.WithFields(logrus.Fields{
				"debate_id": debateID,
				"agent":     agent.Name,
				"panic":     r,
			}).Error("Turn processing failed")
			s.emitError("An error occurred while processing the agent's turn")
			s.setTyping(debateID, agent, false)
		}
	}()

	if debateID == "" || agent.Name == "" {
		s.log.Error("Missing debate_id or agent information")
		s.emitError("Missing debate_id or agent information")
		return
	}
	topic, ok := s.store.Topic(debateID)
	if !ok {
		s.log.WithField("debate_id", debateID).Error("Invalid debate ID")
		s.emitError("Invalid debate ID")
		return
	}

	s.log.WithFields(logrus.Fields{
		"debate_id": debateID,
		"agent":     agent.Name,
	}).Info("Starting agent turn")

	s.setTyping(debateID, agent, true)

	window, _ := s.store.Context(debateID, s.cfg.ContextWindow)
	content := s.gen.Generate(s.ctx, agent, window, topic)

	msg := models.NewAgentMessage(agent, content)
	s.store.Append(debateID, msg)
	metrics.TurnsCompleted.Inc()
	metrics.Messages.WithLabelValues(string(models.MessageTypeAgent)).Inc()

	s.bus.Publish(events.New(events.EventNewMessage, source, events.NewMessagePayload{
		DebateID: debateID,
		Message:  msg,
	}))
	s.setTyping(debateID, agent, false)

	s.scheduleNext(debateID, agent)
}

// scheduleNext queues the following agent's turn. An unknown current agent
// fails silently; the completed turn stands.
func (s *Scheduler) scheduleNext(debateID string, current models.Persona) {
	next, err := agents.Next(current.Name)
	if err != nil {
		s.log.WithError(err).WithField("debate_id", debateID).Error("Failed to schedule next agent")
		return
	}

	s.log.WithFields(logrus.Fields{
		"debate_id": debateID,
		"current":   current.Name,
		"next":      next.Name,
	}).Debug("Scheduling next turn")

	// Non-blocking pacing: the timer yields until the delay elapses, then
	// the next turn re-enters through the same bus entry point clients use.
	// A timer firing after shutdown is harmless; the context check and the
	// closed bus both swallow it.
	time.AfterFunc(s.cfg.TurnDelay, func() {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		s.bus.Publish(events.New(events.EventStartAgentTurn, source, events.StartAgentTurnPayload{
			DebateID: debateID,
			Agent:    next,
		}))
	})
}

// HandleIntervention appends a user intervention to the debate log and
// broadcasts it. Unknown debate ids are ignored.
func (s *Scheduler) HandleIntervention(debateID, intervention string) {
	if !s.store.Exists(debateID) {
		return
	}

	msg := models.NewIntervention(intervention)
	s.store.Append(debateID, msg)
	metrics.Messages.WithLabelValues(string(models.MessageTypeIntervention)).Inc()

	s.bus.Publish(events.New(events.EventNewIntervention, source, events.InterventionPayload{
		DebateID:     debateID,
		Intervention: intervention,
	}))
}

func (s *Scheduler) setTyping(debateID string, agent models.Persona, typing bool) {
	s.bus.Publish(events.New(events.EventTypingStatus, source, events.TypingStatusPayload{
		DebateID: debateID,
		Agent:    agent,
		IsTyping: typing,
	}))
}

func (s *Scheduler) emitError(message string) {
	s.bus.Publish(events.New(events.EventError, source, events.ErrorPayload{Message: message}))
}

package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yuchenf/nightbite/config"
)

// DecisionEvent is published after a decision row is stored, so
// downstream consumers (analytics, embedding pipelines) can follow what
// users asked for without reading the database.
type DecisionEvent struct {
	DecisionID  uint64    `json:"decision_id"`
	TimeOfDay   string    `json:"time_of_day"`
	Mood        string    `json:"mood"`
	HungerLevel string    `json:"hunger_level"`
	BudgetLevel int       `json:"budget_level"`
	Scene       string    `json:"scene"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type EventsClient struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

func NewEventsClient(cfg *config.Nats) (*EventsClient, error) {
	nc, err := nats.Connect(cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.DecisionsSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Hour * 24 * 7,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, err
	}

	return &EventsClient{conn: nc, js: js, subject: cfg.DecisionsSubject}, nil
}

func (c *EventsClient) Close() {
	c.conn.Close()
}

func (c *EventsClient) PublishDecision(event DecisionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = c.js.PublishAsync(c.subject, data)

	return err
}

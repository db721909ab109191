package mongodb

import (
	"context"
	"fmt"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionRoutingEvents = "routing_events"

// EventAdapter implements out.RoutingEventLog using MongoDB. The collection is
// append-only with a TTL index on expires_at.
type EventAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
	ttl        time.Duration
}

// NewEventAdapter creates a new routing event adapter. ttl controls how long
// audit entries are retained.
func NewEventAdapter(db *mongo.Database, ttl time.Duration) *EventAdapter {
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &EventAdapter{
		db:         db,
		collection: db.Collection(collectionRoutingEvents),
		ttl:        ttl,
	}
}

// Ensure EventAdapter implements out.RoutingEventLog
var _ out.RoutingEventLog = (*EventAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *EventAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ticket_ref", Value: 1}, {Key: "event_type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// eventDocument represents the MongoDB document structure.
type eventDocument struct {
	TicketRef   string    `bson:"ticket_ref"`
	EventType   string    `bson:"event_type"`
	Channel     string    `bson:"channel,omitempty"`
	Text        string    `bson:"text,omitempty"`
	Intent      string    `bson:"intent,omitempty"`
	Urgency     string    `bson:"urgency,omitempty"`
	Confidence  float64   `bson:"confidence,omitempty"`
	Team        string    `bson:"team,omitempty"`
	Escalate    bool      `bson:"escalate,omitempty"`
	NeedsReview bool      `bson:"needs_review,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

// Append inserts one audit entry. Entries are never updated or deleted except
// by TTL expiry.
func (a *EventAdapter) Append(ctx context.Context, evt *out.RoutingEvent) error {
	createdAt := evt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	doc := eventDocument{
		TicketRef:   evt.TicketRef,
		EventType:   evt.EventType,
		Channel:     string(evt.Channel),
		Text:        evt.Text,
		Intent:      string(evt.Intent),
		Urgency:     string(evt.Urgency),
		Confidence:  evt.Confidence,
		Team:        evt.Team,
		Escalate:    evt.Escalate,
		NeedsReview: evt.NeedsReview,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(a.ttl),
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append routing event: %w", err)
	}
	return nil
}

// ListCompleted returns up to limit routing_completed events, newest first.
func (a *EventAdapter) ListCompleted(ctx context.Context, limit int64) ([]*out.RoutingEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{"event_type": out.EventRoutingCompleted}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list routing events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*out.RoutingEvent
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode routing event: %w", err)
		}
		events = append(events, docToEvent(&doc))
	}
	return events, cursor.Err()
}

// WasReassigned reports whether a ticket_reassigned event exists for the
// ticket.
func (a *EventAdapter) WasReassigned(ctx context.Context, ticketRef string) (bool, error) {
	filter := bson.M{
		"ticket_ref": ticketRef,
		"event_type": out.EventTicketReassigned,
	}

	count, err := a.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check reassignment: %w", err)
	}
	return count > 0, nil
}

func docToEvent(doc *eventDocument) *out.RoutingEvent {
	return &out.RoutingEvent{
		TicketRef:   doc.TicketRef,
		EventType:   doc.EventType,
		Channel:     domain.Channel(doc.Channel),
		Text:        doc.Text,
		Intent:      domain.Intent(doc.Intent),
		Urgency:     domain.Urgency(doc.Urgency),
		Confidence:  doc.Confidence,
		Team:        doc.Team,
		Escalate:    doc.Escalate,
		NeedsReview: doc.NeedsReview,
		CreatedAt:   doc.CreatedAt,
	}
}

package notify

import (
	"context"
	"fmt"

	"cloud-kitchen/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument *models.Order `bson:"fullDocument"`
}

// WatchOrders forwards MongoDB change stream events on the orders collection to the hub
// until ctx is cancelled. Requires a replica set.
func WatchOrders(ctx context.Context, orders *mongo.Collection, hub *Hub, log *logrus.Entry) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := orders.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return fmt.Errorf("watch orders: %w", err)
	}
	defer stream.Close(context.Background())

	log.Info("Watching orders change stream")
	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			log.WithError(err).Warn("Could not decode change event")
			continue
		}
		hub.Publish(toEvent(ev))
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("orders change stream: %w", err)
	}
	return nil
}

func toEvent(ev changeEvent) Event {
	e := Event{OrderID: ev.DocumentKey.ID.Hex()}
	switch ev.OperationType {
	case "insert":
		e.Type = OrderCreated
	case "delete":
		e.Type = OrderDeleted
	default:
		e.Type = OrderUpdated
	}
	if ev.FullDocument != nil {
		e.Status = ev.FullDocument.Status
	}
	return e
}

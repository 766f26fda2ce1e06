package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/MR4white/tigase-mongodb/internal/identity"
	"github.com/MR4white/tigase-mongodb/internal/metrics"
	"github.com/MR4white/tigase-mongodb/internal/model"
	registrystore "github.com/MR4white/tigase-mongodb/internal/registry/store"
	"github.com/MR4white/tigase-mongodb/internal/rsm"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// msgDoc is one append-only archive record. The date field is the
// timestamp's UTC day bucket, stored at write time so conversation
// listings can group on the server side.
type msgDoc struct {
	ID        string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	OwnerID   []byte    `bson:"owner_id"`
	Buddy     string    `bson:"buddy"`
	BuddyID   []byte    `bson:"buddy_id"`
	Direction string    `bson:"direction"`
	Timestamp time.Time `bson:"ts"`
	Day       time.Time `bson:"date"`
	Type      *string   `bson:"type,omitempty"`
	Message   string    `bson:"msg"`
}

// ArchiveMessage appends one record to the archive. Failures never reach
// the caller: the ingest path is fire-and-forget, so errors are logged
// and counted instead. A lost message under store failure is the accepted
// durability level here.
func (s *MongoStore) ArchiveMessage(ctx context.Context, owner, buddy string, direction model.Direction, timestamp time.Time, payload string) {
	oid := identity.Derive(owner)
	bid := identity.Derive(buddy)

	doc := msgDoc{
		ID:        uuid.NewString(),
		Owner:     model.NormalizeJID(owner),
		OwnerID:   oid.Bytes(),
		Buddy:     model.NormalizeJID(buddy),
		BuddyID:   bid.Bytes(),
		Direction: string(direction),
		Timestamp: timestamp,
		Day:       model.DayBucket(timestamp),
		Message:   payload,
	}
	if t := payloadType(payload); t != "" {
		doc.Type = &t
	}

	if _, err := s.msgs().InsertOne(ctx, doc); err != nil {
		log.Warn("Problem adding new entry to message archive",
			"owner", doc.Owner, "buddy", doc.Buddy, "err", err)
		if metrics.ArchiveFailuresTotal != nil {
			metrics.ArchiveFailuresTotal.Inc()
		}
		return
	}
	if metrics.ArchivedMessagesTotal != nil {
		metrics.ArchivedMessagesTotal.Inc()
	}
}

// archiveFilter builds the criteria for one owner's archive, optionally
// narrowed to a buddy and an inclusive timestamp range. Zero values leave
// that part of the filter open.
func archiveFilter(owner, buddy string, start, end time.Time) bson.M {
	oid := identity.Derive(owner)
	crit := bson.M{"owner_id": oid.Bytes(), "owner": model.NormalizeJID(owner)}
	if buddy != "" {
		bid := identity.Derive(buddy)
		crit["buddy_id"] = bid.Bytes()
		crit["buddy"] = model.NormalizeJID(buddy)
	}
	tsCrit := bson.M{}
	if !start.IsZero() {
		tsCrit["$gte"] = start
	}
	if !end.IsZero() {
		tsCrit["$lte"] = end
	}
	if len(tsCrit) > 0 {
		crit["ts"] = tsCrit
	}
	return crit
}

// ListCollections lists the distinct (day bucket, buddy) groups of the
// owner's archive as synthetic conversations, ordered by (day, buddy)
// ascending and windowed by req.
//
// The total count and the returned window come from two separate
// aggregation passes; under concurrent writers they can disagree. That is
// the accepted consistency level of this query.
func (s *MongoStore) ListCollections(ctx context.Context, owner, buddy string, start, end time.Time, req rsm.Request) ([]model.Conversation, rsm.Result, error) {
	match := bson.D{{Key: "$match", Value: archiveFilter(owner, buddy, start, end)}}
	group := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: bson.D{{Key: "day", Value: "$date"}, {Key: "buddy", Value: "$buddy"}}},
		{Key: "ts", Value: bson.D{{Key: "$min", Value: "$ts"}}},
		{Key: "buddy", Value: bson.D{{Key: "$min", Value: "$buddy"}}},
	}}}

	count, err := s.countGroups(ctx, match, group)
	if err != nil {
		return nil, rsm.Result{}, err
	}

	win, err := req.Window(count)
	if err != nil {
		return nil, rsm.Result{}, err
	}
	if count == 0 || win.Limit == 0 || win.Skip >= count {
		return nil, win.Result(count, 0), nil
	}

	pipeline := mongo.Pipeline{
		match,
		group,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id.day", Value: 1}, {Key: "_id.buddy", Value: 1}}}},
	}
	if win.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: win.Skip}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$limit", Value: win.Limit}})

	cur, err := s.msgs().Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, rsm.Result{}, &registrystore.StoreError{Op: "list collections", Err: err}
	}
	defer cur.Close(ctx)

	var collections []model.Conversation
	for cur.Next(ctx) {
		var row struct {
			Buddy string    `bson:"buddy"`
			TS    time.Time `bson:"ts"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, rsm.Result{}, &registrystore.StoreError{Op: "decode collection", Err: err}
		}
		collections = append(collections, model.Conversation{Buddy: row.Buddy, Start: row.TS})
	}
	if err := cur.Err(); err != nil {
		return nil, rsm.Result{}, &registrystore.StoreError{Op: "list collections", Err: err}
	}

	return collections, win.Result(count, len(collections)), nil
}

// countGroups counts the distinct groups produced by the match+group
// stages by appending a counting group stage.
func (s *MongoStore) countGroups(ctx context.Context, match, group bson.D) (int, error) {
	pipeline := mongo.Pipeline{
		match,
		group,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.msgs().Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return 0, &registrystore.StoreError{Op: "count collections", Err: err}
	}
	defer cur.Close(ctx)

	count := 0
	if cur.Next(ctx) {
		var row struct {
			Count int64 `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, &registrystore.StoreError{Op: "decode collection count", Err: err}
		}
		count = int(row.Count)
	}
	if err := cur.Err(); err != nil {
		return 0, &registrystore.StoreError{Op: "count collections", Err: err}
	}
	return count, nil
}

// ListMessages lists one conversation's message fragments ordered by
// timestamp ascending, windowed by req. A stored record whose payload
// encodes several top-level elements yields one item per element, each
// carrying the record's timestamp and direction; repeated fragments are
// returned as often as stored.
//
// The count pass and the fetch pass are separate store calls and can
// disagree under concurrent writers; see ListCollections.
func (s *MongoStore) ListMessages(ctx context.Context, owner, buddy string, start, end time.Time, req rsm.Request) ([]model.MessageItem, rsm.Result, error) {
	crit := archiveFilter(owner, buddy, start, end)

	n, err := s.msgs().CountDocuments(ctx, crit)
	if err != nil {
		return nil, rsm.Result{}, &registrystore.StoreError{Op: "count messages", Err: err}
	}
	count := int(n)

	win, err := req.Window(count)
	if err != nil {
		return nil, rsm.Result{}, err
	}
	if count == 0 || win.Limit == 0 || win.Skip >= count {
		return nil, win.Result(count, 0), nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "ts", Value: 1}}).
		SetSkip(int64(win.Skip)).
		SetLimit(int64(win.Limit)).
		SetBatchSize(int32(s.batchSize))
	cur, err := s.msgs().Find(ctx, crit, opts)
	if err != nil {
		return nil, rsm.Result{}, &registrystore.StoreError{Op: "list messages", Err: err}
	}
	defer cur.Close(ctx)

	var items []model.MessageItem
	for cur.Next(ctx) {
		var doc msgDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, rsm.Result{}, &registrystore.StoreError{Op: "decode message", Err: err}
		}
		direction, ok := model.ParseDirection(doc.Direction)
		if !ok {
			return nil, rsm.Result{}, &registrystore.StoreError{
				Op:  "list messages",
				Err: fmt.Errorf("invalid direction %q in record %s", doc.Direction, doc.ID),
			}
		}
		for _, fragment := range splitFragments(doc.Message) {
			items = append(items, model.MessageItem{
				Timestamp: doc.Timestamp,
				Direction: direction,
				Body:      fragment,
			})
		}
	}
	if err := cur.Err(); err != nil {
		return nil, rsm.Result{}, &registrystore.StoreError{Op: "list messages", Err: err}
	}

	return items, win.Result(count, len(items)), nil
}

// RemoveItems deletes the conversation's messages with timestamps in
// [start, end] inclusive. A zero bound leaves that side of the range
// open, so removing with both bounds zero clears the whole conversation.
func (s *MongoStore) RemoveItems(ctx context.Context, owner, buddy string, start, end time.Time) error {
	if _, err := s.msgs().DeleteMany(ctx, archiveFilter(owner, buddy, start, end)); err != nil {
		return &registrystore.StoreError{Op: "remove items", Err: err}
	}
	return nil
}

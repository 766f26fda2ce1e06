package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/MR4white/tigase-mongodb/internal/config"
	"github.com/MR4white/tigase-mongodb/internal/identity"
	"github.com/MR4white/tigase-mongodb/internal/metrics"
	"github.com/MR4white/tigase-mongodb/internal/model"
	storemetrics "github.com/MR4white/tigase-mongodb/internal/plugin/store/metrics"
	registrymigrate "github.com/MR4white/tigase-mongodb/internal/registry/migrate"
	registrystore "github.com/MR4white/tigase-mongodb/internal/registry/store"
	"github.com/MR4white/tigase-mongodb/internal/subnode"
	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection = "tig_users"
	nodesCollection = "tig_nodes"
	msgsCollection  = "tig_ma_msgs"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "mongo",
		Loader: func(ctx context.Context) (registrystore.Store, error) {
			cfg := config.FromContext(ctx)
			if cfg == nil {
				return nil, errors.New("mongo: no configuration in context")
			}
			labels, err := metrics.ParseMetricsLabels(cfg.MetricsLabels)
			if err != nil {
				return nil, fmt.Errorf("mongo: %w", err)
			}
			metrics.InitMetrics(labels)

			opts := options.Client().ApplyURI(cfg.DBURL)
			if cfg.DBMaxOpenConns > 0 {
				opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
			}
			if cfg.DBMaxIdleConns > 0 {
				opts.SetMinPoolSize(uint64(cfg.DBMaxIdleConns))
			}
			client, err := mongo.Connect(opts)
			if err != nil {
				return nil, &registrystore.ConnectionError{URI: cfg.DBURL, Err: err}
			}
			if err := client.Ping(ctx, nil); err != nil {
				return nil, &registrystore.ConnectionError{URI: cfg.DBURL, Err: err}
			}
			return storemetrics.Wrap(&MongoStore{
				client:          client,
				db:              client.Database(cfg.DBName),
				batchSize:       cfg.BatchSize,
				autoCreateUsers: cfg.AutoCreateUsers,
			}), nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &mongoMigrator{}})
}

type mongoMigrator struct{}

func (m *mongoMigrator) Name() string { return "mongo-schema" }

func (m *mongoMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.MigrateAtStart {
		return nil
	}

	log.Info("Running migration", "name", m.Name())
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DBURL))
	if err != nil {
		return fmt.Errorf("mongo migration: failed to connect: %w", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.DBName)

	collections := map[string][]mongo.IndexModel{
		usersCollection: nil,
		nodesCollection: {
			{Keys: bson.D{{Key: "uid", Value: 1}}},
			{Keys: bson.D{{Key: "node", Value: 1}}},
			{Keys: bson.D{{Key: "key", Value: 1}}},
			{Keys: bson.D{{Key: "uid", Value: 1}, {Key: "node", Value: 1}, {Key: "key", Value: 1}}},
		},
		msgsCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "buddy_id", Value: 1}, {Key: "ts", Value: 1}}},
		},
	}

	for name, indexes := range collections {
		// Idempotent: fails silently when the collection exists.
		db.CreateCollection(ctx, name)
		if len(indexes) > 0 {
			if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
				return fmt.Errorf("mongo migration: failed to create indexes for %s: %w", name, err)
			}
		}
	}

	log.Info("MongoDB schema migration complete")
	return nil
}

// MongoStore implements the user, node, credential and archive capability
// interfaces on MongoDB.
type MongoStore struct {
	client          *mongo.Client
	db              *mongo.Database
	batchSize       int
	autoCreateUsers bool
}

// --- MongoDB document types ---

type userDoc struct {
	ID       []byte  `bson:"_id"`
	UserID   string  `bson:"user_id"`
	Domain   string  `bson:"domain"`
	Password *string `bson:"password,omitempty"`
}

// nodeDoc stores one (owner, node path, key) triple. The node field is
// absent for root-level entries; a document carries either value or
// values, never both.
type nodeDoc struct {
	UID    []byte   `bson:"uid"`
	Node   *string  `bson:"node,omitempty"`
	Key    string   `bson:"key"`
	Value  *string  `bson:"value,omitempty"`
	Values []string `bson:"values,omitempty"`
}

// --- Collection accessors ---

func (s *MongoStore) users() *mongo.Collection { return s.db.Collection(usersCollection) }
func (s *MongoStore) nodes() *mongo.Collection { return s.db.Collection(nodesCollection) }
func (s *MongoStore) msgs() *mongo.Collection  { return s.db.Collection(msgsCollection) }

// Close releases the shared client. Called once at process shutdown.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// --- Filter helpers ---

func userFilter(jid string) bson.M {
	key := identity.Derive(jid)
	return bson.M{"_id": key.Bytes(), "user_id": model.NormalizeJID(jid)}
}

// nodeFilter builds the criteria selecting one owner's documents at a
// node path. Root entries are stored without a node field, so the root
// matches on the field's absence, never on an empty string.
func nodeFilter(jid, node string) bson.M {
	key := identity.Derive(jid)
	crit := bson.M{"uid": key.Bytes()}
	node = subnode.Normalize(node)
	if node == subnode.Root {
		crit["node"] = bson.M{"$exists": false}
	} else {
		crit["node"] = node
	}
	return crit
}

func tripleFilter(jid, node, key string) bson.M {
	crit := nodeFilter(jid, node)
	crit["key"] = key
	return crit
}

func (s *MongoStore) newNodeDoc(jid, node, key string) nodeDoc {
	id := identity.Derive(jid)
	doc := nodeDoc{UID: id.Bytes(), Key: key}
	if n := subnode.Normalize(node); n != subnode.Root {
		doc.Node = &n
	}
	return doc
}

// --- UserStore ---

func (s *MongoStore) AddUser(ctx context.Context, jid string) error {
	return s.addUser(ctx, jid, nil)
}

func (s *MongoStore) AddUserWithPassword(ctx context.Context, jid, password string) error {
	return s.addUser(ctx, jid, &password)
}

func (s *MongoStore) addUser(ctx context.Context, jid string, password *string) error {
	canonical := model.NormalizeJID(jid)
	key := identity.Derive(jid)
	doc := userDoc{
		ID:       key.Bytes(),
		UserID:   canonical,
		Domain:   model.DomainOf(canonical),
		Password: password,
	}
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &registrystore.ExistsError{Resource: "user", ID: canonical}
		}
		return &registrystore.StoreError{Op: "add user", Err: err}
	}
	return nil
}

// ensureUser upserts the owning user row for node writes when
// auto-creation is enabled.
func (s *MongoStore) ensureUser(ctx context.Context, jid string) error {
	canonical := model.NormalizeJID(jid)
	key := identity.Derive(jid)
	update := bson.M{"$set": bson.M{
		"user_id": canonical,
		"domain":  model.DomainOf(canonical),
	}}
	if _, err := s.users().UpdateOne(ctx, bson.M{"_id": key.Bytes()}, update,
		options.UpdateOne().SetUpsert(true)); err != nil {
		return &registrystore.StoreError{Op: "ensure user", Err: err}
	}
	return nil
}

func (s *MongoStore) UserExists(ctx context.Context, jid string) (bool, error) {
	n, err := s.users().CountDocuments(ctx, userFilter(jid))
	if err != nil {
		return false, &registrystore.StoreError{Op: "check user exists", Err: err}
	}
	return n > 0, nil
}

func (s *MongoStore) Users(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"user_id": 1}).
		SetBatchSize(int32(s.batchSize))
	cur, err := s.users().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &registrystore.StoreError{Op: "list users", Err: err}
	}
	defer cur.Close(ctx)

	var users []string
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, &registrystore.StoreError{Op: "decode user", Err: err}
		}
		users = append(users, doc.UserID)
	}
	if err := cur.Err(); err != nil {
		return nil, &registrystore.StoreError{Op: "list users", Err: err}
	}
	return users, nil
}

func (s *MongoStore) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, &registrystore.StoreError{Op: "count users", Err: err}
	}
	return n, nil
}

func (s *MongoStore) CountDomainUsers(ctx context.Context, domain string) (int64, error) {
	n, err := s.users().CountDocuments(ctx, bson.M{"domain": domain})
	if err != nil {
		return 0, &registrystore.StoreError{Op: "count domain users", Err: err}
	}
	return n, nil
}

func (s *MongoStore) RemoveUser(ctx context.Context, jid string) error {
	if _, err := s.users().DeleteOne(ctx, userFilter(jid)); err != nil {
		return &registrystore.StoreError{Op: "remove user", Err: err}
	}
	return s.RemoveSubnode(ctx, jid, subnode.Root)
}

// --- CredentialStore ---

func (s *MongoStore) GetPassword(ctx context.Context, jid string) (string, error) {
	var doc userDoc
	err := s.users().FindOne(ctx, userFilter(jid),
		options.FindOne().SetProjection(bson.M{"password": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", &registrystore.NotFoundError{Resource: "user", ID: model.NormalizeJID(jid)}
	}
	if err != nil {
		return "", &registrystore.StoreError{Op: "get password", Err: err}
	}
	if doc.Password == nil {
		return "", nil
	}
	return *doc.Password, nil
}

func (s *MongoStore) UpdatePassword(ctx context.Context, jid, password string) error {
	res, err := s.users().UpdateOne(ctx, userFilter(jid),
		bson.M{"$set": bson.M{"password": password}})
	if err != nil {
		return &registrystore.StoreError{Op: "update password", Err: err}
	}
	if res.MatchedCount == 0 {
		return &registrystore.NotFoundError{Resource: "user", ID: model.NormalizeJID(jid)}
	}
	return nil
}

func (s *MongoStore) IsDisabled(ctx context.Context, jid string) (bool, error) {
	return false, nil
}

func (s *MongoStore) SetDisabled(ctx context.Context, jid string, disabled bool) error {
	return registrystore.ErrNotSupported
}

// --- NodeStore ---

func (s *MongoStore) SetData(ctx context.Context, jid, node, key, value string) error {
	doc := s.newNodeDoc(jid, node, key)
	doc.Value = &value
	// $unset keeps the scalar/list exclusivity when the triple previously
	// held a list.
	update := bson.M{
		"$set":   doc,
		"$unset": bson.M{"values": ""},
	}
	if _, err := s.nodes().UpdateOne(ctx, tripleFilter(jid, node, key), update,
		options.UpdateOne().SetUpsert(true)); err != nil {
		return &registrystore.StoreError{Op: "set data", Err: err}
	}
	return s.maybeEnsureUser(ctx, jid)
}

// SetDataList is a full replace: every document matching the triple is
// removed before the new list is inserted. Both passes go to the server
// as a single bulk request, but they are still two separate operations; a
// concurrent reader can observe the triple as absent in between.
func (s *MongoStore) SetDataList(ctx context.Context, jid, node, key string, values []string) error {
	doc := s.newNodeDoc(jid, node, key)
	doc.Values = values
	models := []mongo.WriteModel{
		mongo.NewDeleteManyModel().SetFilter(tripleFilter(jid, node, key)),
		mongo.NewInsertOneModel().SetDocument(doc),
	}
	if _, err := s.nodes().BulkWrite(ctx, models); err != nil {
		return &registrystore.StoreError{Op: "set data list", Err: err}
	}
	return s.maybeEnsureUser(ctx, jid)
}

func (s *MongoStore) AddDataList(ctx context.Context, jid, node, key string, values []string) error {
	doc := s.newNodeDoc(jid, node, key)
	doc.Values = values
	if _, err := s.nodes().InsertOne(ctx, doc); err != nil {
		return &registrystore.StoreError{Op: "add data list", Err: err}
	}
	return s.maybeEnsureUser(ctx, jid)
}

func (s *MongoStore) maybeEnsureUser(ctx context.Context, jid string) error {
	if !s.autoCreateUsers {
		return nil
	}
	return s.ensureUser(ctx, jid)
}

func (s *MongoStore) GetData(ctx context.Context, jid, node, key string) (string, bool, error) {
	var doc nodeDoc
	err := s.nodes().FindOne(ctx, tripleFilter(jid, node, key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &registrystore.StoreError{Op: "get data", Err: err}
	}
	if doc.Value == nil {
		return "", false, nil
	}
	return *doc.Value, true, nil
}

func (s *MongoStore) GetDataList(ctx context.Context, jid, node, key string) ([]string, error) {
	opts := options.Find().SetBatchSize(int32(s.batchSize))
	cur, err := s.nodes().Find(ctx, tripleFilter(jid, node, key), opts)
	if err != nil {
		return nil, &registrystore.StoreError{Op: "get data list", Err: err}
	}
	defer cur.Close(ctx)

	var values []string
	for cur.Next(ctx) {
		var doc nodeDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, &registrystore.StoreError{Op: "decode node", Err: err}
		}
		if doc.Values != nil {
			values = append(values, doc.Values...)
		} else if doc.Value != nil {
			values = append(values, *doc.Value)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, &registrystore.StoreError{Op: "get data list", Err: err}
	}
	return values, nil
}

func (s *MongoStore) Keys(ctx context.Context, jid, node string) ([]string, error) {
	var keys []string
	err := s.nodes().Distinct(ctx, "key", nodeFilter(jid, node)).Decode(&keys)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &registrystore.StoreError{Op: "list keys", Err: err}
	}
	return keys, nil
}

func (s *MongoStore) Subnodes(ctx context.Context, jid, node string) ([]string, error) {
	key := identity.Derive(jid)
	crit := bson.M{"uid": key.Bytes()}
	parent := subnode.Normalize(node)
	if parent == subnode.Root {
		crit["node"] = bson.M{"$exists": true}
	} else {
		crit["node"] = descendantRange(parent)
	}

	var nodePaths []string
	err := s.nodes().Distinct(ctx, "node", crit).Decode(&nodePaths)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &registrystore.StoreError{Op: "list subnodes", Err: err}
	}

	// Distinct node paths can still share a first segment; dedupe while
	// preserving first-seen order.
	seen := map[string]bool{}
	var children []string
	for _, p := range nodePaths {
		child, ok := subnode.Child(p, parent)
		if !ok || seen[child] {
			continue
		}
		seen[child] = true
		children = append(children, child)
	}
	return children, nil
}

func (s *MongoStore) RemoveData(ctx context.Context, jid, node, key string) error {
	if _, err := s.nodes().DeleteMany(ctx, tripleFilter(jid, node, key)); err != nil {
		return &registrystore.StoreError{Op: "remove data", Err: err}
	}
	return nil
}

func (s *MongoStore) RemoveSubnode(ctx context.Context, jid, node string) error {
	key := identity.Derive(jid)
	crit := bson.M{"uid": key.Bytes()}
	if path := subnode.Normalize(node); path != subnode.Root {
		crit["$or"] = bson.A{
			bson.M{"node": path},
			bson.M{"node": descendantRange(path)},
		}
	}
	if _, err := s.nodes().DeleteMany(ctx, crit); err != nil {
		return &registrystore.StoreError{Op: "remove subnode", Err: err}
	}
	return nil
}

// descendantRange selects node paths strictly below path using a byte
// range instead of a regex: '0' is the byte after '/', so the half-open
// interval [path+"/", path+"0") holds exactly the strings starting with
// path+"/". Matching stays on segment boundaries ("a" never takes "ab"
// or "a2/b") and path needs no metacharacter escaping.
func descendantRange(path string) bson.M {
	return bson.M{
		"$gte": path + subnode.Separator,
		"$lt":  path + "0",
	}
}

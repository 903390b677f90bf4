package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per person kind.
const (
	studentsCollection   = "Students"
	professorsCollection = "Professors"
)

// MongoStore keeps lecture records in MongoDB: one document per person,
// holding the person's name and the array of their lecture records.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Recorder = (*MongoStore)(nil)

// personDoc is the stored document shape.
type personDoc struct {
	Name     string          `bson:"name"`
	Lectures []LectureRecord `bson:"lectures"`
}

// NewMongoStore connects to the given deployment and pings it before use.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("firefly-backend").
		SetMinPoolSize(2).
		SetMaxPoolSize(20).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (m *MongoStore) collection(kind PersonKind) (*mongo.Collection, error) {
	switch kind {
	case KindStudent:
		return m.db.Collection(studentsCollection), nil
	case KindProfessor:
		return m.db.Collection(professorsCollection), nil
	default:
		return nil, ErrUnknownKind
	}
}

// record upserts: appends the record to the person's lecture array, creating
// the person document on first contact. The upsert seeds the name from the
// filter; $addToSet also drops exact duplicate records if a finalization is
// ever replayed.
func (m *MongoStore) record(ctx context.Context, kind PersonKind, name string, rec LectureRecord) error {
	coll, err := m.collection(kind)
	if err != nil {
		return err
	}

	_, err = coll.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$addToSet": bson.M{"lectures": rec}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s lecture for %s: %w", kind, name, err)
	}
	return nil
}

func (m *MongoStore) RecordStudentLecture(ctx context.Context, name string, rec LectureRecord) error {
	return m.record(ctx, KindStudent, name, rec)
}

func (m *MongoStore) RecordProfessorLecture(ctx context.Context, name string, rec LectureRecord) error {
	return m.record(ctx, KindProfessor, name, rec)
}

// FetchLectures returns a person's records. An unknown name yields an empty
// list, not an error.
func (m *MongoStore) FetchLectures(ctx context.Context, kind PersonKind, name string) ([]LectureRecord, error) {
	coll, err := m.collection(kind)
	if err != nil {
		return nil, err
	}

	var doc personDoc
	err = coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s lectures for %s: %w", kind, name, err)
	}
	return doc.Lectures, nil
}

// Close disconnects from the deployment.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

package store

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"bal-board/internal/model"
)

// MongoStore implements Store on top of MongoDB.
type MongoStore struct {
	db        *MongoDB
	configs   *mongo.Collection
	forecasts *mongo.Collection
	logs      *mongo.Collection
	staff     *mongo.Collection
	planning  *mongo.Collection
	archives  *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *MongoDB) (*MongoStore, error) {
	s := &MongoStore{
		db:        db,
		configs:   db.Collection("machine_configs"),
		forecasts: db.Collection("global_forecasts"),
		logs:      db.Collection("production_logs"),
		staff:     db.Collection("staff"),
		planning:  db.Collection("planning"),
		archives:  db.Collection("weekly_archives"),
	}

	if _, err := s.planning.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "team", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return nil, eris.Wrap(err, "create planning indexes")
	}
	if _, err := s.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "team", Value: 1}, {Key: "machine_id", Value: 1}}},
	}); err != nil {
		return nil, eris.Wrap(err, "create production_logs indexes")
	}
	if _, err := s.configs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "suffix", Value: 1}}},
	}); err != nil {
		return nil, eris.Wrap(err, "create machine_configs indexes")
	}
	if _, err := s.archives.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return nil, eris.Wrap(err, "create weekly_archives indexes")
	}

	return s, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func (s *MongoStore) GetForecasts(ctx context.Context, id int) (model.GlobalForecasts, error) {
	var doc forecastDoc
	err := s.forecasts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.GlobalForecasts{}, nil
	}
	if err != nil {
		return model.GlobalForecasts{}, eris.Wrapf(err, "find forecasts %d", id)
	}
	return doc.GlobalForecasts, nil
}

func (s *MongoStore) SaveForecasts(ctx context.Context, id int, f model.GlobalForecasts) error {
	doc := forecastDoc{ID: id, GlobalForecasts: f}
	_, err := s.forecasts.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return eris.Wrapf(err, "save forecasts %d", id)
}

func (s *MongoStore) ListConfigs(ctx context.Context, suffix string) (model.Configs, error) {
	cursor, err := s.configs.Find(ctx, bson.M{"suffix": suffix})
	if err != nil {
		return nil, eris.Wrap(err, "find machine configs")
	}
	var docs []configDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, eris.Wrap(err, "decode machine configs")
	}
	out := make(model.Configs, len(docs))
	for _, d := range docs {
		out[d.Machine] = d.config()
	}
	return out, nil
}

func (s *MongoStore) SaveConfigs(ctx context.Context, suffix string, cfgs model.Configs) error {
	if len(cfgs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(cfgs))
	for _, id := range model.MachineIDs {
		c, ok := cfgs[id]
		if !ok {
			continue
		}
		c.ID = id
		doc := toConfigDoc(suffix, c)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := s.configs.BulkWrite(ctx, models)
	return eris.Wrap(err, "save machine configs")
}

func (s *MongoStore) ListLogs(ctx context.Context) ([]model.ProductionLog, error) {
	cursor, err := s.logs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "find production logs")
	}
	var out []model.ProductionLog
	if err := cursor.All(ctx, &out); err != nil {
		return nil, eris.Wrap(err, "decode production logs")
	}
	return out, nil
}

func (s *MongoStore) SaveLog(ctx context.Context, log model.ProductionLog) error {
	_, err := s.logs.ReplaceOne(ctx, bson.M{"_id": log.ID}, log, options.Replace().SetUpsert(true))
	return eris.Wrapf(err, "save production log %s", log.ID)
}

func (s *MongoStore) DeleteLog(ctx context.Context, id string) error {
	res, err := s.logs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return eris.Wrapf(err, "delete production log %s", id)
	}
	if res.DeletedCount == 0 {
		return eris.Wrapf(ErrNotFound, "production log %s", id)
	}
	return nil
}

func (s *MongoStore) DeleteAllLogs(ctx context.Context) error {
	_, err := s.logs.DeleteMany(ctx, bson.M{})
	return eris.Wrap(err, "delete production logs")
}

func (s *MongoStore) ListStaff(ctx context.Context) ([]model.StaffMember, error) {
	cursor, err := s.staff.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "find staff")
	}
	var out []model.StaffMember
	if err := cursor.All(ctx, &out); err != nil {
		return nil, eris.Wrap(err, "decode staff")
	}
	return out, nil
}

func (s *MongoStore) SaveStaff(ctx context.Context, m model.StaffMember) error {
	_, err := s.staff.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	return eris.Wrapf(err, "save staff %s", m.ID)
}

func (s *MongoStore) DeleteStaff(ctx context.Context, id string) error {
	res, err := s.staff.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return eris.Wrapf(err, "delete staff %s", id)
	}
	if res.DeletedCount == 0 {
		return eris.Wrapf(ErrNotFound, "staff %s", id)
	}
	return nil
}

func (s *MongoStore) SetStaffInterim(ctx context.Context, id string, interim bool) error {
	res, err := s.staff.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_interim": interim}})
	if err != nil {
		return eris.Wrapf(err, "update staff %s", id)
	}
	if res.MatchedCount == 0 {
		return eris.Wrapf(ErrNotFound, "staff %s", id)
	}
	return nil
}

func (s *MongoStore) ListPlanning(ctx context.Context) ([]model.PlanningAssignment, error) {
	cursor, err := s.planning.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "team", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "find planning")
	}
	var docs []planningDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, eris.Wrap(err, "decode planning")
	}
	return planningRecords(docs), nil
}

// UpsertPlanning replaces each record by (date, team) in one bulk write.
func (s *MongoStore) UpsertPlanning(ctx context.Context, records []model.PlanningAssignment) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		doc := toPlanningDoc(r)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"date": doc.Date, "team": doc.Team}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := s.planning.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return eris.Wrap(err, "upsert planning")
}

func (s *MongoStore) ListArchives(ctx context.Context) ([]model.WeeklyArchive, error) {
	cursor, err := s.archives.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, eris.Wrap(err, "find weekly archives")
	}
	var docs []archiveDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, eris.Wrap(err, "decode weekly archives")
	}
	out := make([]model.WeeklyArchive, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.archive())
	}
	return out, nil
}

func (s *MongoStore) CreateArchive(ctx context.Context, a model.WeeklyArchive) error {
	_, err := s.archives.InsertOne(ctx, toArchiveDoc(a))
	return eris.Wrapf(err, "insert weekly archive %s", a.ID)
}

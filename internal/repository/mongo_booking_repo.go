package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"courtbook/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingDaysCollection = "booking_days"

// MongoBookingRepository keeps every booking of a date inside one document,
// so the overlap check and the insert are a single atomic update.
type MongoBookingRepository struct {
	coll *mongo.Collection
}

func NewMongoBookingRepository(db *mongo.Database) *MongoBookingRepository {
	return &MongoBookingRepository{coll: db.Collection(bookingDaysCollection)}
}

type bookingDoc struct {
	ID                 string     `bson:"id"`
	Date               string     `bson:"date"`
	Start              string     `bson:"start"`
	End                string     `bson:"end"`
	OwnerID            int64      `bson:"owner_id"`
	OwnerName          string     `bson:"owner_name"`
	NeedsLight         bool       `bson:"needs_light"`
	Price              float64    `bson:"price"`
	Status             string     `bson:"status"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
	CancelledAt        *time.Time `bson:"cancelled_at,omitempty"`
	CancellationReason string     `bson:"cancellation_reason,omitempty"`
}

type dayDoc struct {
	Date     string       `bson:"_id"`
	Bookings []bookingDoc `bson:"bookings"`
}

func toBookingDoc(b *domain.Booking) bookingDoc {
	return bookingDoc{
		ID:                 b.ID,
		Date:               string(b.Date),
		Start:              string(b.StartTime),
		End:                string(b.EndTime),
		OwnerID:            b.OwnerID,
		OwnerName:          b.OwnerName,
		NeedsLight:         b.NeedsLight,
		Price:              b.Price,
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
	}
}

func (d bookingDoc) toDomain() domain.Booking {
	return domain.Booking{
		ID:                 d.ID,
		Date:               domain.DateStamp(d.Date),
		StartTime:          domain.TimeOfDay(d.Start),
		EndTime:            domain.TimeOfDay(d.End),
		OwnerID:            d.OwnerID,
		OwnerName:          d.OwnerName,
		NeedsLight:         d.NeedsLight,
		Price:              d.Price,
		Status:             domain.BookingStatus(d.Status),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		CancelledAt:        d.CancelledAt,
		CancellationReason: d.CancellationReason,
	}
}

// EnsureIndexes creates the lookup index on embedded booking ids.
func (r *MongoBookingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bookings.id", Value: 1}},
			Options: options.Index().SetName("booking_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "bookings.owner_id", Value: 1}},
			Options: options.Index().SetName("booking_owner_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// createFilter matches the day document only while no ACTIVE booking in it
// overlaps [start, end).
func createFilter(date, start, end string) bson.M {
	return bson.M{
		"_id": date,
		"bookings": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"status": string(domain.BookingActive),
			"start":  bson.M{"$lt": end},
			"end":    bson.M{"$gt": start},
		}}},
	}
}

// dayUpdater is the slice of *mongo.Collection that Create needs.
type dayUpdater interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Create pushes b into its day document. When an overlapping ACTIVE booking
// exists the filter misses and the upsert collides on _id.
func (r *MongoBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return pushBooking(ctx, r.coll, toBookingDoc(b))
}

// pushBooking inserts doc under the overlap filter. A duplicate key can also
// mean a concurrent writer created the day document first, so the push is
// retried once against the existing document; only a miss there is a conflict.
func pushBooking(ctx context.Context, coll dayUpdater, doc bookingDoc) error {
	filter := createFilter(doc.Date, doc.Start, doc.End)
	update := bson.M{"$push": bson.M{"bookings": doc}}

	_, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *MongoBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var day dayDoc
	err := r.coll.FindOne(ctx,
		bson.M{"bookings.id": id},
		options.FindOne().SetProjection(bson.M{"bookings.$": 1}),
	).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	if len(day.Bookings) == 0 {
		return nil, domain.ErrNotFound
	}
	b := day.Bookings[0].toDomain()
	return &b, nil
}

func (r *MongoBookingRepository) ListByDate(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	var day dayDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": string(date)}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.Booking{}, nil
		}
		return nil, fmt.Errorf("failed to fetch bookings for %s: %w", date, err)
	}

	out := make([]domain.Booking, 0, len(day.Bookings))
	for _, d := range day.Bookings {
		out = append(out, d.toDomain())
	}
	sortByStart(out)
	return out, nil
}

// listPipeline flattens day documents into bookings and applies f.
func listPipeline(f domain.BookingFilter) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if f.Date != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"_id": string(f.Date)}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$unwind", Value: "$bookings"}},
		bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$bookings"}}},
	)

	match := bson.M{}
	if f.OwnerID != 0 {
		match["owner_id"] = f.OwnerID
	}
	if f.Status != "" {
		match["status"] = string(f.Status)
	}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	page := bson.A{bson.M{"$sort": bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}}}}
	if f.Limit > 0 {
		page = append(page, bson.M{"$skip": f.Offset}, bson.M{"$limit": f.Limit})
	}
	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.M{
		"items": page,
		"total": bson.A{bson.M{"$count": "n"}},
	}}})
	return pipeline
}

func (r *MongoBookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error) {
	cursor, err := r.coll.Aggregate(ctx, listPipeline(f))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Items []bookingDoc `bson:"items"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("decode error: %w", err)
	}

	out := []domain.Booking{}
	var total int64
	if len(result) > 0 {
		for _, d := range result[0].Items {
			out = append(out, d.toDomain())
		}
		if len(result[0].Total) > 0 {
			total = result[0].Total[0].N
		}
	}
	return out, total, nil
}

func (r *MongoBookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"bookings.id": id},
		bson.M{"$pull": bson.M{"bookings": bson.M{"id": id}}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if res.ModifiedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepository) Cancel(ctx context.Context, id, reason string, at time.Time) (*domain.Booking, error) {
	set := bson.M{
		"bookings.$.status":       string(domain.BookingCancelled),
		"bookings.$.cancelled_at": at,
		"bookings.$.updated_at":   at,
	}
	if reason != "" {
		set["bookings.$.cancellation_reason"] = reason
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"bookings": bson.M{"$elemMatch": bson.M{"id": id, "status": string(domain.BookingActive)}}},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotActive
	}
	return r.GetByID(ctx, id)
}

// finishedIn lists the ACTIVE bookings of day that ended by now.
func finishedIn(day dayDoc, today domain.DateStamp, now domain.TimeOfDay) []domain.Booking {
	var out []domain.Booking
	for _, d := range day.Bookings {
		if d.Status != string(domain.BookingActive) {
			continue
		}
		if day.Date == string(today) && d.End > string(now) {
			continue
		}
		out = append(out, d.toDomain())
	}
	return out
}

// CompletePast marks finished ACTIVE bookings COMPLETED, one day document at
// a time, and returns them as updated.
func (r *MongoBookingRepository) CompletePast(ctx context.Context, today domain.DateStamp, now domain.TimeOfDay, at time.Time) ([]domain.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"_id":             bson.M{"$lte": string(today)},
		"bookings.status": string(domain.BookingActive),
	}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find finished bookings: %w", err)
	}
	var days []dayDoc
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}

	var done []domain.Booking
	for _, day := range days {
		finished := finishedIn(day, today, now)
		if len(finished) == 0 {
			continue
		}
		ids := make([]string, 0, len(finished))
		for i := range finished {
			ids = append(ids, finished[i].ID)
			finished[i].Status = domain.BookingCompleted
			finished[i].UpdatedAt = at
		}

		_, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": day.Date},
			bson.M{"$set": bson.M{
				"bookings.$[b].status":     string(domain.BookingCompleted),
				"bookings.$[b].updated_at": at,
			}},
			options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
				bson.M{"b.id": bson.M{"$in": ids}, "b.status": string(domain.BookingActive)},
			}}),
		)
		if err != nil {
			return done, fmt.Errorf("complete bookings on %s: %w", day.Date, err)
		}
		sortByStart(finished)
		done = append(done, finished...)
	}
	return done, nil
}

// upcomingPull selects the owner's ACTIVE bookings in a day document; on
// today only those ending after now.
func upcomingPull(ownerID int64, today bool, now domain.TimeOfDay) bson.M {
	cond := bson.M{"owner_id": ownerID, "status": string(domain.BookingActive)}
	if today {
		cond["end"] = bson.M{"$gt": string(now)}
	}
	return cond
}

func (r *MongoBookingRepository) DeleteUpcomingByOwner(ctx context.Context, ownerID int64, today domain.DateStamp, now domain.TimeOfDay) ([]domain.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"_id":      bson.M{"$gte": string(today)},
		"bookings": bson.M{"$elemMatch": upcomingPull(ownerID, false, now)},
	}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find upcoming bookings: %w", err)
	}
	var days []dayDoc
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}

	var removed []domain.Booking
	for _, day := range days {
		isToday := day.Date == string(today)
		pull := upcomingPull(ownerID, isToday, now)

		dayRemoved := upcomingIn(day, ownerID, isToday, now)
		if len(dayRemoved) == 0 {
			continue
		}

		if _, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": day.Date},
			bson.M{"$pull": bson.M{"bookings": pull}},
		); err != nil {
			return removed, fmt.Errorf("failed to delete bookings on %s: %w", day.Date, err)
		}
		sortByStart(dayRemoved)
		removed = append(removed, dayRemoved...)
	}
	return removed, nil
}

// upcomingIn mirrors upcomingPull on a decoded day document.
func upcomingIn(day dayDoc, ownerID int64, today bool, now domain.TimeOfDay) []domain.Booking {
	var out []domain.Booking
	for _, d := range day.Bookings {
		if d.OwnerID != ownerID || d.Status != string(domain.BookingActive) {
			continue
		}
		if today && d.End <= string(now) {
			continue
		}
		out = append(out, d.toDomain())
	}
	return out
}

func sortByStart(bs []domain.Booking) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Date != bs[j].Date {
			return bs[i].Date < bs[j].Date
		}
		return bs[i].StartTime < bs[j].StartTime
	})
}

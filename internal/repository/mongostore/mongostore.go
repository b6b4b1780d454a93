package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bookingsCollection  = "bookings"
	seatConfCollection  = "seat_configurations"
	overridesCollection = "day_seat_overrides"
	usersCollection     = "users"

	seatDateIndex = "bookings_seat_date_active_uniq"
	userDateIndex = "bookings_user_date_active_uniq"

	defaultConfigID = "default"
)

// Connect opens a client, checks it with a ping and returns the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the partial unique indexes that keep at most one
// active booking per seat and per user for a date.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	active := bson.M{"status": domain.BookingStatusActive}
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seat_id", Value: 1}, {Key: "booking_date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(seatDateIndex).SetPartialFilterExpression(active),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "booking_date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(userDateIndex).SetPartialFilterExpression(active),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "recurring.end_date", Value: 1}},
			Options: options.Index().SetName("bookings_recurring_idx"),
		},
	}
	if _, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, idxs); err != nil {
		return fmt.Errorf("create booking indexes: %w", err)
	}

	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetName("users_email_idx").SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// NewStore wires the mongo repositories over db.
func NewStore(client *mongo.Client, db *mongo.Database) *repository.Store {
	return &repository.Store{
		Bookings:  NewBookingRepository(db),
		SeatsConf: NewSeatConfigurationRepository(db),
		Overrides: NewDaySeatOverrideRepository(db),
		Users:     NewUserRepository(db),
		Close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		},
	}
}

type BookingRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{coll: db.Collection(bookingsCollection), now: time.Now}
}

func (r *BookingRepository) FindAllBookingsByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"booking_date": date, "status": domain.BookingStatusActive},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *BookingRepository) HasUserBookingOnDate(ctx context.Context, userID, date string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "booking_date": date, "status": domain.BookingStatusActive},
		options.Count().SetLimit(1))
	return n > 0, err
}

func (r *BookingRepository) CountBookingsByDate(ctx context.Context, date string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"booking_date": date, "status": domain.BookingStatusActive})
	return int(n), err
}

func (r *BookingRepository) FindUserUpcomingBookings(ctx context.Context, userID, fromDate string) ([]domain.Booking, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  domain.BookingStatusActive,
		"$or": bson.A{
			bson.M{"booking_date": bson.M{"$gte": fromDate}},
			runningSeries(fromDate),
		},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "booking_date", Value: 1}}))
}

func (r *BookingRepository) FindRecurringActive(ctx context.Context, fromDate string) ([]domain.Booking, error) {
	filter := runningSeries(fromDate)
	filter["status"] = domain.BookingStatusActive
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "booking_date", Value: 1}}))
}

func runningSeries(fromDate string) bson.M {
	return bson.M{
		"recurring": bson.M{"$ne": nil},
		"$or": bson.A{
			bson.M{"recurring.end_date": bson.M{"$exists": false}},
			bson.M{"recurring.end_date": ""},
			bson.M{"recurring.end_date": bson.M{"$gte": fromDate}},
		},
	}
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	doc := *booking
	if doc.Status == "" {
		doc.Status = domain.BookingStatusActive
	}
	now := r.now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, translateDuplicate(err)
	}
	return &doc, nil
}

func (r *BookingRepository) Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	set := bson.M{"updated_at": r.now().UTC()}
	if patch.LunchOption != nil {
		set["lunch_option"] = *patch.LunchOption
	}
	if patch.Duration != nil {
		set["duration"] = *patch.Duration
	}
	if patch.DurationType != nil {
		set["duration_type"] = *patch.DurationType
	}
	if patch.Overrides != nil {
		set["overrides"] = patch.Overrides
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.CanceledAt != nil {
		set["canceled_at"] = *patch.CanceledAt
	}
	if patch.CanceledBy != nil {
		set["canceled_by"] = *patch.CanceledBy
	}

	var b domain.Booking
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateDuplicate(err)
	}
	return &b, nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Booking, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var bookings []domain.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// translateDuplicate tells seat and user conflicts apart by the index named
// in the duplicate key message.
func translateDuplicate(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, seatDateIndex):
		return fmt.Errorf("%w: %v", domain.ErrSeatAlreadyBooked, err)
	case strings.Contains(msg, userDateIndex):
		return fmt.Errorf("%w: %v", domain.ErrUserAlreadyBooked, err)
	}
	return err
}

type SeatConfigurationRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewSeatConfigurationRepository(db *mongo.Database) *SeatConfigurationRepository {
	return &SeatConfigurationRepository{coll: db.Collection(seatConfCollection), now: time.Now}
}

func (r *SeatConfigurationRepository) GetDefaultConfig(ctx context.Context) (*domain.SeatConfiguration, error) {
	var cfg domain.SeatConfiguration
	err := r.coll.FindOne(ctx, bson.M{"_id": defaultConfigID}).Decode(&cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create stores cfg under the singleton id, so concurrent first calls race on
// the primary key and exactly one insert wins.
func (r *SeatConfigurationRepository) Create(ctx context.Context, cfg *domain.SeatConfiguration) (*domain.SeatConfiguration, error) {
	doc := *cfg
	doc.ID = defaultConfigID
	doc.LastModified = r.now().UTC()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConfigurationExists
		}
		return nil, err
	}
	return &doc, nil
}

type DaySeatOverrideRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewDaySeatOverrideRepository(db *mongo.Database) *DaySeatOverrideRepository {
	return &DaySeatOverrideRepository{coll: db.Collection(overridesCollection), now: time.Now}
}

func (r *DaySeatOverrideRepository) GetByDate(ctx context.Context, date string) (*domain.DaySeatOverride, error) {
	var o domain.DaySeatOverride
	err := r.coll.FindOne(ctx, bson.M{"_id": date}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *DaySeatOverrideRepository) Upsert(ctx context.Context, override *domain.DaySeatOverride) (*domain.DaySeatOverride, error) {
	o := *override
	o.CreatedAt = r.now().UTC()
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": o.Date},
		bson.M{"$set": bson.M{"seat_count": o.SeatCount, "created_by": o.CreatedBy, "created_at": o.CreatedAt}},
		options.Update().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) GetByAzureAdID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, options.FindOne())
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email},
		options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2}))
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.User, error) {
	var u domain.User
	err := r.coll.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	_ repository.BookingRepository           = (*BookingRepository)(nil)
	_ repository.SeatConfigurationRepository = (*SeatConfigurationRepository)(nil)
	_ repository.DaySeatOverrideRepository   = (*DaySeatOverrideRepository)(nil)
	_ repository.UserRepository              = (*UserRepository)(nil)
)

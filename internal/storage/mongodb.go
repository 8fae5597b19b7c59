package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/stajtakip/dekont_verifier/internal/processor"
)

// ErrPaymentNotFound is returned when no payment record matches the id
var ErrPaymentNotFound = errors.New("payment record not found")

// MongoStore reads internship payment records
type MongoStore struct {
	client   *mongo.Client
	payments *mongo.Collection
	retry    RetryConfig
	log      *zap.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, uri, dbName, collection string, log *zap.Logger) (*MongoStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("✅ Connected to MongoDB", zap.String("db", dbName), zap.String("collection", collection))
	return &MongoStore{
		client:   client,
		payments: client.Database(dbName).Collection(collection),
		retry:    DefaultRetryConfig,
		log:      log,
	}, nil
}

// Ping checks that the server is still reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

// Close closes MongoDB connection
func (s *MongoStore) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.log.Warn("MongoDB disconnect failed", zap.Error(err))
		return
	}
	s.log.Info("MongoDB connection closed")
}

// PaymentRecord is the part of an internship payment the analysis needs
type PaymentRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaymentID   string             `bson:"payment_id" json:"payment_id"`
	StudentName string             `bson:"student_name" json:"student_name"`
	CompanyName string             `bson:"company_name" json:"company_name"`
	Amount      float64            `bson:"amount" json:"amount"`
	Month       int                `bson:"month" json:"month"`
	Year        int                `bson:"year" json:"year"`
	Status      string             `bson:"status" json:"status"` // pending, approved, rejected
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Expected converts the record to the metadata a dekont is checked against
func (p *PaymentRecord) Expected() processor.ExpectedMetadata {
	if p == nil {
		return processor.ExpectedMetadata{}
	}
	return processor.ExpectedMetadata{
		StudentName: strings.TrimSpace(p.StudentName),
		CompanyName: strings.TrimSpace(p.CompanyName),
		Amount:      p.Amount,
		Month:       p.Month,
		Year:        p.Year,
	}
}

// GetPaymentRecord retrieves a payment by ObjectID hex or by its payment_id field
func (s *MongoStore) GetPaymentRecord(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	var record PaymentRecord
	err := withRetry(ctx, s.retry, s.log, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		record = PaymentRecord{}
		return s.payments.FindOne(ctx, paymentFilter(paymentID)).Decode(&record)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
		}
		return nil, fmt.Errorf("failed to query payment %s: %w", paymentID, err)
	}
	return &record, nil
}

func paymentFilter(paymentID string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(paymentID); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"payment_id": paymentID}
}

package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

// IWardService resolves the administrative areas rooms belong to.
type IWardService interface {
	ListWards(ctx context.Context) ([]models.Ward, error)
	FindWardByID(ctx context.Context, wardID primitive.ObjectID) (*models.Ward, error)
}

type wardService struct {
	db *mongo.Database
}

// NewWardService creates a new WardService.
func NewWardService(database *mongo.Database) IWardService {
	return &wardService{db: database}
}

func (s *wardService) ListWards(ctx context.Context) ([]models.Ward, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(db.WardsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load wards: %w", err)
	}
	defer cursor.Close(ctx)

	wards := []models.Ward{}
	if err = cursor.All(ctx, &wards); err != nil {
		return nil, fmt.Errorf("failed to decode wards: %w", err)
	}
	return wards, nil
}

func (s *wardService) FindWardByID(ctx context.Context, wardID primitive.ObjectID) (*models.Ward, error) {
	var ward models.Ward
	err := s.db.Collection(db.WardsCollection).FindOne(ctx, bson.M{"_id": wardID}).Decode(&ward)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrWardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ward %s: %w", wardID.Hex(), err)
	}
	return &ward, nil
}

package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

// IAmenityService lists the facilities search can filter by.
type IAmenityService interface {
	ListAmenities(ctx context.Context) ([]models.Amenity, error)
}

type amenityService struct {
	db *mongo.Database
}

// NewAmenityService creates a new AmenityService.
func NewAmenityService(database *mongo.Database) IAmenityService {
	return &amenityService{db: database}
}

func (s *amenityService) ListAmenities(ctx context.Context) ([]models.Amenity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(db.AmenitiesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load amenities: %w", err)
	}
	defer cursor.Close(ctx)

	amenities := []models.Amenity{}
	if err = cursor.All(ctx, &amenities); err != nil {
		return nil, fmt.Errorf("failed to decode amenities: %w", err)
	}
	return amenities, nil
}

package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tphuong3108/timnhatro-BE/internal/db"
)

// engineCollections is every collection the engine writes. They are all
// dropped before each integration test so the test database starts empty.
var engineCollections = []string{
	db.RoomsCollection,
	db.ReviewsCollection,
	db.UsersCollection,
	db.WardsCollection,
	db.AmenitiesCollection,
}

var (
	envOnce      sync.Once
	testMongoURI string
)

// testMongoURIFromEnv resolves MONGO_URI, loading the project root .env
// on first use. Integration tests cannot run without it.
func testMongoURIFromEnv(t *testing.T) string {
	t.Helper()
	envOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
		if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
			godotenv.Load()
		}
		testMongoURI = os.Getenv("MONGO_URI")
	})
	require.NotEmpty(t, testMongoURI, "MONGO_URI is required for integration tests")
	return testMongoURI
}

// SetupTestDB connects to the test MongoDB instance and returns the named
// database with all engine collections dropped. The connection is closed
// when the test finishes.
func SetupTestDB(t *testing.T, dbName string) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI(testMongoURIFromEnv(t)))
	require.NoError(t, err, "Failed to connect to MongoDB")
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	database := client.Database(dbName)
	for _, name := range engineCollections {
		_ = database.Collection(name).Drop(context.Background())
	}
	return database
}

//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"smart_cycle_market/pkg/database"
	"smart_cycle_market/pkg/logger"
	testtool "smart_cycle_market/pkg/test_tool"

	"github.com/stretchr/testify/require"
)

func TestMongoConversationRepository(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testtool.MongoRequest())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoContainer.Terminate(ctx) })

	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 2,
	}, "test_market")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongo.Close(ctx) })

	runConversationContract(t, NewMongoConversationRepository(mongo.Database))
}

package sqldb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"yatube/internal/model"
	"yatube/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// startMySQL 启动一次性 MySQL 容器，没有 docker 时跳过
func startMySQL(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("mysql container skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret",
			"MYSQL_DATABASE":      "yatube",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("ready for connections").WithOccurrence(2),
			wait.ForListeningPort("3306/tcp"),
		).WithDeadline(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start mysql container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)
	dsn := fmt.Sprintf("root:secret@tcp(%s:%s)/yatube?charset=utf8mb4&parseTime=True&loc=UTC", host, port.Port())

	db, err := InitDB("mysql", dsn, "silent")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestMySQL(t *testing.T) {
	db := startMySQL(t)

	t.Run("contract", func(t *testing.T) {
		repotest.Run(t, NewSet(db))
	})

	t.Run("outbox", func(t *testing.T) {
		testOutbox(t, db)
	})
}

func testOutbox(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	users := &UserRepository{DB: db}
	follows := &FollowRepository{DB: db}
	outbox := &OutboxRepository{DB: db}

	// 清掉 contract 用例留下的事件
	require.NoError(t, db.Where("1 = 1").Delete(&model.SocialOutbox{}).Error)

	author := &model.User{Username: "outbox-author", Password: "x"}
	fan := &model.User{Username: "outbox-fan", Password: "x"}
	require.NoError(t, users.Create(ctx, author))
	require.NoError(t, users.Create(ctx, fan))

	changed, err := follows.Follow(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	require.True(t, changed)
	// 重复关注不产生事件
	_, err = follows.Follow(ctx, fan.ID, author.ID)
	require.NoError(t, err)

	pending, err := outbox.ListPending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	ev := pending[0]
	assert.Equal(t, "follow", ev.EventType)
	assert.Equal(t, fan.ID, ev.Follower)
	assert.Equal(t, author.ID, ev.Author)
	assert.Contains(t, ev.Payload, `"event":"follow"`)

	// 失败重试到上限后不再返回
	for i := 0; i < 3; i++ {
		require.NoError(t, outbox.MarkFailed(ctx, ev.ID))
	}
	pending, err = outbox.ListPending(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
	pending, err = outbox.ListPending(ctx, 10, 4)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Retry)

	require.NoError(t, outbox.MarkSent(ctx, ev.ID))
	pending, err = outbox.ListPending(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	changed, err = follows.Unfollow(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	require.True(t, changed)
	pending, err = outbox.ListPending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "unfollow", pending[0].EventType)
}

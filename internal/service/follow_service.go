package service

import (
	"context"
	"log"
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository"
)

type FollowService struct {
	users    repository.UserStore
	follows  repository.FollowStore
	posts    repository.PostStore
	pageSize int
}

func NewFollowService(stores repository.Set, pageSize int) *FollowService {
	if pageSize <= 0 {
		pageSize = pkg.DefaultPageSize
	}
	return &FollowService{
		users:    stores.Users,
		follows:  stores.Follows,
		posts:    stores.Posts,
		pageSize: pageSize,
	}
}

// Follow 关注作者。重复关注不报错，changed=false；关注自己返回 ErrSelfFollow
func (s *FollowService) Follow(ctx context.Context, follower *model.User, username string) (*model.User, bool, error) {
	if follower == nil {
		return nil, false, ErrAuthRequired
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, notFound(err, "author")
	}
	if author.ID == follower.ID {
		return author, false, ErrSelfFollow
	}
	changed, err := s.follows.Follow(ctx, follower.ID, author.ID)
	return author, changed, err
}

// Unfollow 未关注时为空操作
func (s *FollowService) Unfollow(ctx context.Context, follower *model.User, username string) (*model.User, bool, error) {
	if follower == nil {
		return nil, false, ErrAuthRequired
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, notFound(err, "author")
	}
	changed, err := s.follows.Unfollow(ctx, follower.ID, author.ID)
	return author, changed, err
}

// Feed 当前用户关注的作者的帖子
func (s *FollowService) Feed(ctx context.Context, viewer *model.User, rawPage string) (*PostList, error) {
	if viewer == nil {
		return nil, ErrAuthRequired
	}
	list, err := listPosts(ctx, s.posts, repository.PostQuery{FollowerID: viewer.ID}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// MessageWriter 由 pkg.KafkaProducer 实现
type MessageWriter interface {
	Send(ctx context.Context, key string, value []byte) error
}

// OutboxRelayer 轮询 outbox 表并投递关注事件
type OutboxRelayer struct {
	repo      repository.OutboxStore
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(repo repository.OutboxStore, sender Sender, interval time.Duration, maxRetry int) *OutboxRelayer {
	if interval <= 0 {
		interval = time.Second
	}
	if maxRetry <= 0 {
		maxRetry = 5
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: 200,
		maxRetry:  maxRetry,
		interval:  interval,
		sender:    sender,
	}
}

// Run outbox启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 投递一批，失败的记录 retry+1 等待下一轮
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.ListPending(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			log.Printf("outbox send id=%d err: %v", ob.ID, err)
			if err = r.repo.MarkFailed(ctx, ob.ID); err != nil {
				log.Printf("outbox mark failed id=%d err: %v", ob.ID, err)
			}
			continue
		}
		if err = r.repo.MarkSent(ctx, ob.ID); err != nil {
			log.Printf("outbox mark sent id=%d err: %v", ob.ID, err)
			continue
		}
		sent++
	}
	return sent
}

// LogSender 未配置 kafka 时使用，只打印事件
func LogSender(_ context.Context, ob *model.SocialOutbox) error {
	log.Printf("OUTBOX SEND type=%s follower=%d author=%d payload=%s", ob.EventType, ob.Follower, ob.Author, ob.Payload)
	return nil
}

// KafkaSender 以 follower id 为 key，保证同一用户的事件有序
func KafkaSender(w MessageWriter) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return w.Send(ctx, pkg.MakeKeyFromID(ob.Follower), []byte(ob.Payload))
	}
}

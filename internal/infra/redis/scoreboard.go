package redis

import (
	"context"
	"fmt"
	"strconv"

	"group-quiz-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// addScoreScript creates the entry at zero on first sight, records
// first-seen order, overwrites the display name and applies the delta in
// one step.
var addScoreScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], 0) == 1 then
	redis.call('RPUSH', KEYS[3], ARGV[1])
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
return redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[3])
`)

// Scoreboard keeps per-conversation scores in Redis.
// Points are stored in thousandths: HINCRBY quiz:{conversation}:points {participant} {units}
// Names are stored as:              HSET    quiz:{conversation}:names  {participant} {name}
// First-scored order is kept as:    RPUSH   quiz:{conversation}:order  {participant}
type Scoreboard struct {
	client *redis.Client
}

func NewScoreboard(client *redis.Client) *Scoreboard {
	return &Scoreboard{client: client}
}

func (s *Scoreboard) AddScore(ctx context.Context, conversation string, participant domain.Participant, delta float64) (float64, error) {
	keys := []string{s.pointsKey(conversation), s.namesKey(conversation), s.orderKey(conversation)}
	units, err := addScoreScript.Run(ctx, s.client, keys, participant.ID, participant.DisplayName, domain.ScoreUnits(delta)).Int64()
	if err != nil {
		return 0, fmt.Errorf("add score: %w", err)
	}
	return domain.ScoreFromUnits(units), nil
}

func (s *Scoreboard) Get(ctx context.Context, conversation string) ([]domain.ScoreEntry, error) {
	var (
		order  *redis.StringSliceCmd
		points *redis.MapStringStringCmd
		names  *redis.MapStringStringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		order = pipe.LRange(ctx, s.orderKey(conversation), 0, -1)
		points = pipe.HGetAll(ctx, s.pointsKey(conversation))
		names = pipe.HGetAll(ctx, s.namesKey(conversation))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read scoreboard: %w", err)
	}

	entries := make([]domain.ScoreEntry, 0, len(order.Val()))
	for _, id := range order.Val() {
		units, err := strconv.ParseInt(points.Val()[id], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score for %s: %w", id, err)
		}
		entries = append(entries, domain.ScoreEntry{
			ParticipantID: id,
			DisplayName:   names.Val()[id],
			Score:         domain.ScoreFromUnits(units),
		})
	}
	return entries, nil
}

func (s *Scoreboard) Reset(ctx context.Context, conversation string) error {
	err := s.client.Del(ctx, s.pointsKey(conversation), s.namesKey(conversation), s.orderKey(conversation)).Err()
	if err != nil {
		return fmt.Errorf("reset scoreboard: %w", err)
	}
	return nil
}

func (s *Scoreboard) pointsKey(conversation string) string {
	return "quiz:{" + conversation + "}:points"
}

func (s *Scoreboard) namesKey(conversation string) string {
	return "quiz:{" + conversation + "}:names"
}

func (s *Scoreboard) orderKey(conversation string) string {
	return "quiz:{" + conversation + "}:order"
}

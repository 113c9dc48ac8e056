package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

var lockSeatsScript = redis.NewScript(`
    -- KEYS = seat lock keys (e.g., seat_lock:123:A1, seat_lock:123:A2 etc.)
    -- ARGV = [owner, ttl in milliseconds]

    for i=1, #KEYS do
        local current = redis.call("GET", KEYS[i])
        if current and current ~= ARGV[1] then
            return {err = "seat already locked"}
        end
    end

    for i=1, #KEYS do
        redis.call("SET", KEYS[i], ARGV[1], "PX", ARGV[2])
    end

    return "OK"
`)

var unlockSeatsScript = redis.NewScript(`
    -- KEYS = seat lock keys, ARGV = [owner]
    -- Only locks still owned by ARGV[1] are removed.

    local released = 0
    for i=1, #KEYS do
        if redis.call("GET", KEYS[i]) == ARGV[1] then
            redis.call("DEL", KEYS[i])
            released = released + 1
        end
    end

    return released
`)

// RedisSeatLocker stores one key per held seat so that every service instance sharing the
// redis server sees the same holds.
type RedisSeatLocker struct {
	client redis.UniversalClient
}

func NewRedisSeatLocker(client redis.UniversalClient) *RedisSeatLocker {
	return &RedisSeatLocker{
		client: client,
	}
}

func (r *RedisSeatLocker) Lock(
	ctx context.Context,
	screeningID int,
	seatIDs []domain.SeatID,
	owner string,
	ttl time.Duration) error {

	err := lockSeatsScript.Run(ctx, r.client, seatLockKeys(screeningID, seatIDs), owner, ttl.Milliseconds()).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat already locked") {
			return &domain.SeatUnavailableError{ScreeningID: screeningID, SeatIDs: seatIDs}
		}

		return fmt.Errorf("failed to lock seats: %w", err)
	}

	return nil
}

func (r *RedisSeatLocker) Unlock(ctx context.Context, screeningID int, seatIDs []domain.SeatID, owner string) error {
	err := unlockSeatsScript.Run(ctx, r.client, seatLockKeys(screeningID, seatIDs), owner).Err()
	if err != nil {
		return fmt.Errorf("failed to unlock seats: %w", err)
	}

	return nil
}

func seatLockKey(screeningID int, seatID domain.SeatID) string {
	return fmt.Sprintf("seat_lock:%d:%s", screeningID, seatID)
}

func seatLockKeys(screeningID int, seatIDs []domain.SeatID) []string {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = seatLockKey(screeningID, seatID)
	}

	return keys
}

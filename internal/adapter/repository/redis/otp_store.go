package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeOTP deletes KEYS[1] only when it holds ARGV[1], so a code is used at most once.
var consumeOTP = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTPStore implements usecase.OTPStore using Redis keys with a TTL.
type OTPStore struct {
	client *redis.Client
	prefix string
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{
		client: client,
		prefix: "cashdesk:otp:",
	}
}

// Save stores code for email, replacing any previous code.
func (s *OTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+email, code, ttl).Err()
}

// Consume deletes the stored code when it matches and reports whether it did.
func (s *OTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeOTP.Run(ctx, s.client, []string{s.prefix + email}, code).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

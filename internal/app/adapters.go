package app

import (
	"strings"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/database"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// The methods below translate configuration sections into the option structs of
// the packages they configure, trimming operator input on the way.

func (c DatabaseConfig) DatabaseClientConfig() database.Config {
	return database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:            strings.TrimSpace(c.Path),
		DSN:             strings.TrimSpace(c.DSN),
		Host:            strings.TrimSpace(c.Host),
		Port:            c.Port,
		User:            strings.TrimSpace(c.User),
		Password:        c.Password,
		Name:            strings.TrimSpace(c.Name),
		Options:         c.Options,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:   strings.TrimSpace(c.Redis.Address),
		Username:  strings.TrimSpace(c.Redis.Username),
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		KeyPrefix: strings.TrimSpace(c.Redis.KeyPrefix),
		Timeout:   c.Redis.Timeout,
	}
}

func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         strings.TrimSpace(c.JWT.Secret),
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		AccessTokenTTL: c.JWT.TTL,
	}
}

// InvitePolicy carries the membership rule into the invite workflow.
func (c AttendanceConfig) InvitePolicy() services.InvitePolicy {
	return services.InvitePolicy{SingleMembershipPerProgram: c.SingleMembershipPerProgram}
}

// Threshold is the signature similarity threshold, falling back to the service
// default when the configured value lies outside (0, 1].
func (c AttendanceConfig) Threshold() float64 {
	if c.SignatureThreshold <= 0 || c.SignatureThreshold > 1 {
		return services.DefaultSignatureThreshold
	}
	return c.SignatureThreshold
}

package config

import "github.com/dmitrijs2005/remindsync/internal/confx"

func parseEnv(cfg *Config) error {
	confx.String("GRPC_ADDR", &cfg.EndpointAddrGRPC)
	confx.String("DATABASE_DSN", &cfg.DatabaseDSN)
	confx.String("SECRET_KEY", &cfg.SecretKey)
	confx.String("S3_USER", &cfg.S3RootUser)
	confx.String("S3_PASSWORD", &cfg.S3RootPassword)
	confx.String("S3_BUCKET", &cfg.S3Bucket)
	confx.String("S3_REGION", &cfg.S3Region)
	confx.String("S3_ENDPOINT", &cfg.S3BaseEndpoint)
	confx.String("LOG_LEVEL", &cfg.LogLevel)
	confx.String("LOG_FORMAT", &cfg.LogFormat)
	if err := confx.Duration("ACCESS_TOKEN_TTL", &cfg.AccessTokenValidityDuration); err != nil {
		return err
	}
	return confx.Duration("REFRESH_TOKEN_TTL", &cfg.RefreshTokenValidityDuration)
}

package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/auth"
	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
// A key set through configuration wins over the key file.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if len(cfg.Auth.AccessTokenKey) > 0 {
		log.Info("Authentication key loaded from configuration")
		return AuthKey(cfg.Auth.AccessTokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Metadata.BasePath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"path", auth.KeyPath(cfg.Metadata.BasePath),
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration)
}

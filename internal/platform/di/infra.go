// internal/platform/di/infra.go
package di

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	appcfg "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/config"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

// Infra owns the external clients. Which ones exist depends on configuration:
// - Firestore when the catalog lives there or a project is configured (strict)
// - GCS when IMAGE_BUCKET is set (strict)
// - Secret Manager when ADMIN_PASSWORD_SECRET is set (best-effort)
// - Firebase Auth when FIREBASE_AUTH_ENABLED (best-effort)
// - Redis when REDIS_URL is set (strict)
// - the KV store always
type Infra struct {
	Config *appcfg.Config

	Firestore     *firestore.Client
	GCS           *storage.Client
	SecretManager *secretmanager.Client
	FirebaseAuth  *firebaseauth.Client
	Redis         *goredis.Client
	KV            kv.Store
}

// NewInfra opens the clients cfg asks for. On error everything opened so far
// is closed again.
func NewInfra(ctx context.Context, cfg *appcfg.Config) (inf *Infra, err error) {
	if cfg == nil {
		return nil, errors.New("di.infra: config is nil")
	}
	lg := logx.Component("di.infra")
	inf = &Infra{Config: cfg}
	defer func() {
		if err != nil {
			_ = inf.Close()
			inf = nil
		}
	}()

	var clientOpts []option.ClientOption
	if f := cfg.CredentialsFile(); f != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(f))
		lg.Info().Msg("[di.infra] using credentials file for GCP clients")
	} else {
		lg.Info().Msg("[di.infra] using Application Default Credentials")
	}

	// 1) Firestore (strict)
	if cfg.UsesFirestore() {
		inf.Firestore, err = firestore.NewClient(ctx, cfg.FirestoreProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("di.infra: firestore.NewClient failed (project=%s): %w", cfg.FirestoreProjectID, err)
		}
		lg.Info().Str("project", cfg.FirestoreProjectID).Msg("[di.infra] Firestore connected")
	}

	// 2) GCS (strict)
	if cfg.ImageBucket != "" {
		inf.GCS, err = storage.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("di.infra: storage.NewClient failed: %w", err)
		}
		lg.Info().Str("bucket", cfg.ImageBucket).Msg("[di.infra] GCS storage client initialized")
	}

	// 3) Secret Manager (best-effort)
	if cfg.AdminPasswordSecret != "" {
		sm, smErr := secretmanager.NewClient(ctx, clientOpts...)
		if smErr != nil {
			lg.Warn().Err(smErr).Msg("[di.infra] secretmanager.NewClient failed; password login disabled")
		} else {
			inf.SecretManager = sm
		}
	}

	// 4) Firebase Auth (best-effort)
	if cfg.FirebaseAuthEnabled {
		app, fbErr := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirestoreProjectID}, clientOpts...)
		if fbErr != nil {
			lg.Warn().Err(fbErr).Msg("[di.infra] firebase app init failed")
		} else if client, authErr := app.Auth(ctx); authErr != nil {
			lg.Warn().Err(authErr).Msg("[di.infra] firebase auth init failed")
		} else {
			inf.FirebaseAuth = client
			lg.Info().Msg("[di.infra] Firebase Auth initialized")
		}
	}

	// 5) Redis (strict)
	if cfg.RedisURL != "" {
		opts, perr := goredis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("di.infra: invalid REDIS_URL: %w", perr)
		}
		inf.Redis = goredis.NewClient(opts)
		if err = inf.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("di.infra: redis ping failed: %w", err)
		}
		lg.Info().Str("addr", opts.Addr).Msg("[di.infra] Redis connected")
	}

	// 6) KV store
	inf.KV, err = kv.NewStore(ctx, kv.StoreType(cfg.KVDriver),
		kv.WithRedisClient(inf.Redis),
		kv.WithPostgresDSN(cfg.DatabaseDSN),
	)
	if err != nil {
		return nil, fmt.Errorf("di.infra: kv store %q: %w", cfg.KVDriver, err)
	}
	lg.Info().Str("driver", cfg.KVDriver).Msg("[di.infra] KV store ready")

	return inf, nil
}

// Close releases every client that was opened.
func (inf *Infra) Close() error {
	if inf == nil {
		return nil
	}
	var errs []error
	if inf.KV != nil {
		errs = append(errs, inf.KV.Close())
	}
	if inf.Redis != nil {
		errs = append(errs, inf.Redis.Close())
	}
	if inf.SecretManager != nil {
		errs = append(errs, inf.SecretManager.Close())
	}
	if inf.GCS != nil {
		errs = append(errs, inf.GCS.Close())
	}
	if inf.Firestore != nil {
		errs = append(errs, inf.Firestore.Close())
	}
	return errors.Join(errs...)
}

// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	httpin "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http"
	authadapter "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/auth"
	fs "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/firestore"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/gcs"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/kvcatalog"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/mail"
	redisadapter "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/redis"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/secret"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/supabase"
	adminapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/admin"
	cartapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/cart"
	catalogapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/catalog"
	contactapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/contact"
	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	appcfg "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/config"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

const (
	// mailFromName is the display name on contact notifications.
	mailFromName = "IPTV Store"
	// firstLoadRetry is the retry period while the catalog has never loaded.
	firstLoadRetry = 5 * time.Second
)

// Container wires the application services on top of Infra.
type Container struct {
	Config *appcfg.Config
	Infra  *Infra

	ProductRepo productdom.Repository
	Signal      *catalogapp.Signal
	Catalog     *catalogapp.Store
	Carts       *cartapp.Stores
	Mutator     *adminapp.Mutator
	Sessions    *sessionapp.Registry
	Auth        sessionapp.Authenticator
	Contact     *contactapp.Usecase
	Bridge      *redisadapter.CatalogRefreshBridge

	unbind     func()
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	retryEvery time.Duration
}

// NewContainer builds every service. Nothing runs in the background until Start.
func NewContainer(ctx context.Context, cfg *appcfg.Config) (*Container, error) {
	inf, err := NewInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c, err := newContainer(cfg, inf)
	if err != nil {
		_ = inf.Close()
		return nil, err
	}
	return c, nil
}

func newContainer(cfg *appcfg.Config, inf *Infra) (*Container, error) {
	lg := logx.Component("di")
	c := &Container{Config: cfg, Infra: inf, retryEvery: firstLoadRetry}

	repo, err := ProductRepository(cfg, inf)
	if err != nil {
		return nil, err
	}
	c.ProductRepo = repo
	lg.Info().Str("backend", cfg.CatalogBackend).Msg("[di] catalog repository wired")

	// Catalog + refresh signal
	c.Signal = catalogapp.NewSignal()
	c.Catalog = catalogapp.NewStore(repo)
	c.unbind = c.Catalog.Bind(c.Signal)
	if inf.Redis != nil {
		c.Bridge = redisadapter.NewCatalogRefreshBridge(inf.Redis)
		c.Signal.SetRelay(c.Bridge)
		lg.Info().Str("origin", c.Bridge.Origin()).Msg("[di] catalog refresh relayed over Redis")
	}

	c.Carts = cartapp.NewStores(inf.KV, c.Catalog)

	var images adminapp.ImageStore
	if inf.GCS != nil {
		images = gcs.NewProductImageRepositoryGCS(inf.GCS, cfg.ImageBucket)
	}
	c.Mutator = adminapp.NewMutator(repo, c.Signal, images)

	c.Sessions = sessionapp.NewRegistry(inf.KV,
		sessionapp.WithTimeout(cfg.SessionTimeout),
		sessionapp.WithCheckInterval(cfg.SessionCheckInterval),
	)
	c.Auth = authenticators(cfg, inf)

	var contacts contactdom.Repository
	if inf.Firestore != nil {
		contacts = fs.NewContactRepositoryFS(inf.Firestore, cfg.ContactCollection)
	}
	var mailer contactapp.Mailer
	if cfg.SendGridAPIKey != "" && cfg.ContactInbox != "" {
		mailer = mail.NewContactMailer(mail.NewSendGridClient(cfg.SendGridAPIKey, mailFromName), cfg.SendGridFrom, cfg.ContactInbox)
	} else {
		lg.Warn().Msg("[di] SENDGRID_API_KEY or CONTACT_INBOX empty; contact messages are stored only")
	}
	c.Contact = contactapp.NewUsecase(contacts, mailer)

	return c, nil
}

// ProductRepository picks the remote product collection named by CATALOG_BACKEND.
func ProductRepository(cfg *appcfg.Config, inf *Infra) (productdom.Repository, error) {
	switch cfg.CatalogBackend {
	case appcfg.CatalogFirestore:
		if inf.Firestore == nil {
			return nil, errors.New("di: firestore catalog requested but no client")
		}
		return fs.NewProductRepositoryFS(inf.Firestore, cfg.ProductCollection), nil
	case appcfg.CatalogSupabase:
		r, err := supabase.NewProductRepository(supabase.Config{
			URL:    cfg.SupabaseURL,
			APIKey: cfg.SupabaseAPIKey,
			Table:  cfg.ProductCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("di: supabase catalog: %w", err)
		}
		return r, nil
	case appcfg.CatalogKV:
		return kvcatalog.NewProductRepositoryKV(inf.KV), nil
	default:
		return nil, fmt.Errorf("di: unknown catalog backend %q", cfg.CatalogBackend)
	}
}

// authenticators builds the admin login chain. Password login is backed by a
// configured hash or, failing that, by Secret Manager.
func authenticators(cfg *appcfg.Config, inf *Infra) sessionapp.Chain {
	lg := logx.Component("di")
	var chain sessionapp.Chain

	switch {
	case cfg.AdminPasswordHash != "":
		chain = append(chain, authadapter.NewPasswordAuthenticator(secret.StaticPasswordHash(cfg.AdminPasswordHash)))
	case inf.SecretManager != nil:
		chain = append(chain, authadapter.NewPasswordAuthenticator(
			secret.NewPasswordHashProviderSM(inf.SecretManager, cfg.FirestoreProjectID, cfg.AdminPasswordSecret),
		))
	}
	if inf.FirebaseAuth != nil {
		chain = append(chain, authadapter.NewFirebaseAuthenticator(inf.FirebaseAuth))
	}

	if len(chain) == 0 {
		lg.Warn().Msg("[di] no admin authenticator configured; every login is denied")
	}
	return chain
}

// Start loads the catalog and starts the cross-replica refresh bridge.
// A failed first load is retried in the background until it succeeds.
func (c *Container) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.Catalog.Refresh(ctx)
	if !c.Catalog.Ready() {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.Catalog.RetryUntilReady(ctx, c.retryEvery)
		}()
	}

	if c.Bridge != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.Bridge.Run(ctx, c.Signal); err != nil {
				logx.Error().Err(err).Msg("[di] catalog refresh bridge stopped")
			}
		}()
	}
}

// RouterDeps exposes the services the HTTP router mounts.
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		Catalog:       c.Catalog,
		Carts:         c.Carts,
		Mutator:       c.Mutator,
		Sessions:      c.Sessions,
		Auth:          c.Auth,
		Contact:       c.Contact,
		CORSOrigin:    c.Config.CORSOrigin,
		SecureCookies: c.Config.AppEnv == "production",
	}
}

// Close stops background work and then releases Infra.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.Sessions != nil {
		c.Sessions.Close()
	}
	if c.unbind != nil {
		c.unbind()
	}
	return c.Infra.Close()
}

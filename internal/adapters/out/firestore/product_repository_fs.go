// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// DefaultProductCollection is the collection name used by the storefront.
const DefaultProductCollection = "product"

var errNilClient = errors.New("firestore client is nil")

// ProductRepositoryFS is the Firestore-backed product collection.
type ProductRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewProductRepositoryFS(client *firestore.Client, collection string) *ProductRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultProductCollection
	}
	return &ProductRepositoryFS{Client: client, Collection: collection}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// List returns every document, oldest first. Documents without createdAt
// (written by other tools) sort last by ID. Documents that do not map to a
// product are logged and left out.
func (r *ProductRepositoryFS) List(ctx context.Context) ([]productdom.Product, error) {
	if r.Client == nil {
		return nil, errNilClient
	}

	it := r.col().Documents(ctx)
	defer it.Stop()

	items := []productdom.Product{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		items = appendProduct(items, doc.Ref.ID, doc.Data())
	}

	sortProducts(items)
	return items, nil
}

func (r *ProductRepositoryFS) Get(ctx context.Context, id string) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return docToProduct(snap)
}

// Create inserts a new document (Firestore auto-ID when p.ID is empty).
func (r *ProductRepositoryFS) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errNilClient
	}

	var ref *firestore.DocumentRef
	if id := strings.TrimSpace(p.ID); id != "" {
		ref = r.col().Doc(id)
	} else {
		ref = r.col().NewDoc()
	}
	p.ID = ref.ID

	if _, err := ref.Create(ctx, productToDoc(p)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return productdom.Product{}, productdom.ErrConflict
		}
		return productdom.Product{}, err
	}
	return p, nil
}

// Update overwrites the mutable fields. A missing document is ErrNotFound;
// Firestore's Update never creates, so a concurrent delete is not resurrected.
func (r *ProductRepositoryFS) Update(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errNilClient
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}
	p.ID = id

	doc := productToDoc(p)
	updates := make([]firestore.Update, 0, len(doc))
	for k, v := range doc {
		if k == "createdAt" {
			continue
		}
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}

	if _, err := r.col().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return p, nil
}

func (r *ProductRepositoryFS) Delete(ctx context.Context, id string) error {
	if r.Client == nil {
		return errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrNotFound
	}

	if _, err := r.col().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return productdom.ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteAll removes every document with a BulkWriter and returns how many
// deletes succeeded. On partial failure the first error is returned.
func (r *ProductRepositoryFS) DeleteAll(ctx context.Context) (int, error) {
	if r.Client == nil {
		return 0, errNilClient
	}

	refs, err := r.col().DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.Client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	var firstErr error
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// Seed writes items under their own IDs in one batch, merging into existing
// documents.
func (r *ProductRepositoryFS) Seed(ctx context.Context, items []productdom.Product) (int, error) {
	if r.Client == nil {
		return 0, errNilClient
	}
	if len(items) == 0 {
		return 0, nil
	}

	batch := r.Client.Batch()
	for _, p := range items {
		if strings.TrimSpace(p.ID) == "" {
			return 0, fmt.Errorf("seed: product %q has no id", p.Name)
		}
		batch.Set(r.col().Doc(p.ID), productToDoc(p), firestore.MergeAll)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(items), nil
}

// ============================================================
// Mapping
// ============================================================

func docToProduct(doc *firestore.DocumentSnapshot) (productdom.Product, error) {
	return productFromData(doc.Ref.ID, doc.Data())
}

func appendProduct(items []productdom.Product, id string, data map[string]any) []productdom.Product {
	p, err := productFromData(id, data)
	if err != nil {
		lg := logx.Component("product_repo_fs")
		lg.Warn().Err(err).Str("id", id).Msg("[product_repo_fs] skipping malformed document")
		return items
	}
	return append(items, p)
}

// productFromData maps raw document fields. Numbers may come back as int64 or
// float64 depending on who wrote them.
func productFromData(id string, data map[string]any) (productdom.Product, error) {
	if data == nil {
		return productdom.Product{}, fmt.Errorf("empty product document: %s", id)
	}

	getStr := func(key string) string {
		if v, ok := data[key].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	getStrPtr := func(key string) *string {
		if s := getStr(key); s != "" {
			return &s
		}
		return nil
	}
	getTime := func(key string) time.Time {
		if v, ok := data[key].(time.Time); ok {
			return v.UTC()
		}
		return time.Time{}
	}

	price, err := toDecimal(data["price"])
	if err != nil {
		return productdom.Product{}, fmt.Errorf("product %s: price: %w", id, err)
	}

	var channels *int
	switch v := data["channels"].(type) {
	case int64:
		n := int(v)
		channels = &n
	case float64:
		n := int(v)
		channels = &n
	}

	active, _ := data["is_active"].(bool)

	return productdom.Product{
		ID:          id,
		Name:        getStr("name"),
		Description: getStrPtr("description"),
		Image:       getStrPtr("image"),
		Price:       price.Round(productdom.PriceScale),
		Channels:    channels,
		IsActive:    active,
		CreatedAt:   getTime("createdAt"),
		UpdatedAt:   getTime("updatedAt"),
	}, nil
}

func productToDoc(p productdom.Product) map[string]any {
	m := map[string]any{
		"name":        strings.TrimSpace(p.Name),
		"description": nil,
		"image":       nil,
		"price":       p.Price.Round(productdom.PriceScale).InexactFloat64(),
		"channels":    nil,
		"is_active":   p.IsActive,
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Image != nil {
		m["image"] = *p.Image
	}
	if p.Channels != nil {
		m["channels"] = int64(*p.Channels)
	}
	if !p.CreatedAt.IsZero() {
		m["createdAt"] = p.CreatedAt.UTC()
	}
	if !p.UpdatedAt.IsZero() {
		m["updatedAt"] = p.UpdatedAt.UTC()
	}
	return m
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", v)
	}
}

func sortProducts(items []productdom.Product) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.CreatedAt.IsZero() != b.CreatedAt.IsZero():
			return !a.CreatedAt.IsZero()
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
}

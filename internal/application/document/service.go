package document

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/pkg/id"
)

const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Store interface {
	List(ctx context.Context, collection string) ([]domain.Document, error)
	Get(ctx context.Context, collection, id string) (*domain.Document, error)
	Put(ctx context.Context, d *domain.Document) error
	Merge(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}

// ListOptions orders a listing. An empty SortBy keeps store order.
type ListOptions struct {
	SortBy string
	Desc   bool
}

type Service interface {
	List(ctx context.Context, collection string, opts ListOptions) ([]map[string]interface{}, error)
	Get(ctx context.Context, collection, docID string) (map[string]interface{}, error)
	Create(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Update(ctx context.Context, collection, docID string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, docID string) error
}

type service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) List(ctx context.Context, collection string, opts ListOptions) ([]map[string]interface{}, error) {
	if err := checkNames(collection); err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]map[string]interface{}, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].Fields())
	}
	if opts.SortBy != "" {
		sortBy(out, opts.SortBy, opts.Desc)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, collection, docID string) (map[string]interface{}, error) {
	if err := checkNames(collection, docID); err != nil {
		return nil, err
	}
	d, err := s.store.Get(ctx, collection, docID)
	if err != nil {
		return nil, err
	}
	return d.Fields(), nil
}

func (s *service) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if err := checkNames(collection); err != nil {
		return "", err
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	delete(data, "id")
	now := s.timestamp()
	if _, ok := data[FieldCreatedAt]; !ok {
		data[FieldCreatedAt] = now
	}
	data[FieldUpdatedAt] = now

	d := &domain.Document{Collection: collection, ID: id.New(), Data: data}
	if err := s.store.Put(ctx, d); err != nil {
		return "", fmt.Errorf("create in %s: %w", collection, err)
	}
	return d.ID, nil
}

func (s *service) Update(ctx context.Context, collection, docID string, fields map[string]interface{}) error {
	if err := checkNames(collection, docID); err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	delete(fields, "id")
	fields[FieldUpdatedAt] = s.timestamp()
	return s.store.Merge(ctx, collection, docID, fields)
}

func (s *service) Delete(ctx context.Context, collection, docID string) error {
	if err := checkNames(collection, docID); err != nil {
		return err
	}
	return s.store.Delete(ctx, collection, docID)
}

func (s *service) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func checkNames(names ...string) error {
	for _, n := range names {
		if !namePattern.MatchString(n) {
			return domain.NewError(domain.ErrBadRequest, "Invalid collection or id")
		}
	}
	return nil
}

// sortBy orders rows by a field. Rows missing the field sort last in either
// direction.
func sortBy(rows []map[string]interface{}, field string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i][field]
		b, bok := rows[j][field]
		if !aok || !bok {
			return aok && !bok
		}
		c := compare(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b interface{}) int {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

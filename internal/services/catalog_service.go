// Package services – CatalogService
//
// This file implements the CatalogService, which owns item listings. It
// validates and normalizes listing input, enforces that only the owner may
// change a listing and only while it is available, and serves the browse
// and search queries of the catalog.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/utils"
)

// ItemInput carries the editable fields of a listing.
type ItemInput struct {
	Title       string
	Category    string
	Condition   string
	Description string
	Price       decimal.Decimal
	Hostel      string
	Block       string
	Address     string
	Latitude    *float64
	Longitude   *float64
}

// CatalogService manages listings.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewCatalogService constructs a CatalogService with default title handling.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db, TitleMaxLen: 120}
}

// Create validates in and stores a new available listing owned by owner.
// An empty hostel or block is taken from the owner's profile when known.
func (s *CatalogService) Create(ctx context.Context, owner string, in ItemInput) (*domain.Item, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", owner)),
	)
	defer span.End()

	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	if in.Hostel == "" || in.Block == "" {
		if u, err := repo.GetUser(ctx, s.DB, owner); err == nil {
			if in.Hostel == "" {
				in.Hostel = u.Hostel
			}
			if in.Block == "" {
				in.Block = u.Block
			}
		}
	}

	it := &domain.Item{
		OwnerID:     owner,
		Title:       in.Title,
		Category:    in.Category,
		Condition:   in.Condition,
		Description: in.Description,
		Price:       in.Price,
		Hostel:      in.Hostel,
		Block:       in.Block,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if err := repo.CreateItem(ctx, s.DB, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Get returns a listing joined with its seller.
func (s *CatalogService) Get(ctx context.Context, id uint64) (*domain.ItemWithSeller, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("item.id", int64(id))),
	)
	defer span.End()

	it, err := repo.GetItemWithSeller(ctx, s.DB, id)
	if err != nil {
		return nil, notFoundAs(err, ErrItemNotFound)
	}
	return it, nil
}

// ListAvailable returns a page of available listings matching f and the
// total number of matches. Invalid page or pageSize fall back to defaults.
func (s *CatalogService) ListAvailable(ctx context.Context, f repo.ItemFilter, page, pageSize int) ([]domain.ItemWithSeller, int64, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "ListAvailable",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	p := utils.NewPage(page, pageSize)

	total, err := repo.CountAvailableItems(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ItemWithSeller{}, 0, nil
	}
	items, err := repo.ListAvailableItems(ctx, s.DB, f, p.Offset(), p.Size)
	return items, total, err
}

// Search matches query case-insensitively against title or description of
// available listings, combined with the other filters in f.
func (s *CatalogService) Search(ctx context.Context, query string, f repo.ItemFilter) ([]domain.ItemWithSeller, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	f.Query = s.fold(normalizeTitle(query))
	return repo.ListAvailableItems(ctx, s.DB, f, 0, 0)
}

// Update replaces the editable fields of an available listing owned by actor.
func (s *CatalogService) Update(ctx context.Context, id uint64, actor string, in ItemInput) (*domain.Item, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int64("item.id", int64(id)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()

	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	var out *domain.Item
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedAvailableItem(ctx, tx, id, actor); err != nil {
			return err
		}
		n, err := repo.UpdateItemFields(ctx, tx, id, actor, map[string]any{
			"title":       in.Title,
			"category":    in.Category,
			"condition":   in.Condition,
			"description": in.Description,
			"price":       in.Price,
			"hostel":      in.Hostel,
			"block":       in.Block,
			"address":     in.Address,
			"latitude":    in.Latitude,
			"longitude":   in.Longitude,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAlreadySold
		}
		out, err = repo.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSold marks an item owned by actor as sold. Marking a sold item again
// is a no-op.
func (s *CatalogService) MarkSold(ctx context.Context, id uint64, actor string) error {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "MarkSold",
		trace.WithAttributes(
			attribute.Int64("item.id", int64(id)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := repo.GetItem(ctx, tx, id)
		if err != nil {
			return notFoundAs(err, ErrItemNotFound)
		}
		if it.OwnerID != actor {
			return ErrForbidden
		}
		if it.Status == domain.ItemSold {
			return nil
		}
		_, err = repo.MarkItemSold(ctx, tx, id)
		return err
	})
}

// Delete removes an available listing owned by actor. Sold listings are kept
// because orders reference them.
func (s *CatalogService) Delete(ctx context.Context, id uint64, actor string) error {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.Int64("item.id", int64(id)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedAvailableItem(ctx, tx, id, actor); err != nil {
			return err
		}
		n, err := repo.DeleteItem(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAlreadySold
		}
		return nil
	})
}

// ListForOwner returns every listing of owner, sold ones included.
func (s *CatalogService) ListForOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "ListForOwner",
		trace.WithAttributes(attribute.String("user.id", owner)),
	)
	defer span.End()

	return repo.ListItemsByOwner(ctx, s.DB, owner)
}

// ownedAvailableItem loads id and checks it belongs to actor and is unsold.
func ownedAvailableItem(ctx context.Context, db *gorm.DB, id uint64, actor string) (*domain.Item, error) {
	it, err := repo.GetItem(ctx, db, id)
	if err != nil {
		return nil, notFoundAs(err, ErrItemNotFound)
	}
	if it.OwnerID != actor {
		return nil, ErrForbidden
	}
	if it.Status == domain.ItemSold {
		return nil, ErrAlreadySold
	}
	return it, nil
}

// normalize trims every field, collapses whitespace in the title and checks
// the required fields and the price.
func (s *CatalogService) normalize(in ItemInput) (ItemInput, error) {
	in.Title = s.clip(normalizeTitle(in.Title))
	in.Category = strings.TrimSpace(in.Category)
	in.Condition = strings.TrimSpace(in.Condition)
	in.Description = strings.TrimSpace(in.Description)
	in.Hostel = strings.TrimSpace(in.Hostel)
	in.Block = strings.TrimSpace(in.Block)
	in.Address = strings.TrimSpace(in.Address)

	switch {
	case in.Title == "":
		return in, blank("title")
	case in.Category == "":
		return in, blank("category")
	case in.Condition == "":
		return in, blank("condition")
	case !in.Price.IsPositive(),
		in.Price.GreaterThanOrEqual(maxPrice),
		!in.Price.Equal(in.Price.Truncate(2)):
		return in, ErrInvalidPrice
	}
	return in, nil
}

// maxPrice is the first value a decimal(12,2) price column cannot hold.
var maxPrice = decimal.New(1, 10)

// fold case-folds a query the same way listings are indexed.
func (s *CatalogService) fold(q string) string {
	return domain.FoldSearch(q)
}

// clip truncates a title to the configured maximum rune length.
func (s *CatalogService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return strings.TrimSpace(string([]rune(title)[:s.TitleMaxLen]))
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// notFoundAs maps a repository not-found error to target and passes other
// errors through.
func notFoundAs(err, target error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return target
	}
	return err
}

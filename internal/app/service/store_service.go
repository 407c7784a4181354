package service

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker provides cross-process mutual exclusion. The returned func releases
// the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type StoreService struct {
	storeRepo repository.StoreRepository
	ledger    *LedgerService
	locker    Locker
	lockKey   string
	lockTTL   time.Duration
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	ledger *LedgerService,
	locker Locker,
	lockKey string,
	lockTTL time.Duration,
) *StoreService {
	return &StoreService{
		storeRepo: storeRepo,
		ledger:    ledger,
		locker:    locker,
		lockKey:   lockKey,
		lockTTL:   lockTTL,
	}
}

type BuyRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

type PurchaseResponse struct {
	Points    int                    `json:"points"`
	Inventory []model.InventoryEntry `json:"inventory"`
	Message   string                 `json:"message"`
}

// SeedCatalog is the fixed development catalog.
func SeedCatalog() []model.StoreItem {
	return []model.StoreItem{
		{Name: "Pixel Coder Avatar", Description: "A retro 8-bit avatar for your profile.", Price: 50, Type: model.ItemAvatar, Image: "/store/pixel-coder.png"},
		{Name: "Robot Avatar", Description: "Beep boop. Show the world your inner automaton.", Price: 100, Type: model.ItemAvatar, Image: "/store/robot.png"},
		{Name: "Midnight Theme", Description: "A dark editor theme for late-night sessions.", Price: 150, Type: model.ItemTheme, Image: "/store/midnight-theme.png"},
		{Name: "Solarized Theme", Description: "Easy on the eyes, day or night.", Price: 150, Type: model.ItemTheme, Image: "/store/solarized-theme.png"},
		{Name: "Bug Hunter Badge", Description: "For those who squash bugs on sight.", Price: 200, Type: model.ItemBadge, Image: "/store/bug-hunter.png"},
		{Name: "Algorithm Ace Badge", Description: "Proof that you think in big-O.", Price: 300, Type: model.ItemBadge, Image: "/store/algorithm-ace.png"},
		{Name: "Thinking Cap", Description: "A stylish cap for deep thoughts.", Price: 120, Type: model.ItemHat, Image: "/store/thinking-cap.png"},
		{Name: "Hint Token", Description: "Unlocks one extra hint on any problem.", Price: 30, Type: model.ItemPowerUp, Image: "/store/hint-token.png"},
	}
}

func (s *StoreService) ListItems(ctx context.Context) ([]model.StoreItem, error) {
	return s.storeRepo.ListItems(ctx)
}

func (s *StoreService) Inventory(ctx context.Context, userID string) ([]model.InventoryEntry, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	return s.storeRepo.ListInventory(ctx, userID)
}

// Purchase debits the item's price and returns the updated balance together
// with the full inventory.
func (s *StoreService) Purchase(ctx context.Context, userID, itemID string) (*PurchaseResponse, error) {
	purchase, err := s.ledger.DebitForPurchase(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	// The debit has committed; a failed reload must not turn it into an error.
	inventory, err := s.storeRepo.ListInventory(ctx, userID)
	if err != nil {
		logger.L().Warn("purchase committed but inventory reload failed",
			zap.String("user_id", userID),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		inventory = []model.InventoryEntry{purchase.Entry}
	}

	return &PurchaseResponse{
		Points:    purchase.Points,
		Inventory: inventory,
		Message:   fmt.Sprintf("Purchased %s", purchase.Entry.Item.Name),
	}, nil
}

// ReseedCatalog upserts the seed catalog by item name. Only one reseed runs
// at a time across all instances.
func (s *StoreService) ReseedCatalog(ctx context.Context) (int, error) {
	release, err := s.locker.Acquire(ctx, s.lockKey, s.lockTTL)
	if err != nil {
		return 0, err
	}
	defer release()

	items := SeedCatalog()
	for i := range items {
		items[i].ID = uuid.NewString()
	}

	count, err := s.storeRepo.UpsertCatalog(ctx, items)
	if err != nil {
		return 0, err
	}
	logger.L().Info("store catalog reseeded", zap.Int("items", count))
	return count, nil
}

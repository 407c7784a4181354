package model

import "time"

type ItemType string

const (
	ItemAvatar  ItemType = "avatar"
	ItemTheme   ItemType = "theme"
	ItemBadge   ItemType = "badge"
	ItemHat     ItemType = "hat"
	ItemPowerUp ItemType = "powerup"
)

type StoreItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	Type        ItemType  `json:"type"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// InventoryEntry is one purchase. A user may own several entries for the
// same item.
type InventoryEntry struct {
	ID           int64     `json:"id"`
	Item         StoreItem `json:"item"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// Purchase is the outcome of a successful debit.
type Purchase struct {
	Points int            `json:"points"`
	Entry  InventoryEntry `json:"entry"`
}

// Package catalog holds the simple documents with no cross-entity invariants:
// products, plans, payment wallets, the support contact and the admin
// credential.
package catalog

import "time"

// Product is a storefront item.
type Product struct {
	ID    string  `json:"productId"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Img   string  `json:"img,omitempty"`
}

// Plan is a purchasable investment plan.
type Plan struct {
	ID          string  `json:"planId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// Wallet is a deposit destination shown to users.
type Wallet struct {
	ID            string `json:"walletId"`
	WalletName    string `json:"walletName"`
	WalletAddress string `json:"walletAddress"`
	Img           string `json:"img,omitempty"`
}

// SupportContact is the singleton customer-service handle.
type SupportContact struct {
	ID               string    `json:"id"`
	TelegramUsername string    `json:"telegramUsername"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

// AdminCredential is the administrator login record.
type AdminCredential struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

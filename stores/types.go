package stores

import (
	"time"

	"github.com/google/uuid"
)

// User is a persisted user record.
type User struct {
	ID        int    `json:"id" yaml:"id"`
	UserName  string `json:"userName" yaml:"userName"`
	Name      string `json:"name" yaml:"name"`
	Phone     string `json:"phone" yaml:"phone"`
	Address   string `json:"address" yaml:"address"`
	Favorites []int  `json:"favorites" yaml:"favorites"`
}

// UserFields is a partial update for the authenticated user. Nil fields are
// left untouched.
type UserFields struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Apply merges f over u and returns the result.
func (f UserFields) Apply(u User) User {
	if f.Name != nil {
		u.Name = *f.Name
	}
	if f.Phone != nil {
		u.Phone = *f.Phone
	}
	if f.Address != nil {
		u.Address = *f.Address
	}
	return u
}

// SimplifiedUser is the user reference embedded in events.
type SimplifiedUser struct {
	ID       int    `json:"id"`
	UserName string `json:"userName"`
}

// Product is a catalogue entry.
type Product struct {
	ID              int     `json:"id" yaml:"id" validate:"gt=0"`
	Name            string  `json:"name" yaml:"name" validate:"required"`
	Description     string  `json:"description" yaml:"description"`
	Image           string  `json:"image" yaml:"image" validate:"omitempty,url"`
	Price           float64 `json:"price" yaml:"price" validate:"gte=0"`
	ProductRating   float64 `json:"productRating" yaml:"productRating" validate:"gte=0,lte=5"`
	QuantityOfGoods int     `json:"quantityOfGoods" yaml:"quantityOfGoods" validate:"gte=0"`
}

// Simplified returns the product reference embedded in events.
func (p Product) Simplified() SimplifiedProduct {
	return SimplifiedProduct{ID: p.ID, Name: p.Name, Price: p.Price}
}

// SimplifiedProduct is the product reference embedded in events.
type SimplifiedProduct struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CartItem is one product line in the cart.
type CartItem struct {
	Product Product `json:"product"`
	Count   int     `json:"count"`
}

// CartInfo summarises the cart.
type CartInfo struct {
	TotalCount int     `json:"totalCount"`
	TotalPrice float64 `json:"totalPrice"`
}

// EventType identifies what a cart event recorded.
type EventType string

const (
	EventAddToCart      EventType = "addToCart"
	EventDeleteFromCart EventType = "deleteFromCart"
)

// Event is a recorded cart action.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      EventType         `json:"type"`
	User      SimplifiedUser    `json:"user"`
	Product   SimplifiedProduct `json:"product"`
	CartInfo  CartInfo          `json:"cartInfo"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ErrorRecord is a persisted error report.
type ErrorRecord struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

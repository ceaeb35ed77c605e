// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"
)

// Category is one of the fixed magnitude classes a subscriber can opt into.
type Category string

// Supported categories.
const (
	CategorySignificant Category = "significant"
	CategoryM4Plus      Category = "m4plus"
	CategoryM2Plus      Category = "m2plus"
	CategoryM1Plus      Category = "m1plus"
	CategoryAll         Category = "all"
)

// Categories lists every category in processing order.
var Categories = []Category{
	CategorySignificant,
	CategoryM4Plus,
	CategoryM2Plus,
	CategoryM1Plus,
	CategoryAll,
}

// ParseCategory converts a category name into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// DisplayName returns the human-readable name used in alerts.
func (c Category) DisplayName() string {
	switch c {
	case CategorySignificant:
		return "Significant Earthquake"
	case CategoryM4Plus:
		return "M4.5+ Earthquake"
	case CategoryM2Plus:
		return "M2.5+ Earthquake"
	case CategoryM1Plus:
		return "M1.0+ Earthquake"
	case CategoryAll:
		return "All Earthquakes"
	default:
		return "Earthquake"
	}
}

// Preferences holds one switch per category. Missing JSON keys decode as false,
// so every category always has a value.
type Preferences struct {
	Significant bool `json:"significant"`
	M4Plus      bool `json:"m4plus"`
	M2Plus      bool `json:"m2plus"`
	M1Plus      bool `json:"m1plus"`
	All         bool `json:"all"`
}

// AllEnabled returns preferences with every category switched on.
func AllEnabled() Preferences {
	return Preferences{Significant: true, M4Plus: true, M2Plus: true, M1Plus: true, All: true}
}

// NewSubscriberDefaults are applied to a subscriber created by a partial update.
func NewSubscriberDefaults() Preferences {
	return Preferences{Significant: true, M4Plus: true}
}

// Get reports whether the category is enabled.
func (p Preferences) Get(c Category) bool {
	switch c {
	case CategorySignificant:
		return p.Significant
	case CategoryM4Plus:
		return p.M4Plus
	case CategoryM2Plus:
		return p.M2Plus
	case CategoryM1Plus:
		return p.M1Plus
	case CategoryAll:
		return p.All
	default:
		return false
	}
}

// Set switches a single category.
func (p *Preferences) Set(c Category, v bool) {
	switch c {
	case CategorySignificant:
		p.Significant = v
	case CategoryM4Plus:
		p.M4Plus = v
	case CategoryM2Plus:
		p.M2Plus = v
	case CategoryM1Plus:
		p.M1Plus = v
	case CategoryAll:
		p.All = v
	}
}

// Apply merges a patch; categories absent from the patch are left untouched.
func (p *Preferences) Apply(patch PreferencePatch) {
	for c, v := range patch {
		p.Set(c, v)
	}
}

// Any reports whether at least one category is enabled.
func (p Preferences) Any() bool {
	for _, c := range Categories {
		if p.Get(c) {
			return true
		}
	}
	return false
}

// PreferencePatch is a partial preference update.
type PreferencePatch map[Category]bool

// PatchAll returns a patch setting every category to v.
func PatchAll(v bool) PreferencePatch {
	patch := make(PreferencePatch, len(Categories))
	for _, c := range Categories {
		patch[c] = v
	}
	return patch
}

// Subscriber is a chat that receives earthquake alerts.
type Subscriber struct {
	ChatID      string      `json:"chatId"`
	Preferences Preferences `json:"preferences"`
}

// Event is the normalized form of the newest entry of a category feed.
type Event struct {
	Category  Category
	Title     string
	ID        string
	Magnitude string
	UpdatedAt time.Time
	Link      string
}

// DeliveryStatus is the outcome of a single dispatch attempt.
type DeliveryStatus string

// Supported delivery statuses.
const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Delivery records one attempt to send an event to a subscriber.
type Delivery struct {
	ID        int64
	ChatID    string
	Category  Category
	EventID   string
	Title     string
	Status    DeliveryStatus
	Error     string
	CreatedAt time.Time
}

package domain

import "time"

// DefaultAssumedQuantity is reported for books that have no stock record.
const DefaultAssumedQuantity int32 = 100

// ReservationStatus represents the state of a stock reservation
type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "reserved"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusReleased  ReservationStatus = "released"
	StatusExpired   ReservationStatus = "expired"
)

// ReservationItem is the quantity of one SKU held by a reservation.
type ReservationItem struct {
	SKU      string
	Quantity int32
}

// Reservation holds stock for one checkout attempt until it is confirmed,
// released or expires.
type Reservation struct {
	ID         string
	CheckoutID string
	Items      []ReservationItem
	Status     ReservationStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// StockRecord is the ledger entry for one SKU.
type StockRecord struct {
	SKU      string
	Total    int32 // on hand
	Reserved int32 // held by open reservations
}

// Available returns the quantity that can still be sold.
func (s StockRecord) Available() int32 {
	if a := s.Total - s.Reserved; a > 0 {
		return a
	}
	return 0
}

// Source tells whether a stock answer came from the ledger or was assumed.
type Source string

const (
	SourceFound          Source = "FOUND"
	SourceDefaultAssumed Source = "DEFAULT_ASSUMED"
)

// StockLookup is the tagged result of resolving a book against the ledger:
// either Found with its record, or DefaultAssumed with none.
type StockLookup struct {
	Source Source
	Record *StockRecord
}

func Found(rec StockRecord) StockLookup {
	return StockLookup{Source: SourceFound, Record: &rec}
}

func DefaultAssumed() StockLookup {
	return StockLookup{Source: SourceDefaultAssumed}
}

// Available is the record's availability, or DefaultAssumedQuantity.
func (l StockLookup) Available() int32 {
	if l.Source == SourceFound && l.Record != nil {
		return l.Record.Available()
	}
	return DefaultAssumedQuantity
}

// CartStockCheck answers whether a cart line can be fulfilled.
type CartStockCheck struct {
	BookID            string
	SKU               string
	InStock           bool
	AvailableQuantity int32
	Source            Source
}

// SKUStatus is one entry of a batch availability answer.
type SKUStatus struct {
	SKU       string
	IsInStock bool
}

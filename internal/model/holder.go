package model

// HolderType identifies which kind of account holds or owns a seat or
// reservation.  Customers are registered accounts with a point balance;
// guests are anonymous sessions and may never use points.
type HolderType string

const (
	HolderCustomer HolderType = "CUSTOMER" // registered customer account
	HolderGuest    HolderType = "GUEST"    // anonymous guest session
)

// Holder is the resolved identity of the caller performing an
// operation.  It is produced by the session middleware and passed
// explicitly into the reservation engine so that the engine carries no
// ambient session state.
type Holder struct {
	Type HolderType // CUSTOMER or GUEST
	ID   uint64     // customers.id or guests.id depending on Type
}

// IsCustomer reports whether the holder is a registered customer.
func (h Holder) IsCustomer() bool { return h.Type == HolderCustomer }

package domain

// Admin is an administrative account, seen here only as a notification target.
type Admin struct {
	// ID is the account identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// PushToken is the registered offline-push token, empty when none.
	PushToken string `json:"push_token,omitempty"`
}

// Customer is a storefront customer account.
type Customer struct {
	// ID is the account identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// PushToken is the registered offline-push token, empty when none.
	PushToken string `json:"push_token,omitempty"`
}

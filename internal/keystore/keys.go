package keystore

import "minishop/internal/domain"

// Key names a value inside a device namespace. Build keys with the functions
// below instead of concatenating strings.
type Key string

const (
	guestSuffix = "guest"

	userKey  Key = "user"
	usersKey Key = "users"
)

// UserKey holds the active identity, absent when signed out.
func UserKey() Key { return userKey }

// UsersKey holds the simulated identity directory.
func UsersKey() Key { return usersKey }

// CartKey is cart_<identity id>, or cart_guest for a nil identity.
func CartKey(identity *domain.Identity) Key { return scoped("cart", identity) }

// WishlistKey is wishlist_<identity id>, or wishlist_guest for a nil identity.
func WishlistKey(identity *domain.Identity) Key { return scoped("wishlist", identity) }

func scoped(prefix string, identity *domain.Identity) Key {
	if identity == nil || identity.ID == "" {
		return Key(prefix + "_" + guestSuffix)
	}
	return Key(prefix + "_" + identity.ID)
}
